// Package main provides the CLI entrypoint for folio.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verso-dev/folio/internal/chat"
	"github.com/verso-dev/folio/internal/chatui"
	"github.com/verso-dev/folio/internal/config"
	"github.com/verso-dev/folio/internal/github"
	"github.com/verso-dev/folio/internal/gitmap"
	"github.com/verso-dev/folio/internal/server"
	"github.com/verso-dev/folio/internal/store"
	"github.com/verso-dev/folio/internal/tui"
)

const (
	defaultEndpoint   = "http://localhost:8787/api/chat"
	defaultServeAddr  = "localhost:8787"
	defaultModel      = "gpt-4o-mini"
	defaultRateLimit  = 10
	defaultRateWindow = "1m"
)

var (
	calendarUser     string
	calendarAPIBase  string
	calendarFrom     string
	calendarTo       string
	calendarYear     int
	calendarOffline  bool
	calendarCellSize int
	calendarCellGap  int
	calendarCounts   bool
	calendarMonths   bool
	calendarDays     bool

	chatEndpoint string
	chatProject  string

	serveAddr       string
	serveOwner      string
	serveSite       string
	serveModel      string
	serveBaseURL    string
	serveRateLimit  int
	serveRateWindow string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "folio",
		Short:         "Terminal portfolio: contribution calendar and project chat",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runCalendarCmd,
	}

	defaults := gitmap.DefaultOptions()
	rootCmd.Flags().StringVar(&calendarUser, "user", "", "GitHub username")
	rootCmd.Flags().StringVar(&calendarAPIBase, "api-base", github.DefaultAPIBase, "contributions API base URL")
	rootCmd.Flags().StringVar(&calendarFrom, "from", "", "start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&calendarTo, "to", "", "end date (YYYY-MM-DD)")
	rootCmd.Flags().IntVar(&calendarYear, "year", 0, "calendar year (default: last 365 days)")
	rootCmd.Flags().BoolVar(&calendarOffline, "offline", false, "render from the local cache without fetching")
	rootCmd.Flags().IntVar(&calendarCellSize, "cell-size", defaults.CellSize, "cell size in layout units")
	rootCmd.Flags().IntVar(&calendarCellGap, "cell-gap", defaults.CellGap, "gap between cells in layout units")
	rootCmd.Flags().BoolVar(&calendarCounts, "counts", false, "overlay contribution counts on cells")
	rootCmd.Flags().BoolVar(&calendarMonths, "months", defaults.ShowMonths, "show month labels")
	rootCmd.Flags().BoolVar(&calendarDays, "days", defaults.ShowDays, "show weekday labels")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runCalendarCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "user", &calendarUser, fileCfg.Calendar.User)
	applyStringConfig(cmd, "api-base", &calendarAPIBase, fileCfg.Calendar.APIBase)
	applyIntConfig(cmd, "cell-size", &calendarCellSize, fileCfg.Calendar.CellSize)
	applyIntConfig(cmd, "cell-gap", &calendarCellGap, fileCfg.Calendar.CellGap)
	applyBoolConfig(cmd, "counts", &calendarCounts, fileCfg.Calendar.Counts)
	applyBoolConfig(cmd, "months", &calendarMonths, fileCfg.Calendar.Months)
	applyBoolConfig(cmd, "days", &calendarDays, fileCfg.Calendar.Days)

	if calendarUser == "" {
		return fmt.Errorf("--user is required (or set calendar.user in the config)")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("calendar requires a terminal")
	}
	if calendarCellSize <= 0 {
		return fmt.Errorf("--cell-size must be > 0")
	}
	if calendarCellGap < 0 {
		return fmt.Errorf("--cell-gap must be >= 0")
	}

	opts := gitmap.DefaultOptions()
	opts.CellSize = calendarCellSize
	opts.CellGap = calendarCellGap
	opts.ShowCounts = calendarCounts
	opts.ShowMonths = calendarMonths
	opts.ShowDays = calendarDays

	from, to, note, err := resolveCalendarRange(calendarFrom, calendarTo, calendarYear, time.Now())
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	records, note, err := loadContributions(ctx, st, calendarUser, calendarAPIBase, calendarOffline, from, to, note)
	if err != nil {
		return err
	}

	weeks, err := gitmap.BuildGrid(from, to, records, opts.WeekStart)
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	model := tui.NewModel(calendarUser, weeks, opts, note)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveCalendarRange maps the date flags to a range. Explicit --from/--to
// win over --year; no flags means the trailing 365 days ending today.
func resolveCalendarRange(fromStr, toStr string, year int, now time.Time) (from, to time.Time, note string, err error) {
	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			return from, to, "", fmt.Errorf("--from and --to must be set together")
		}
		from, err = time.ParseInLocation(gitmap.DateFormat, fromStr, time.Local)
		if err != nil {
			return from, to, "", fmt.Errorf("invalid --from value: %w", err)
		}
		to, err = time.ParseInLocation(gitmap.DateFormat, toStr, time.Local)
		if err != nil {
			return from, to, "", fmt.Errorf("invalid --to value: %w", err)
		}
		return from, to, fromStr + " to " + toStr, nil
	}
	if year > 0 {
		from = time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
		to = time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local)
		return from, to, fmt.Sprintf("%d", year), nil
	}
	to = now
	from = now.AddDate(0, 0, -364)
	return from, to, "past year", nil
}

// loadContributions fetches live data and caches it, falling back to the
// cache when the API is unreachable. Offline mode reads the cache only.
func loadContributions(ctx context.Context, st *store.Store, user, apiBase string, offline bool, from, to time.Time, note string) ([]gitmap.ContributionDay, string, error) {
	if !offline {
		client := github.NewClient(apiBase)
		records, err := client.Contributions(ctx, user)
		if err == nil {
			if uerr := st.UpsertContributions(ctx, user, records); uerr != nil {
				logErrf("failed to cache contributions: %v\n", uerr)
			}
			return records, note, nil
		}
		logErrf("fetch failed, falling back to cache: %v\n", err)
	}

	records, err := st.ListContributions(ctx, user, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cache: %w", err)
	}
	if len(records) == 0 {
		return nil, "", fmt.Errorf("no cached contributions for %q; run without --offline first", user)
	}
	fetchedAt, err := st.LastFetchedAt(ctx, user)
	if err == nil && !fetchedAt.IsZero() {
		note += fmt.Sprintf(" · cached %s", fetchedAt.Format("2006-01-02"))
	}
	return records, note, nil
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the portfolio assistant",
		Args:  cobra.NoArgs,
		RunE:  runChatCmd,
	}
	cmd.Flags().StringVar(&chatEndpoint, "endpoint", defaultEndpoint, "chat endpoint URL")
	cmd.Flags().StringVar(&chatProject, "project", "", "configured project to discuss")
	return cmd
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "endpoint", &chatEndpoint, fileCfg.Chat.Endpoint)
	applyStringConfig(cmd, "project", &chatProject, fileCfg.Chat.Project)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("chat requires a terminal")
	}

	var project *chat.ProjectContext
	title := ""
	if chatProject != "" {
		p, ok := fileCfg.FindProject(chatProject)
		if !ok {
			return fmt.Errorf("unknown project %q (run: folio projects)", chatProject)
		}
		project = &chat.ProjectContext{Title: p.Title, Excerpt: p.Excerpt, GitHub: p.GitHub}
		title = p.Title
	}

	session := chat.NewSession(chat.NewClient(chatEndpoint), project, nil)
	model := chatui.NewModel(session, title)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chat TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat endpoint",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().StringVar(&serveOwner, "owner", "", "portfolio owner name")
	cmd.Flags().StringVar(&serveSite, "site", "", "portfolio site URL")
	cmd.Flags().StringVar(&serveModel, "model", defaultModel, "upstream model name")
	cmd.Flags().StringVar(&serveBaseURL, "base-url", "", "upstream API base URL (default: OpenAI)")
	cmd.Flags().IntVar(&serveRateLimit, "rate-limit", defaultRateLimit, "requests allowed per window per client")
	cmd.Flags().StringVar(&serveRateWindow, "rate-window", defaultRateWindow, "rate limit window (e.g. 1m)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyStringConfig(cmd, "owner", &serveOwner, fileCfg.Serve.Owner)
	applyStringConfig(cmd, "site", &serveSite, fileCfg.Serve.Site)
	applyStringConfig(cmd, "model", &serveModel, fileCfg.Serve.Model)
	applyStringConfig(cmd, "base-url", &serveBaseURL, fileCfg.Serve.BaseURL)
	applyIntConfig(cmd, "rate-limit", &serveRateLimit, fileCfg.Serve.RateLimit)
	applyStringConfig(cmd, "rate-window", &serveRateWindow, fileCfg.Serve.RateWindow)

	window, err := time.ParseDuration(serveRateWindow)
	if err != nil {
		return fmt.Errorf("invalid --rate-window value: %w", err)
	}

	apiKey := os.Getenv("FOLIO_OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("set FOLIO_OPENAI_API_KEY or OPENAI_API_KEY")
	}

	cfg := server.Config{
		Owner:      serveOwner,
		Site:       serveSite,
		Model:      serveModel,
		APIKey:     apiKey,
		BaseURL:    serveBaseURL,
		RateLimit:  serveRateLimit,
		RateWindow: window,
	}
	srv := server.New(cfg, server.NewOpenAICompleter(apiKey, serveBaseURL, serveModel))

	logErrf("listening on %s\n", serveAddr)
	if err := http.ListenAndServe(serveAddr, srv.Handler()); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List configured projects",
		Args:  cobra.NoArgs,
		RunE:  runProjectsCmd,
	}
}

func runProjectsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(fileCfg.Projects) == 0 {
		logErrln("No projects configured. Add [[projects]] entries with: folio config")
		return fmt.Errorf("no projects configured")
	}

	nameWidth := 0
	titleWidth := 0
	for _, p := range fileCfg.Projects {
		if w := runewidth.StringWidth(p.Name); w > nameWidth {
			nameWidth = w
		}
		if w := runewidth.StringWidth(p.Title); w > titleWidth {
			titleWidth = w
		}
	}
	for _, p := range fileCfg.Projects {
		line := runewidth.FillRight(p.Name, nameWidth) + "  " + runewidth.FillRight(p.Title, titleWidth)
		if p.GitHub != "" {
			line += "  " + p.GitHub
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(line, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := gitmap.DefaultOptions()
	return fmt.Sprintf(`# folio configuration
# Uncomment a value to enable it. CLI flags override config values.

[calendar]
# user = "octocat"        # GitHub username
# api-base = %q
# cell-size = %d          # Cell size in layout units
# cell-gap = %d           # Gap between cells in layout units
# counts = false          # Overlay contribution counts on cells
# months = true           # Show month labels
# days = true             # Show weekday labels

[chat]
# endpoint = %q
# project = ""            # Default project to discuss

[serve]
# addr = %q
# owner = ""              # Portfolio owner name
# site = ""               # Portfolio site URL
# model = %q
# base-url = ""           # Upstream API base URL (default: OpenAI)
# rate-limit = %d         # Requests allowed per window per client
# rate-window = %q        # Rate limit window

# [[projects]]
# name = "folio"
# title = "Folio"
# excerpt = "Terminal portfolio with a contribution calendar and project chat."
# github = "https://github.com/verso-dev/folio"
`,
		github.DefaultAPIBase,
		defaults.CellSize,
		defaults.CellGap,
		defaultEndpoint,
		defaultServeAddr,
		defaultModel,
		defaultRateLimit,
		defaultRateWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
