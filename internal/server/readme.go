package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	readmeTimeout  = 10 * time.Second
	readmeMaxBytes = 256 << 10
)

// FetchReadme retrieves the README for a GitHub repository URL. Enrichment is
// best-effort: any failure returns an empty string, never an error.
func FetchReadme(ctx context.Context, client *http.Client, repoURL string) string {
	owner, repo, ok := splitRepoURL(repoURL)
	if !ok {
		return ""
	}
	if client == nil {
		client = &http.Client{Timeout: readmeTimeout}
	}
	rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/HEAD/README.md", owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, readmeMaxBytes))
	if err != nil {
		return ""
	}
	return string(body)
}

func splitRepoURL(repoURL string) (owner, repo string, ok bool) {
	parsed, err := url.Parse(strings.TrimSuffix(repoURL, "/"))
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
