package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verso-dev/folio/internal/gitmap"
)

// Terminal geometry of one day cell.
const (
	cellCols = 2
	cellRows = 1
)

const dayGutterCols = 4

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tooltipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0D1117")).
			Background(lipgloss.Color("#F0F0F0")).
			Padding(0, 1)
)

var toneColors = map[gitmap.TextTone]lipgloss.Color{
	gitmap.ToneForeground: lipgloss.Color("#E6E6E6"),
	gitmap.ToneMuted:      lipgloss.Color("#B0B0B0"),
	gitmap.ToneBackground: lipgloss.Color("#0D1117"),
}

// Model implements the Bubble Tea calendar UI.
type Model struct {
	user  string
	note  string
	weeks []gitmap.WeekColumn
	opts  gitmap.Options

	layout  *gitmap.Layout
	total   int
	tooltip gitmap.Tooltip

	width  int
	height int

	pointerX   int
	pointerY   int
	hasPointer bool
}

// NewModel constructs a calendar model. note is an optional footer annotation
// such as the cache age.
func NewModel(user string, weeks []gitmap.WeekColumn, opts gitmap.Options, note string) *Model {
	m := &Model{
		user:  user,
		note:  note,
		weeks: weeks,
		opts:  opts,
	}
	m.rebuild()
	return m
}

// rebuild recomputes the layout from the current weeks and options. The
// computation is pure, so toggling a display option just rebuilds.
func (m *Model) rebuild() {
	m.layout = gitmap.NewLayout(m.weeks, m.opts)
	m.total = 0
	for _, cell := range m.layout.Cells {
		m.total += cell.Day.Count
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			m.opts.ShowCounts = !m.opts.ShowCounts
			m.rebuild()
			return m, nil
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	m.pointerX = msg.X
	m.pointerY = msg.Y
	m.hasPointer = true

	x, y := m.layoutPoint(msg.X, msg.Y)
	var hover *gitmap.HoverInfo
	if cell := m.layout.CellAt(x, y); cell != nil {
		hover = &gitmap.HoverInfo{Date: cell.Day.Date, Count: cell.Day.Count}
	}
	m.tooltip.Move(x, y, hover, m.layout.Bounds())
}

// layoutPoint maps terminal coordinates to the center of the corresponding
// day cell in layout units. Points off the grid map outside its bounds.
func (m *Model) layoutPoint(termX, termY int) (x, y int) {
	originX, originY := m.gridOrigin()
	col := termX - originX
	row := termY - originY
	if col < 0 || row < 0 {
		return -1, -1
	}
	cellTotal := m.opts.CellSize + m.opts.CellGap
	x = col/cellCols*cellTotal + m.opts.CellSize/2
	y = row/cellRows*cellTotal + m.opts.CellSize/2
	return x, y
}

func (m *Model) gridOrigin() (x, y int) {
	if m.opts.ShowDays {
		x = dayGutterCols
	}
	if m.opts.ShowMonths {
		y = 1
	}
	return x, y
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.weeks) == 0 {
		return "no contributions in range\n"
	}

	gridCols := len(m.weeks) * cellCols
	originX, _ := m.gridOrigin()

	var b strings.Builder
	if m.opts.ShowMonths {
		b.WriteString(strings.Repeat(" ", originX))
		b.WriteString(m.renderMonthRow(gridCols))
		b.WriteByte('\n')
	}
	for row := 0; row < 7; row++ {
		if m.opts.ShowDays {
			b.WriteString(m.renderDayGutter(row))
		}
		for _, week := range m.weeks {
			b.WriteString(m.renderCell(week.Days[row]))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.renderFooter())

	view := b.String()
	if m.tooltip.Visible() {
		view = m.overlayTooltip(view)
	}
	return view
}

func (m *Model) renderMonthRow(gridCols int) string {
	cellTotal := m.opts.CellSize + m.opts.CellGap
	row := make([]rune, gridCols)
	for i := range row {
		row[i] = ' '
	}
	for _, label := range m.layout.Months {
		col := label.XOffset / cellTotal * cellCols
		for i, r := range label.Month {
			if col+i < len(row) {
				row[col+i] = r
			}
		}
	}
	return labelStyle.Render(strings.TrimRight(string(row), " "))
}

func (m *Model) renderDayGutter(row int) string {
	for _, label := range m.layout.Days {
		if label.Row == row {
			padded := runewidth.FillLeft(label.Label, dayGutterCols-1) + " "
			return labelStyle.Render(padded)
		}
	}
	return strings.Repeat(" ", dayGutterCols)
}

func (m *Model) renderCell(day *gitmap.ContributionDay) string {
	if day == nil {
		return strings.Repeat(" ", cellCols)
	}
	style := lipgloss.NewStyle().Background(lipgloss.Color(m.layout.Color(day.Level)))
	text := strings.Repeat(" ", cellCols)
	if m.opts.ShowCounts && day.Count > 0 {
		text = countText(day.Count)
		style = style.Foreground(toneColors[gitmap.CountTone(day.Level)])
	}
	return style.Render(text)
}

// countText fits a count into a cell: right-aligned digits, "++" when it
// cannot fit.
func countText(count int) string {
	s := fmt.Sprintf("%d", count)
	if len(s) > cellCols {
		return strings.Repeat("+", cellCols)
	}
	return strings.Repeat(" ", cellCols-len(s)) + s
}

func (m *Model) renderFooter() string {
	plural := "s"
	if m.total == 1 {
		plural = ""
	}
	summary := fmt.Sprintf("%d contribution%s", m.total, plural)
	if m.note != "" {
		summary += " · " + m.note
	}
	help := "q quit · c counts"
	return userStyle.Render("@"+m.user) + footerStyle.Render(" · "+summary+" · "+help)
}

func (m *Model) overlayTooltip(view string) string {
	box := tooltipStyle.Render(m.tooltip.Text())
	boxWidth := lipgloss.Width(box)
	x := m.pointerX - boxWidth/2
	y := m.pointerY - cellRows
	if m.width > 0 && x+boxWidth > m.width {
		x = m.width - boxWidth
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return overlay(view, box, x, y)
}
