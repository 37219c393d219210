package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verso-dev/folio/internal/gitmap"
)

func juneModel(t *testing.T) *Model {
	t.Helper()
	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	records := []gitmap.ContributionDay{{Date: "2024-06-15", Count: 3, Level: 2}}
	weeks, err := gitmap.BuildGrid(from, to, records, time.Sunday)
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}
	m := NewModel("octocat", weeks, gitmap.DefaultOptions(), "")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

// termPos returns terminal coordinates over a given grid column and row.
func termPos(m *Model, col, row int) (x, y int) {
	ox, oy := m.gridOrigin()
	return ox + col*cellCols, oy + row*cellRows
}

func TestViewShowsLabels(t *testing.T) {
	m := juneModel(t)
	view := m.View()
	if !strings.Contains(view, "Jun") {
		t.Fatalf("expected month label in view:\n%s", view)
	}
	for _, label := range []string{"Mon", "Wed", "Fri"} {
		if !strings.Contains(view, label) {
			t.Fatalf("expected weekday label %s in view:\n%s", label, view)
		}
	}
	if !strings.Contains(view, "@octocat") {
		t.Fatalf("expected user in footer:\n%s", view)
	}
	if !strings.Contains(view, "3 contributions") {
		t.Fatalf("expected total in footer:\n%s", view)
	}
}

func TestMouseHoverShowsTooltip(t *testing.T) {
	m := juneModel(t)
	// June 15 2024 is a Saturday in the third week: column 2, row 6.
	x, y := termPos(m, 2, 6)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})

	view := m.View()
	if !strings.Contains(view, "3 contributions on Jun 15, 2024") {
		t.Fatalf("expected tooltip content in view:\n%s", view)
	}
}

func TestMouseOffGridHidesTooltip(t *testing.T) {
	m := juneModel(t)
	x, y := termPos(m, 2, 6)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	m.Update(tea.MouseMsg{X: 100, Y: 30, Action: tea.MouseActionMotion})

	view := m.View()
	if strings.Contains(view, "on Jun 15, 2024") {
		t.Fatalf("expected tooltip hidden off grid:\n%s", view)
	}
}

func TestMouseStickyInsideGrid(t *testing.T) {
	m := juneModel(t)
	x, y := termPos(m, 2, 6)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	// Over an out-of-range slot in the first week, still inside the grid box.
	x, y = termPos(m, 0, 0)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})

	view := m.View()
	if !strings.Contains(view, "on Jun 15, 2024") {
		t.Fatalf("expected sticky tooltip inside grid bounds:\n%s", view)
	}
}

func TestCountToggleRebuildsLayout(t *testing.T) {
	m := juneModel(t)
	if m.opts.ShowCounts {
		t.Fatalf("expected counts off by default")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if !m.opts.ShowCounts {
		t.Fatalf("expected counts toggled on")
	}
	if !m.layout.Options().ShowCounts {
		t.Fatalf("expected layout rebuilt with counts enabled")
	}
}

func TestQuitKeys(t *testing.T) {
	m := juneModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command for q")
	}
}

func TestCountText(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{count: 3, want: " 3"},
		{count: 42, want: "42"},
		{count: 120, want: "++"},
	}
	for _, tc := range cases {
		if got := countText(tc.count); got != tc.want {
			t.Fatalf("countText(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}
