package gitmap

import (
	"testing"
	"time"
)

func TestLayoutGeometry(t *testing.T) {
	weeks := mustGrid(t, date(2024, time.June, 1), date(2024, time.June, 30))
	layout := NewLayout(weeks, DefaultOptions())

	wantWidth := len(weeks)*10 + (len(weeks)-1)*3
	if layout.GridWidth != wantWidth {
		t.Fatalf("expected grid width %d, got %d", wantWidth, layout.GridWidth)
	}
	if layout.GridHeight != 7*10+6*3 {
		t.Fatalf("expected grid height %d, got %d", 7*10+6*3, layout.GridHeight)
	}
	if len(layout.Cells) != 30 {
		t.Fatalf("expected 30 positioned cells for June, got %d", len(layout.Cells))
	}
	for _, cell := range layout.Cells {
		if cell.X != cell.Col*13 || cell.Y != cell.Row*13 {
			t.Fatalf("cell %s has offset (%d,%d) for position (%d,%d)",
				cell.Day.Date, cell.X, cell.Y, cell.Col, cell.Row)
		}
	}
}

func TestLayoutCellAt(t *testing.T) {
	weeks := mustGrid(t, date(2024, time.June, 1), date(2024, time.June, 30))
	layout := NewLayout(weeks, DefaultOptions())

	// June 1 2024 is a Saturday: column 0, row 6.
	cell := layout.CellAt(5, 6*13+5)
	if cell == nil || cell.Day.Date != "2024-06-01" {
		t.Fatalf("expected June 1 at column 0 row 6, got %+v", cell)
	}

	// Row 0 of the first week is May 26, outside the range.
	if got := layout.CellAt(5, 5); got != nil {
		t.Fatalf("expected nil for out-of-range slot, got %+v", got)
	}

	// Points inside the gap between cells miss.
	if got := layout.CellAt(11, 6*13+5); got != nil {
		t.Fatalf("expected nil inside the cell gap, got %+v", got)
	}

	// Points past the grid miss.
	if got := layout.CellAt(layout.GridWidth+10, 5); got != nil {
		t.Fatalf("expected nil past the grid, got %+v", got)
	}
	if got := layout.CellAt(-1, 5); got != nil {
		t.Fatalf("expected nil for negative coordinates, got %+v", got)
	}
}

func TestLayoutBounds(t *testing.T) {
	weeks := mustGrid(t, date(2024, time.June, 1), date(2024, time.June, 30))
	layout := NewLayout(weeks, DefaultOptions())
	bounds := layout.Bounds()
	if !bounds.Contains(0, 0) || !bounds.Contains(layout.GridWidth-1, layout.GridHeight-1) {
		t.Fatalf("expected bounds to contain grid corners, got %+v", bounds)
	}
	if bounds.Contains(layout.GridWidth, 0) || bounds.Contains(0, -1) {
		t.Fatalf("expected bounds to exclude outside points, got %+v", bounds)
	}
}

func TestLayoutColorClamps(t *testing.T) {
	weeks := mustGrid(t, date(2024, time.June, 1), date(2024, time.June, 2))
	layout := NewLayout(weeks, DefaultOptions())
	if layout.Color(-3) != DefaultColors[0] {
		t.Fatalf("expected negative level to clamp to level 0")
	}
	if layout.Color(9) != DefaultColors[4] {
		t.Fatalf("expected oversized level to clamp to level 4")
	}
}

func TestCountFontSize(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{count: 1, want: 7},
		{count: 42, want: 6},
		{count: 321, want: 5},
		{count: 4321, want: 4},
		{count: 54321, want: 4},
	}
	for _, tc := range cases {
		if got := CountFontSize(tc.count); got != tc.want {
			t.Fatalf("CountFontSize(%d) = %d, want %d", tc.count, got, tc.want)
		}
	}
}

func TestCountTone(t *testing.T) {
	if CountTone(0) != ToneForeground || CountTone(1) != ToneForeground {
		t.Fatalf("expected foreground tone for low levels")
	}
	if CountTone(2) != ToneMuted || CountTone(3) != ToneMuted {
		t.Fatalf("expected muted tone for mid levels")
	}
	if CountTone(4) != ToneBackground {
		t.Fatalf("expected background tone for level 4")
	}
}
