package gitmap

import "time"

// Colors maps contribution levels 0-4 to color tokens.
type Colors [5]string

// DefaultColors is the familiar dark-background green scale.
var DefaultColors = Colors{"#161b22", "#0e4429", "#006d32", "#26a641", "#39d353"}

// Options controls grid geometry and decorations.
type Options struct {
	CellSize   int
	CellGap    int
	ShowMonths bool
	ShowDays   bool
	ShowCounts bool
	WeekStart  time.Weekday
	Colors     Colors
}

// DefaultOptions returns the reference geometry: 10-unit cells with a 3-unit
// gap, Sunday week start, months and weekday labels on.
func DefaultOptions() Options {
	return Options{
		CellSize:   10,
		CellGap:    3,
		ShowMonths: true,
		ShowDays:   true,
		WeekStart:  time.Sunday,
		Colors:     DefaultColors,
	}
}

// Cell is a positioned day cell. X and Y are offsets of the cell's top-left
// corner within the grid, in layout units.
type Cell struct {
	Day ContributionDay
	Col int
	Row int
	X   int
	Y   int
}

// Rect is an axis-aligned bounding box in layout units. Max edges are
// inclusive, matching pointer hit tests against a rendered rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// Contains reports whether the point lies within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Layout is the fully positioned grid: cells, month labels, and weekday
// labels. It owns no state and can be rebuilt from the weeks on every render.
type Layout struct {
	Weeks      []WeekColumn
	Cells      []Cell
	Months     []MonthLabel
	Days       []DayLabel
	GridWidth  int
	GridHeight int

	opts  Options
	index map[[2]int]int
}

// NewLayout positions every non-nil day of the grid and derives the labels.
func NewLayout(weeks []WeekColumn, opts Options) *Layout {
	cellTotal := opts.CellSize + opts.CellGap
	l := &Layout{
		Weeks:      weeks,
		GridHeight: 7*opts.CellSize + 6*opts.CellGap,
		opts:       opts,
		index:      make(map[[2]int]int),
	}
	if n := len(weeks); n > 0 {
		l.GridWidth = n*opts.CellSize + (n-1)*opts.CellGap
	}
	if opts.ShowMonths {
		l.Months = MonthLabels(weeks, opts.CellSize, opts.CellGap)
	}
	if opts.ShowDays {
		l.Days = dayLabels
	}
	for col, week := range weeks {
		for row, day := range week.Days {
			if day == nil {
				continue
			}
			l.index[[2]int{col, row}] = len(l.Cells)
			l.Cells = append(l.Cells, Cell{
				Day: *day,
				Col: col,
				Row: row,
				X:   col * cellTotal,
				Y:   row * cellTotal,
			})
		}
	}
	return l
}

// Options returns the geometry the layout was built with.
func (l *Layout) Options() Options {
	return l.opts
}

// Bounds returns the grid's bounding rectangle in layout units.
func (l *Layout) Bounds() Rect {
	return Rect{MaxX: l.GridWidth - 1, MaxY: l.GridHeight - 1}
}

// CellAt hit-tests a point against the grid. Points in gaps between cells or
// over out-of-range slots return nil.
func (l *Layout) CellAt(x, y int) *Cell {
	if x < 0 || y < 0 {
		return nil
	}
	cellTotal := l.opts.CellSize + l.opts.CellGap
	if cellTotal <= 0 {
		return nil
	}
	if x%cellTotal >= l.opts.CellSize || y%cellTotal >= l.opts.CellSize {
		return nil
	}
	col, row := x/cellTotal, y/cellTotal
	if row >= 7 || col >= len(l.Weeks) {
		return nil
	}
	i, ok := l.index[[2]int{col, row}]
	if !ok {
		return nil
	}
	return &l.Cells[i]
}

// Color returns the color token for a level, clamping out-of-range levels.
func (l *Layout) Color(level int) string {
	if level < 0 {
		level = 0
	}
	if level > 4 {
		level = 4
	}
	return l.opts.Colors[level]
}

// CountFontSize shrinks the count overlay as the number grows: base size 8
// minus one per digit, never below 4.
func CountFontSize(count int) int {
	digits := 1
	for n := count; n >= 10; n /= 10 {
		digits++
	}
	size := 8 - digits
	if size < 4 {
		size = 4
	}
	return size
}

// TextTone classifies the count overlay's text color against a level's
// background.
type TextTone int

// Tones from darkest backgrounds to the brightest level-4 cells.
const (
	ToneForeground TextTone = iota
	ToneMuted
	ToneBackground
)

// CountTone picks a contrasting text tone for a cell level: dark text on the
// low levels, background-matching text on the brightest.
func CountTone(level int) TextTone {
	switch {
	case level <= 1:
		return ToneForeground
	case level == 4:
		return ToneBackground
	default:
		return ToneMuted
	}
}
