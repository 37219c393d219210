package gitmap

import (
	"fmt"
	"time"
)

// Vertical distance between the pointer and the tooltip anchor.
const tooltipOffsetY = 8

// HoverInfo is the cell data shown by the tooltip.
type HoverInfo struct {
	Date  string
	Count int
}

// Tooltip tracks the pointer over the grid and decides where, and whether, the
// hover overlay is shown. The last hovered cell is sticky so the tooltip does
// not blank out while the pointer crosses gaps between cells.
type Tooltip struct {
	last    *HoverInfo
	visible bool
	x       int
	y       int
}

// Move records a pointer position. cell is non-nil only when the pointer is
// directly over a day cell; bounds is the grid's rectangle measured at the
// time of the move.
func (t *Tooltip) Move(x, y int, cell *HoverInfo, bounds Rect) {
	t.x = x
	t.y = y
	if cell != nil {
		info := *cell
		t.last = &info
	}
	t.visible = bounds.Contains(x, y) && t.last != nil
}

// Leave hides the tooltip and forgets the last hovered cell.
func (t *Tooltip) Leave() {
	t.last = nil
	t.visible = false
}

// Visible reports whether the tooltip should be drawn.
func (t *Tooltip) Visible() bool {
	return t.visible
}

// Position returns the tooltip anchor: centered on the pointer, raised above
// it by a fixed offset.
func (t *Tooltip) Position() (x, y int) {
	return t.x, t.y - tooltipOffsetY
}

// Text renders the tooltip content for the last hovered cell, e.g.
// "3 contributions on Jun 15, 2024".
func (t *Tooltip) Text() string {
	if t.last == nil {
		return ""
	}
	plural := "s"
	if t.last.Count == 1 {
		plural = ""
	}
	date := t.last.Date
	if parsed, err := time.Parse(DateFormat, t.last.Date); err == nil {
		date = parsed.Format("Jan 2, 2006")
	}
	return fmt.Sprintf("%d contribution%s on %s", t.last.Count, plural, date)
}
