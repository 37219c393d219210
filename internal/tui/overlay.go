// Package tui provides the Bubble Tea calendar interface.
package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// overlay splices box on top of base at display column x and row y. Lines are
// cut on display-width boundaries so styled content underneath survives on
// both sides.
func overlay(base, box string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	boxLines := strings.Split(box, "\n")

	for i, boxLine := range boxLines {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		boxWidth := ansi.StringWidth(boxLine)
		left := ansi.Truncate(baseLines[row], x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ansi.TruncateLeft(baseLines[row], x+boxWidth, "")
		baseLines[row] = left + boxLine + right
	}
	return strings.Join(baseLines, "\n")
}
