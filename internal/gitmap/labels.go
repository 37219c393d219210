package gitmap

import "time"

// MonthLabel marks a month name and its horizontal offset above the grid.
type MonthLabel struct {
	Month   string
	XOffset int
}

// DayLabel marks a weekday name at a fixed grid row.
type DayLabel struct {
	Label string
	Row   int
}

// Month labels closer together than this are dropped to avoid overlap.
const minMonthLabelSpacing = 28

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Weekday labels at every other row, matching a Sunday-start week.
var dayLabels = []DayLabel{
	{Label: "Mon", Row: 1},
	{Label: "Wed", Row: 3},
	{Label: "Fri", Row: 5},
}

// MonthLabels places a label above each week column that contains the first
// day of a month. A label is dropped when it would sit within
// minMonthLabelSpacing of the previously placed one, which keeps short months
// near year boundaries from overlapping.
func MonthLabels(weeks []WeekColumn, cellSize, cellGap int) []MonthLabel {
	cellTotal := cellSize + cellGap
	var labels []MonthLabel
	for i, week := range weeks {
		first := firstOfMonth(week)
		if first == nil {
			continue
		}
		date, err := time.Parse(DateFormat, first.Date)
		if err != nil {
			continue
		}
		xOffset := i * cellTotal
		if len(labels) == 0 || xOffset-labels[len(labels)-1].XOffset >= minMonthLabelSpacing {
			labels = append(labels, MonthLabel{Month: monthNames[date.Month()-1], XOffset: xOffset})
		}
	}
	return labels
}

func firstOfMonth(week WeekColumn) *ContributionDay {
	for _, day := range week.Days {
		if day == nil {
			continue
		}
		date, err := time.Parse(DateFormat, day.Date)
		if err != nil {
			continue
		}
		if date.Day() == 1 {
			return day
		}
	}
	return nil
}
