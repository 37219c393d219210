// Package gitmap builds and lays out contribution calendar grids.
package gitmap

import (
	"errors"
	"time"
)

// DateFormat is the calendar-day key format used for contribution records.
const DateFormat = "2006-01-02"

// ErrInvalidRange is returned when the start of a range is after its end.
var ErrInvalidRange = errors.New("invalid range: from is after to")

// ContributionDay is one day's activity bucket. Level is pre-quantized by the
// data source and is not derived from Count.
type ContributionDay struct {
	Date  string
	Count int
	Level int
}

// WeekColumn is one column of the grid. Days[0] is the configured first
// weekday. A nil entry means the day falls outside the requested range.
type WeekColumn struct {
	WeekStart time.Time
	Days      [7]*ContributionDay
}

// BuildGrid expands a sparse record list into full week columns covering the
// weeks that contain from and to, inclusive. Days inside [from, to] without a
// record become zero-count level-0 placeholders; days outside the range stay
// nil. Time-of-day components of from and to are ignored.
func BuildGrid(from, to time.Time, records []ContributionDay, weekStart time.Weekday) ([]WeekColumn, error) {
	rangeStart := startOfDay(from)
	rangeEnd := startOfDay(to)
	if rangeStart.After(rangeEnd) {
		return nil, ErrInvalidRange
	}

	byDate := make(map[string]ContributionDay, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	gridStart := startOfWeek(rangeStart, weekStart)
	gridEnd := startOfWeek(rangeEnd, weekStart).AddDate(0, 0, 6)

	weekCount := int(gridEnd.Sub(gridStart).Hours()/24/7) + 1
	weeks := make([]WeekColumn, 0, weekCount)
	for ws := gridStart; !ws.After(gridEnd); ws = ws.AddDate(0, 0, 7) {
		col := WeekColumn{WeekStart: ws}
		for d := 0; d < 7; d++ {
			day := ws.AddDate(0, 0, d)
			if day.Before(rangeStart) || day.After(rangeEnd) {
				continue
			}
			key := day.Format(DateFormat)
			if rec, ok := byDate[key]; ok {
				recCopy := rec
				col.Days[d] = &recCopy
			} else {
				col.Days[d] = &ContributionDay{Date: key}
			}
		}
		weeks = append(weeks, col)
	}
	return weeks, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(day time.Time, weekStart time.Weekday) time.Time {
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
