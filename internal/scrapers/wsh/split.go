package wsh

import (
	"fmt"
	"time"
)

// DateLayout is the MM/DD/YYYY format the provider takes date ranges in.
const DateLayout = "01/02/2006"

// DefaultMaxDays is the widest span the provider answers in a single request.
const DefaultMaxDays = 7

// Interval is an inclusive [Start, End] range of calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) From() string {
	return i.Start.Format(DateLayout)
}

func (i Interval) To() string {
	return i.End.Format(DateLayout)
}

func (i Interval) String() string {
	return i.From() + "-" + i.To()
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s date %q is not MM/DD/YYYY: %w", field, value, err)
	}
	return t, nil
}

// SplitDateRange splits [start, end] into contiguous intervals. Every interval ends at
// most maxDays days after it starts and the next one starts the day after. When
// start == end a single one day interval is returned.
func SplitDateRange(start, end string, maxDays int) ([]Interval, error) {
	if maxDays < 1 {
		return nil, fmt.Errorf("max days must be at least 1, got %d", maxDays)
	}
	startDate, err := parseDate("start", start)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("end", end)
	if err != nil {
		return nil, err
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start %s is after end %s", start, end)
	}

	var intervals []Interval
	for cursor := startDate; !cursor.After(endDate); {
		intervalEnd := cursor.AddDate(0, 0, maxDays)
		if intervalEnd.After(endDate) {
			intervalEnd = endDate
		}
		intervals = append(intervals, Interval{Start: cursor, End: intervalEnd})
		cursor = intervalEnd.AddDate(0, 0, 1)
	}
	return intervals, nil
}
