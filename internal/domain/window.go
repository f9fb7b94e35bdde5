package domain

import (
	"fmt"
	"sort"
	"time"
)

// Window is one requested (date, start, end) interval.
type Window struct {
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

func (w Window) Key() string {
	return w.Date + " " + w.StartTime + "-" + w.EndTime
}

// StartAt resolves the window's opening instant in UTC.
func (w Window) StartAt() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", w.Date+" "+w.StartTime)
}

// NormalizeWindows validates, deduplicates by (date, start, end) and sorts
// chronologically. Malformed dates or times, start >= end, and an empty list
// all fail with ErrInvalidInput.
func NormalizeWindows(windows []Window) ([]Window, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no windows requested", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(windows))
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if _, err := time.Parse("2006-01-02", w.Date); err != nil {
			return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, w.Date)
		}
		start, err := time.Parse("15:04", w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start time %q", ErrInvalidInput, w.StartTime)
		}
		end, err := time.Parse("15:04", w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end time %q", ErrInvalidInput, w.EndTime)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: start %s not before end %s", ErrInvalidInput, w.StartTime, w.EndTime)
		}
		if _, dup := seen[w.Key()]; dup {
			continue
		}
		seen[w.Key()] = struct{}{}
		out = append(out, w)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}
