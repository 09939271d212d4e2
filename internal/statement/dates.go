package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// dateLayouts, in election priority order. Day-first forms sit ahead of
// month-first so ambiguous files resolve day-first unless a sample proves
// otherwise.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"02.01.2006",
	"2/1/2006",
	"1/2/2006",
	"02/01/06",
	"01/02/06",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"02/01/2006 15:04",
}

// DetectDateLayout elects the layout parsing the most samples. A sample with
// a day past 12 disqualifies the month-first reading of it outright, which is
// what breaks ties in practice.
func DetectDateLayout(samples []string) string {
	counts := map[string]int{}
	for _, raw := range samples {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				counts[layout]++
			}
		}
	}
	best, bestN := "", 0
	for _, layout := range dateLayouts {
		if counts[layout] > bestN {
			best, bestN = layout, counts[layout]
		}
	}
	return best
}

// ParseDateCell parses one date cell, preferring the elected layout and
// falling back to every known one. The result is a civil date at UTC midnight.
func ParseDateCell(raw, layout string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return civilDay(t), nil
		}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return civilDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
