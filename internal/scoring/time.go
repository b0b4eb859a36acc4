package scoring

import (
	"math"
	"strings"
	"time"
)

const daysPerYear = 365.25

// Layouts without a zone are read as UTC.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02 15:04:05Z07", true},
	{"2006-01-02T15:04:05-0700", true},
	{"2006-01-02 15:04:05-0700", true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02 15:04Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// parseTimestamp reports false for empty or unrecognised values.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, raw)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, time.UTC)
		}
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// wholeDays is the number of complete days from start to end, floored, so it is negative
// when end precedes start.
func wholeDays(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Hours() / 24))
}

func yearsSince(start, now time.Time) float64 {
	return float64(wholeDays(start, now)) / daysPerYear
}

// utcDate drops the time of day after converting to UTC.
func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
