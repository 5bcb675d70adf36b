package statusview

import (
	"time"
)

const (
	// TimeEmpty marks a timestamp that has not been set.
	TimeEmpty = "-"

	// TimeFormat is the layout of timestamps in status files.
	TimeFormat = "2006-01-02 15:04:05"

	// InvalidDate is emitted in place of a timestamp that cannot be parsed.
	InvalidDate = "Invalid date"
)

var (
	zonedLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		TimeFormat,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// FormatTime formats t in the status file layout, or TimeEmpty for the zero
// time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return TimeEmpty
	}
	return t.Format(TimeFormat)
}

// ParseTime parses a status file timestamp. TimeEmpty yields the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == TimeEmpty {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimeFormat, value, time.Local)
}

// parseISOTime parses the ISO-like timestamps found in status data. Inputs
// without a zone are interpreted in loc.
func parseISOTime(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimelineTime reformats an ISO-like timestamp as
// "YYYY-MM-DD HH:mm:ss" in loc. Unparseable input, including TimeEmpty,
// yields InvalidDate.
func FormatTimelineTime(value string, loc *time.Location) string {
	t, ok := parseISOTime(value, loc)
	if !ok {
		return InvalidDate
	}
	return t.Format(TimeFormat)
}
