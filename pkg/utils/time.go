package utils

import (
	"fmt"
	"time"
)

// ParseScheduleDate parses the optimizer's YYYY-M-D date form, which allows
// unpadded months and days ("2011-11-1").
func ParseScheduleDate(s string) (time.Time, error) {
	var year, month, day int
	var rest string
	n, _ := fmt.Sscanf(s, "%d-%d-%d%s", &year, &month, &day, &rest)
	if n != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-M-D", s)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q: month or day out of range", s)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %q: day does not exist in month", s)
	}
	return t, nil
}

// FormatDuration formats a duration for summaries, rounded to milliseconds
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
