package perforce

import (
	"regexp"
	"time"
)

// Date layouts used in p4 output.
const (
	// LongDateLayout is a full timestamp, e.g. 2003/10/01 01:06:59.
	LongDateLayout = "2006/01/02 15:04:05"
	// ShortDateLayout is a date, e.g. 2003/10/01.
	ShortDateLayout = "2006/01/02"
)

var timeOfDay = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)

// parseDate reads a long or short date in the local zone, which is how
// p4 prints server times.
func parseDate(s string) (time.Time, error) {
	layout := ShortDateLayout
	if len(s) > len(ShortDateLayout) {
		layout = LongDateLayout
	}
	return time.ParseInLocation(layout, s, time.Local)
}

func formatLongDate(t time.Time) string {
	return t.Format(LongDateLayout)
}

// FormatShortDate formats t for revision ranges such as @2003/10/01.
func FormatShortDate(t time.Time) string {
	return t.Format(ShortDateLayout)
}
