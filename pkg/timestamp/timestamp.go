package timestamp

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the switch history stamp format, YYYYMMDD_HHMMSS
const Layout = "20060102_150405"

// ErrBadStamp is returned when a stamp does not match Layout
var ErrBadStamp = errors.New("malformed timestamp")

// Parse parses a YYYYMMDD_HHMMSS stamp
func Parse(stamp string) (time.Time, error) {
	t, err := time.Parse(Layout, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrBadStamp, stamp, err)
	}
	return t, nil
}

// Format renders t in the history stamp format
func Format(t time.Time) string {
	return t.Format(Layout)
}

// ElapsedMonths returns the calendar month difference between start and end.
// When end is empty the year and month of now are used instead. Day of month
// is ignored and the result is negative when start falls after end.
func ElapsedMonths(start, end string, now time.Time) (int, error) {
	s, err := Parse(start)
	if err != nil {
		return 0, err
	}

	e := now
	if end != "" {
		e, err = Parse(end)
		if err != nil {
			return 0, err
		}
	}

	return MonthsBetween(s, e), nil
}

// MonthsBetween is 12*(end.Year-start.Year) + (end.Month-start.Month)
func MonthsBetween(start, end time.Time) int {
	return 12*(end.Year()-start.Year()) + int(end.Month()) - int(start.Month())
}
