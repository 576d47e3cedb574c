package models

import (
	"fmt"
	"time"
)

// Timestamps are the provider's wall-clock times. They carry no zone of their
// own, so every date and time in barchive is expressed in UTC to keep
// day arithmetic free of DST shifts.

// Entry is one archived recording segment, usually about 30 minutes long
type Entry struct {
	// URI identifies the entry's download page. It is unique within a feed and date.
	URI   string    `json:"uri"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s [%s - %s]", e.URI, e.Start.Format("2006-01-02 15:04"), e.End.Format("2006-01-02 15:04"))
}

// DateRange is the span of calendar dates the archive can navigate to, inclusive
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the range was never discovered
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether date falls within the range, ignoring time of day
func (r DateRange) Contains(date time.Time) bool {
	d := Date(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of whole days between Start and End
func (r DateRange) Days() int {
	return DaysBetween(r.Start, r.End)
}

func (r DateRange) String() string {
	if r.IsZero() {
		return "undiscovered"
	}
	return fmt.Sprintf("%s to %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
}

// Date truncates t to midnight UTC of its calendar day
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a midnight UTC date
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// DaysBetween returns the signed number of days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// MonthsBetween returns the signed number of calendar months from a to b
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// FirstOfMonth returns midnight UTC on the first day of t's month
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
