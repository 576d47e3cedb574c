package navigator

import (
	"strings"
	"time"

	"barchive/pkg/broadcastify"
	errs "barchive/pkg/errors"
	"barchive/pkg/models"
)

// ResolveEntryTimes turns the table's "H:MM AM/PM" cells into timestamps on
// date. An entry whose start is later than its end began the evening before,
// so its start moves back one day. Equal times never roll over.
func ResolveEntryTimes(rawStart, rawEnd string, date time.Time) (time.Time, time.Time, error) {
	day := models.Date(date)

	start, err := parseClock(rawStart, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseClock(rawEnd, day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if start.After(end) {
		start = start.AddDate(0, 0, -1)
	}
	return start, end, nil
}

func parseClock(raw string, day time.Time) (time.Time, error) {
	t, err := time.Parse(broadcastify.EntryTimeLayout, strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return time.Time{}, errs.Wrap(errs.New(errs.ErrorTypeRetrieval, "unparseable entry time %q", raw), err)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}
