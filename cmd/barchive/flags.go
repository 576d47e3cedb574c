package main

import (
	"time"

	errs "barchive/pkg/errors"
	"barchive/pkg/models"
)

// parseDay parses an optional YYYY-MM-DD flag value
func parseDay(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, errs.Wrap(errs.New(errs.ErrorTypeUsage, "invalid --%s", name), err)
	}
	return d, nil
}

// dayBounds turns inclusive --from and --to days into a time window. The
// end is midnight after the --to day, so entries ending that night count.
func dayBounds(from, to string) (time.Time, time.Time, error) {
	start, err := parseDay("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.IsZero() {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
