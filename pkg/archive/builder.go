package archive

import (
	"context"
	"fmt"
	"time"

	errs "barchive/pkg/errors"
	"barchive/pkg/logger"
	"barchive/pkg/models"
	"barchive/pkg/navigator"
)

// DateSelector picks the dates a build visits. The zero value selects the
// whole range. DaysBack counts back from the latest archived date and
// cannot be combined with Start or End; a zero Start or End is the
// corresponding end of the range.
type DateSelector struct {
	Start    time.Time
	End      time.Time
	DaysBack *int
}

// BuildOptions control a build pass
type BuildOptions struct {
	// Chronological visits dates oldest first instead of latest first
	Chronological bool

	// Rebuild allows replacing entries from an earlier build
	Rebuild bool
}

// Build visits every selected date in one browser session and replaces
// the archive's entries with what it found. Nothing is replaced unless
// every date was read.
func (a *Archive) Build(ctx context.Context, sel DateSelector, opts BuildOptions) error {
	if len(a.entries) > 0 && !opts.Rebuild {
		return ErrAlreadyBuilt
	}

	dates, err := a.plan(sel, opts.Chronological)
	if err != nil {
		return err
	}

	log := a.deps.Logger.WithField("feed_id", a.feedID)
	log.InfoWithFields("Build started", map[string]interface{}{
		"first": dates[0].Format(time.DateOnly),
		"last":  dates[len(dates)-1].Format(time.DateOnly),
		"dates": len(dates),
	})
	a.deps.Observer.BuildStarted(a.feedID, len(dates))

	var found []models.Entry
	err = a.withSession(ctx, func(cal *navigator.Calendar, table *navigator.TimesTable) error {
		if err := cal.Load(ctx); err != nil {
			return err
		}
		if err := table.Load(ctx); err != nil {
			return err
		}
		cal.SetRange(a.rng)

		for i, date := range dates {
			table.BeginRefresh()
			moved, err := cal.GoTo(ctx, date)
			if err != nil {
				return err
			}
			if moved {
				if err := table.WaitForRefresh(ctx); err != nil {
					return err
				}
			}

			entries, err := table.Read(ctx, date)
			if err != nil {
				return fmt.Errorf("failed to read entries for %s: %w", date.Format(time.DateOnly), err)
			}
			found = append(found, entries...)

			a.deps.Recorder.RecordDateVisited(len(entries))
			a.deps.Observer.DateRead(date, i+1, len(dates), len(entries))
			logger.LogBuildProgress(a.deps.Logger, a.feedID, date, i+1, len(dates), len(entries))
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.entries = found
	a.chronological = opts.Chronological

	log.InfoWithFields("Build finished", map[string]interface{}{
		"entries":  len(found),
		"earliest": a.EarliestEntry(),
		"latest":   a.LatestEntry(),
	})
	return nil
}

// plan lists the dates to visit in visiting order
func (a *Archive) plan(sel DateSelector, chronological bool) ([]time.Time, error) {
	if a.rng.Start.IsZero() || a.rng.End.IsZero() {
		return nil, errs.New(errs.ErrorTypeUsage, "archive range is unknown")
	}

	start, end, err := a.window(sel)
	if err != nil {
		return nil, err
	}

	days := models.DaysBetween(start, end)
	dates := make([]time.Time, 0, days+1)
	for i := 0; i <= days; i++ {
		if chronological {
			dates = append(dates, start.AddDate(0, 0, i))
		} else {
			dates = append(dates, end.AddDate(0, 0, -i))
		}
	}
	return dates, nil
}

// window resolves sel to an inclusive date span within the range
func (a *Archive) window(sel DateSelector) (time.Time, time.Time, error) {
	rng := a.rng
	log := a.deps.Logger.WithField("feed_id", a.feedID)

	if sel.DaysBack != nil {
		if !sel.Start.IsZero() || !sel.End.IsZero() {
			return time.Time{}, time.Time{}, errs.New(errs.ErrorTypeUsage, "days back cannot be combined with a start or end date")
		}
		n := *sel.DaysBack
		if n < 0 {
			return time.Time{}, time.Time{}, errs.New(errs.ErrorTypeUsage, "days back cannot be negative, got %d", n)
		}
		if span := rng.Days(); n > span {
			log.WarnWithFields("Days back exceeds the archive span, clamping", map[string]interface{}{
				"days_back": n,
				"span":      span,
			})
			n = span
		}
		return rng.End.AddDate(0, 0, -n), rng.End, nil
	}

	start, end := rng.Start, rng.End
	if !sel.Start.IsZero() {
		start = models.Date(sel.Start)
	}
	if !sel.End.IsZero() {
		end = models.Date(sel.End)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, errs.New(errs.ErrorTypeUsage, "build window starts after it ends")
	}

	if end.Before(rng.Start) || start.After(rng.End) {
		return time.Time{}, time.Time{}, errs.Wrap(navigator.ErrOutOfRange,
			fmt.Errorf("%s to %s is not within %s", start.Format(time.DateOnly), end.Format(time.DateOnly), rng))
	}

	clampedStart, clampedEnd := start, end
	if clampedStart.Before(rng.Start) {
		clampedStart = rng.Start
	}
	if clampedEnd.After(rng.End) {
		clampedEnd = rng.End
	}
	if !clampedStart.Equal(start) || !clampedEnd.Equal(end) {
		log.WarnWithFields("Build window clamped to the archive range", map[string]interface{}{
			"requested": fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.Format(time.DateOnly)),
			"range":     rng.String(),
		})
	}
	return clampedStart, clampedEnd, nil
}
