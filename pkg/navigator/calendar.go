package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
	"barchive/pkg/config"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"
	"barchive/pkg/models"
	"barchive/pkg/poll"
	"barchive/pkg/throttle"
)

// maxMonthSteps bounds the walk back to the first archived month
const maxMonthSteps = 1200

var (
	// ErrOutOfRange means a date lies outside the archive's navigable range
	ErrOutOfRange = errs.New(errs.ErrorTypeRange, "date outside archive range")

	// ErrArchiveUnavailable means the calendar loaded without a selected day,
	// which is how the provider renders a feed with no archive
	ErrArchiveUnavailable = errs.New(errs.ErrorTypeUnavailable, "archive has no selectable day")
)

func navigationError(format string, cause error, args ...any) error {
	return errs.Wrap(errs.New(errs.ErrorTypeNavigation, format, args...), cause)
}

// Calendar drives the archive page's date picker. It keeps its own idea of
// the displayed month and selected date in step with the page and only
// trusts the page after every click has visibly settled.
type Calendar struct {
	browser  browser.Browser
	throttle *throttle.Throttle
	cfg      config.BrowserConfig
	logger   logger.Logger

	rng        models.DateRange
	activeDate time.Time
	displayed  time.Time
}

// NewCalendar wraps a browser already pointed at a feed's archive page
func NewCalendar(b browser.Browser, t *throttle.Throttle, cfg config.BrowserConfig, log logger.Logger) *Calendar {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Calendar{browser: b, throttle: t, cfg: cfg, logger: log}
}

// Range returns the known navigable range
func (c *Calendar) Range() models.DateRange { return c.rng }

// SetRange supplies a range discovered earlier
func (c *Calendar) SetRange(r models.DateRange) { c.rng = r }

// ActiveDate returns the selected date
func (c *Calendar) ActiveDate() time.Time { return c.activeDate }

// DisplayedMonth returns the first day of the month in the calendar header
func (c *Calendar) DisplayedMonth() time.Time { return c.displayed }

// Load waits for the widget and takes the selected day as the latest
// archived date
func (c *Calendar) Load(ctx context.Context) error {
	err := poll.Until(ctx, poll.Config{
		Name:     "calendar rendered",
		Timeout:  c.cfg.LoadTimeout,
		Interval: poll.ExponentialInterval{Base: c.cfg.PollInterval, Max: time.Second},
		Logger:   c.logger,
	}, CalendarRendered(c.browser))
	if err != nil {
		return c.waitError("calendar did not load", err)
	}

	view, err := c.ParseDisplayedMonth(ctx)
	if err != nil {
		return err
	}
	if view.ActiveDay == 0 {
		return ErrArchiveUnavailable
	}

	c.displayed = view.Month
	c.activeDate = view.ActiveDate()
	c.rng.End = c.activeDate

	c.logger.DebugWithFields("Calendar loaded", map[string]interface{}{
		"month":  c.displayed.Format(broadcastify.MonthLabelLayout),
		"active": c.activeDate.Format(time.DateOnly),
	})
	return nil
}

// ParseDisplayedMonth reads the calendar as it is rendered right now
func (c *Calendar) ParseDisplayedMonth(ctx context.Context) (MonthView, error) {
	markup, err := c.browser.Markup(ctx)
	if err != nil {
		return MonthView{}, navigationError("failed to read calendar", err)
	}
	view, err := ParseMonthView(markup)
	if err != nil {
		return MonthView{}, navigationError("failed to parse calendar", err)
	}
	return view, nil
}

// DiscoverRange loads the widget and finds both ends of the archive
func (c *Calendar) DiscoverRange(ctx context.Context) (models.DateRange, error) {
	if err := c.Load(ctx); err != nil {
		return models.DateRange{}, err
	}
	if _, err := c.DiscoverRangeStart(ctx); err != nil {
		return models.DateRange{}, err
	}
	return c.rng, nil
}

// DiscoverRangeStart steps back month by month until the previous-month
// control goes away, takes the earliest selectable day there, then returns
// to the latest month.
func (c *Calendar) DiscoverRangeStart(ctx context.Context) (time.Time, error) {
	steps := 0
	for ; steps < maxMonthSteps; steps++ {
		err := c.step(ctx, broadcastify.SelectorPrevMonth, -1)
		if errors.Is(err, browser.ErrNotInteractable) || errors.Is(err, browser.ErrNotFound) {
			break
		}
		if err != nil {
			return time.Time{}, err
		}
	}
	if steps == maxMonthSteps {
		return time.Time{}, errs.New(errs.ErrorTypeNavigation, "previous-month control still active after %d months", steps)
	}

	view, err := c.ParseDisplayedMonth(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if view.MinDataDay == 0 {
		return time.Time{}, errs.New(errs.ErrorTypeNavigation, "earliest month %s has no selectable day", view.Month.Format(broadcastify.MonthLabelLayout))
	}
	c.displayed = view.Month
	c.rng.Start = view.Month.AddDate(0, 0, view.MinDataDay-1)

	c.logger.InfoWithFields("Archive range discovered", map[string]interface{}{
		"start":  c.rng.Start.Format(time.DateOnly),
		"end":    c.rng.End.Format(time.DateOnly),
		"months": steps,
	})

	if err := c.GoToLatest(ctx); err != nil {
		return time.Time{}, err
	}
	return c.rng.Start, nil
}

// GoToLatest jumps back to the month of the latest archived day
func (c *Calendar) GoToLatest(ctx context.Context) error {
	prevLabel := c.displayed.Format(broadcastify.MonthLabelLayout)

	if err := c.throttle.Wait(ctx, throttle.ClassDateNavigation); err != nil {
		return err
	}
	if err := c.browser.Click(ctx, broadcastify.SelectorToday); err != nil {
		return navigationError("failed to click today", err)
	}

	if !models.FirstOfMonth(c.rng.End).Equal(c.displayed) {
		if err := c.await(ctx, "month label changed", MonthLabelChanged(c.browser, prevLabel)); err != nil {
			return err
		}
	}

	view, err := c.ParseDisplayedMonth(ctx)
	if err != nil {
		return err
	}
	logger.LogNavigation(c.logger, "today", c.displayed, view.Month)
	c.displayed = view.Month
	if active := view.ActiveDate(); !active.IsZero() {
		c.activeDate = active
	}
	return nil
}

// GoTo selects date. It reports whether anything was clicked, which is
// also whether the entries table is about to refresh.
func (c *Calendar) GoTo(ctx context.Context, date time.Time) (bool, error) {
	target := models.Date(date)
	if c.rng.Start.IsZero() || c.rng.End.IsZero() {
		return false, errs.New(errs.ErrorTypeNavigation, "archive range not discovered")
	}
	if !c.rng.Contains(target) {
		return false, errs.Wrap(ErrOutOfRange, fmt.Errorf("%s is not within %s", target.Format(time.DateOnly), c.rng))
	}
	if target.Equal(c.activeDate) {
		return false, nil
	}

	delta := models.MonthsBetween(c.displayed, target)
	control, sign := broadcastify.SelectorNextMonth, 1
	if delta < 0 {
		control, sign, delta = broadcastify.SelectorPrevMonth, -1, -delta
	}
	for i := 0; i < delta; i++ {
		if err := c.step(ctx, control, sign); err != nil {
			return true, navigationError("failed to reach %s", err, target.Format(broadcastify.MonthLabelLayout))
		}
	}

	view, err := c.ParseDisplayedMonth(ctx)
	if err != nil {
		return true, err
	}
	cell, ok := view.CellFor(target.Day())
	if !ok {
		return true, errs.New(errs.ErrorTypeNavigation, "no selectable cell for %s", target.Format(time.DateOnly))
	}

	if err := c.throttle.Wait(ctx, throttle.ClassDateNavigation); err != nil {
		return true, err
	}
	if err := c.browser.Click(ctx, cell.Selector()); err != nil {
		return true, navigationError("failed to click %s", err, target.Format(time.DateOnly))
	}
	if err := c.await(ctx, "date selected", ActiveDateIs(c.browser, target)); err != nil {
		return true, err
	}

	settled, err := c.ParseDisplayedMonth(ctx)
	if err != nil {
		return true, err
	}
	if !settled.Month.Equal(models.FirstOfMonth(target)) || settled.ActiveDay != target.Day() {
		return true, errs.New(errs.ErrorTypeNavigation, "calendar settled on %s instead of %s",
			settled.ActiveDate().Format(time.DateOnly), target.Format(time.DateOnly))
	}

	logger.LogNavigation(c.logger, "select", c.activeDate, target)
	c.displayed = settled.Month
	c.activeDate = target
	return true, nil
}

// step clicks a month control once and waits for the header to change
func (c *Calendar) step(ctx context.Context, control string, sign int) error {
	prevLabel := c.displayed.Format(broadcastify.MonthLabelLayout)
	prevActive, err := activeDayText(ctx, c.browser)
	if err != nil {
		return navigationError("failed to read selected day", err)
	}

	if err := c.throttle.Wait(ctx, throttle.ClassDateNavigation); err != nil {
		return err
	}
	if err := c.browser.Click(ctx, control); err != nil {
		return err
	}
	err = c.await(ctx, "calendar refreshed", AnyOf(
		MonthLabelChanged(c.browser, prevLabel),
		ActiveDayChanged(c.browser, prevActive),
	))
	if err != nil {
		return err
	}

	next := c.displayed.AddDate(0, sign, 0)
	logger.LogNavigation(c.logger, "month", c.displayed, next)
	c.displayed = next
	return nil
}

func (c *Calendar) await(ctx context.Context, name string, cond poll.Condition) error {
	err := poll.Until(ctx, poll.Config{
		Name:     name,
		Timeout:  c.cfg.RefreshTimeout,
		Interval: poll.Constant(c.cfg.PollInterval),
		Logger:   c.logger,
	}, cond)
	if err != nil {
		return c.waitError(name, err)
	}
	return nil
}

func (c *Calendar) waitError(what string, err error) error {
	if !errors.Is(err, poll.ErrTimeout) {
		return err
	}
	return navigationError("%s", err, what)
}
