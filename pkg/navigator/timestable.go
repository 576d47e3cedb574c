package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
	"barchive/pkg/config"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"
	"barchive/pkg/models"
	"barchive/pkg/poll"

	"github.com/PuerkitoBio/goquery"
)

// TimesTable reads the entries listed for the selected date
type TimesTable struct {
	browser browser.Browser
	cfg     config.BrowserConfig
	logger  logger.Logger

	hasData     bool
	lastSeenID  string
	requestedAt time.Time
}

// NewTimesTable wraps a browser already pointed at a feed's archive page
func NewTimesTable(b browser.Browser, cfg config.BrowserConfig, log logger.Logger) *TimesTable {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &TimesTable{browser: b, cfg: cfg, logger: log}
}

// Load waits for the table and installs the change observer that the
// empty-table refresh wait depends on
func (t *TimesTable) Load(ctx context.Context) error {
	err := poll.Until(ctx, poll.Config{
		Name:     "entries table rendered",
		Timeout:  t.cfg.LoadTimeout,
		Interval: poll.ExponentialInterval{Base: t.cfg.PollInterval, Max: time.Second},
		Logger:   t.logger,
	}, TableRendered(t.browser))
	if err != nil {
		return t.waitError("entries table did not load", err)
	}

	var installed bool
	if err := t.browser.Evaluate(ctx, broadcastify.InstallObserverScript, &installed); err != nil {
		return navigationError("failed to install table observer", err)
	}
	if !installed {
		return errs.New(errs.ErrorTypeNavigation, "entries table vanished before the observer was installed")
	}
	return nil
}

// HasData reports whether the last Read found any entries
func (t *TimesTable) HasData() bool { return t.hasData }

// LastSeenEntryID returns the uri of the first entry of the last Read
func (t *TimesTable) LastSeenEntryID() string { return t.lastSeenID }

// Read returns the listed entries, in table order, resolved against date
func (t *TimesTable) Read(ctx context.Context, date time.Time) ([]models.Entry, error) {
	markup, err := t.browser.Markup(ctx)
	if err != nil {
		return nil, navigationError("failed to read entries table", err)
	}

	entries, err := ParseEntries(markup, date)
	if err != nil {
		return nil, err
	}

	t.hasData = len(entries) > 0
	t.lastSeenID = ""
	if t.hasData {
		t.lastSeenID = entries[0].URI
	}
	return entries, nil
}

// BeginRefresh marks the moment a date change was requested
func (t *TimesTable) BeginRefresh() {
	t.requestedAt = time.Now()
}

// WaitForRefresh blocks until the table shows the newly selected date.
// After a read with data the first entry must change. After an empty read
// there is nothing to compare, so the observer's mutation time is used.
func (t *TimesTable) WaitForRefresh(ctx context.Context) error {
	name := "first entry changed"
	cond := FirstEntryIDChanged(t.browser, t.lastSeenID)
	if !t.hasData {
		name = "entries table mutated"
		cond = PageMutatedSince(t.browser, t.requestedAt)
	}

	err := poll.Until(ctx, poll.Config{
		Name:     name,
		Timeout:  t.cfg.RefreshTimeout,
		Interval: poll.Constant(t.cfg.PollInterval),
		Logger:   t.logger,
	}, cond)
	if err != nil {
		return t.waitError("entries table did not refresh", err)
	}
	return nil
}

func (t *TimesTable) waitError(what string, err error) error {
	if !errors.Is(err, poll.ErrTimeout) {
		return err
	}
	return navigationError("%s", err, what)
}

// ParseEntries reads the entries table out of a page's markup
func ParseEntries(markup string, date time.Time) ([]models.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, navigationError("failed to parse page", err)
	}

	rows := doc.Find(broadcastify.SelectorTimesRows)
	if rows.Find(broadcastify.SelectorNoData).Length() > 0 {
		return nil, nil
	}

	entries := make([]models.Entry, 0, rows.Length())
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		href, _ := row.Find("a").First().Attr("href")
		if cells.Length() < 2 || strings.TrimSpace(href) == "" {
			rowErr = errs.New(errs.ErrorTypeRetrieval, "entries row %d is malformed", i+1)
			return false
		}

		start, end, err := ResolveEntryTimes(cells.Eq(0).Text(), cells.Eq(1).Text(), date)
		if err != nil {
			rowErr = fmt.Errorf("entries row %d: %w", i+1, err)
			return false
		}
		entries = append(entries, models.Entry{URI: broadcastify.EntryURI(href), Start: start, End: end})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return entries, nil
}
