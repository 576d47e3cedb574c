package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
	"barchive/pkg/poll"

	"github.com/PuerkitoBio/goquery"
)

// The conditions below are the page states navigation waits for. Each probe
// reads the live page, so a probe error only means "not yet".

// CalendarRendered holds once the month label is on the page
func CalendarRendered(b browser.Browser) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		label, err := b.Text(ctx, broadcastify.SelectorMonthLabel)
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(label) != "", nil
	}
}

// TableRendered holds once the entries table has at least one row,
// the "no data" row included
func TableRendered(b browser.Browser) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		doc, err := page(ctx, b)
		if err != nil {
			return false, err
		}
		return doc.Find(broadcastify.SelectorTimesRows).Length() > 0, nil
	}
}

// MonthLabelChanged holds once the calendar header differs from prev
func MonthLabelChanged(b browser.Browser, prev string) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		label, err := b.Text(ctx, broadcastify.SelectorMonthLabel)
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(label) != prev, nil
	}
}

// ActiveDayChanged holds once the selected cell's text differs from prev.
// No selected cell reads as "".
func ActiveDayChanged(b browser.Browser, prev string) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		day, err := activeDayText(ctx, b)
		if err != nil {
			return false, err
		}
		return day != prev, nil
	}
}

// ActiveDateIs holds once the calendar shows date's month with date selected
func ActiveDateIs(b browser.Browser, date time.Time) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		markup, err := b.Markup(ctx)
		if err != nil {
			return false, err
		}
		view, err := ParseMonthView(markup)
		if err != nil {
			return false, err
		}
		return view.ActiveDate().Equal(date), nil
	}
}

// FirstEntryIDChanged holds once the table's first entry differs from prev.
// An empty table reads as "".
func FirstEntryIDChanged(b browser.Browser, prev string) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		doc, err := page(ctx, b)
		if err != nil {
			return false, err
		}
		return firstEntryID(doc) != prev, nil
	}
}

// PageMutatedSince holds once the table observer saw a change at or after since
func PageMutatedSince(b browser.Browser, since time.Time) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		var last float64
		if err := b.Evaluate(ctx, broadcastify.LastRefreshScript, &last); err != nil {
			return false, err
		}
		return int64(last) >= since.UnixMilli(), nil
	}
}

// AnyOf holds as soon as one of conds holds. Errors are returned only when
// no condition held.
func AnyOf(conds ...poll.Condition) poll.Condition {
	return func(ctx context.Context) (bool, error) {
		var errs []error
		for _, cond := range conds {
			ok, err := cond(ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, errors.Join(errs...)
	}
}

func activeDayText(ctx context.Context, b browser.Browser) (string, error) {
	day, err := b.Text(ctx, broadcastify.SelectorActiveDay)
	if errors.Is(err, browser.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(day), nil
}

func page(ctx context.Context, b browser.Browser) (*goquery.Document, error) {
	markup, err := b.Markup(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

func firstEntryID(doc *goquery.Document) string {
	row := doc.Find(broadcastify.SelectorTimesRows).First()
	if row.Find(broadcastify.SelectorNoData).Length() > 0 {
		return ""
	}
	href, _ := row.Find("a").First().Attr("href")
	if href == "" {
		return ""
	}
	return broadcastify.EntryURI(href)
}
