// Package browsertest provides a scripted browser that renders the archive
// page's calendar widget and entries table from in-memory data.
//
// It follows bootstrap-datepicker's rendering rules closely enough for the
// calendar navigator: a six-week grid with old/new/active/disabled day
// classes, prev/next controls hidden at the ends of the archive, and a
// "today" control that jumps back to the latest day.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser"
)

// Row is one line of the entries table as the provider renders it
type Row struct {
	Start string
	End   string
	URI   string
}

// Archive is the data behind the fake page. Rows are keyed by YYYY-MM-DD.
type Archive struct {
	Start time.Time
	End   time.Time
	Rows  map[string][]Row
}

type view struct {
	month     time.Time // first of the displayed month
	active    time.Time // zero when nothing is selected
	tableDate time.Time
	refreshed int64 // window.lastRefresh in epoch ms
}

// Browser is an in-memory browser.Browser. It is safe for concurrent use.
type Browser struct {
	mu      sync.Mutex
	archive Archive

	shown   view
	pending *view
	lag     int
	lagLeft int

	frozenTable bool
	unavailable bool
	observer    bool
	closed      bool

	url    string
	clicks []string
	reads  int
}

var dayCellPattern = regexp.MustCompile(`tr:nth-child\((\d+)\) td:nth-child\((\d+)\)$`)

// New returns a browser serving archive. Navigate must be called first.
func New(archive Archive) *Browser {
	if archive.Rows == nil {
		archive.Rows = map[string][]Row{}
	}
	return &Browser{archive: archive}
}

// Opener returns a browser.Opener that always hands out b
func (b *Browser) Opener() browser.Opener {
	return browser.OpenerFunc(func(ctx context.Context) (browser.Browser, error) {
		b.mu.Lock()
		b.closed = false
		b.mu.Unlock()
		return b, nil
	})
}

// SetRenderLag delays every re-render by n page reads, imitating the
// asynchronous widget update after a click
func (b *Browser) SetRenderLag(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lag = n
}

// FreezeTable stops the entries table from ever refreshing
func (b *Browser) FreezeTable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozenTable = true
}

// MakeUnavailable renders the calendar without an active day
func (b *Browser) MakeUnavailable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = true
}

// Clicks returns every clicked selector in order
func (b *Browser) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clicks...)
}

// ResetClicks forgets recorded clicks
func (b *Browser) ResetClicks() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clicks = nil
}

// URL returns the last navigated URL
func (b *Browser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Closed reports whether Close was called since the last Open
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// ActiveDate returns the selected date as currently rendered
func (b *Browser) ActiveDate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown.active
}

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.url = url
	b.pending = nil
	b.observer = false
	b.shown = view{month: firstOfMonth(b.archive.End), tableDate: b.archive.End}
	if !b.unavailable {
		b.shown.active = b.archive.End
	}
	return nil
}

// read advances any pending re-render by one page read
func (b *Browser) read() view {
	b.reads++
	if b.pending != nil {
		if b.lagLeft > 0 {
			b.lagLeft--
		} else {
			b.shown = *b.pending
			b.pending = nil
		}
	}
	return b.shown
}

// target returns the state the page is heading to
func (b *Browser) target() view {
	if b.pending != nil {
		return *b.pending
	}
	return b.shown
}

func (b *Browser) schedule(next view) {
	if !b.frozenTable && !next.active.IsZero() && !next.active.Equal(next.tableDate) {
		next.tableDate = next.active
		next.refreshed = nowMillis()
	}
	if b.lag == 0 {
		b.shown = next
		b.pending = nil
		return
	}
	b.pending = &next
	b.lagLeft = b.lag
}

func (b *Browser) inArchive(d time.Time) bool {
	return !d.Before(b.archive.Start) && !d.After(b.archive.End)
}

func (b *Browser) prevHidden(month time.Time) bool {
	return !month.After(firstOfMonth(b.archive.Start))
}

func (b *Browser) nextHidden(month time.Time) bool {
	return !month.Before(firstOfMonth(b.archive.End))
}

// gridStart returns the Sunday on or before the first of month
func gridStart(month time.Time) time.Time {
	return month.AddDate(0, 0, -int(month.Weekday()))
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clicks = append(b.clicks, selector)
	next := b.target()

	switch selector {
	case broadcastify.SelectorPrevMonth:
		if b.prevHidden(next.month) {
			return fmt.Errorf("%w: %s", browser.ErrNotInteractable, selector)
		}
		next.month = next.month.AddDate(0, -1, 0)
	case broadcastify.SelectorNextMonth:
		if b.nextHidden(next.month) {
			return fmt.Errorf("%w: %s", browser.ErrNotInteractable, selector)
		}
		next.month = next.month.AddDate(0, 1, 0)
	case broadcastify.SelectorToday:
		next.month = firstOfMonth(b.archive.End)
		if !b.unavailable {
			next.active = b.archive.End
		}
	default:
		m := dayCellPattern.FindStringSubmatch(selector)
		if m == nil || !strings.HasPrefix(selector, broadcastify.SelectorCalendar) {
			return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
		}
		row, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		if row < 1 || row > 6 || col < 1 || col > 7 {
			return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
		}
		day := gridStart(next.month).AddDate(0, 0, (row-1)*7+col-1)
		if !b.inArchive(day) {
			return fmt.Errorf("%w: %s", browser.ErrNotInteractable, selector)
		}
		next.active = day
		next.month = firstOfMonth(day)
	}

	b.schedule(next)
	return nil
}

func (b *Browser) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.read()
	switch selector {
	case broadcastify.SelectorMonthLabel:
		return v.month.Format(broadcastify.MonthLabelLayout), nil
	case broadcastify.SelectorActiveDay:
		start := gridStart(v.month)
		for i := 0; i < 42; i++ {
			if d := start.AddDate(0, 0, i); !v.active.IsZero() && d.Equal(v.active) {
				return strconv.Itoa(d.Day()), nil
			}
		}
		return "", fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return "", fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
}

func (b *Browser) Evaluate(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var result any
	switch script {
	case broadcastify.InstallObserverScript:
		b.observer = true
		result = true
	case broadcastify.LastRefreshScript:
		v := b.read()
		if b.observer {
			result = v.refreshed
		} else {
			result = 0
		}
	default:
		return fmt.Errorf("unsupported script: %.40q", script)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (b *Browser) Markup(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.read()
	var sb strings.Builder
	sb.WriteString(`<html><head><title>Archives</title></head><body>`)
	b.renderCalendar(&sb, v)
	b.renderTable(&sb, v)
	sb.WriteString(`</body></html>`)
	return sb.String(), nil
}

func (b *Browser) renderCalendar(sb *strings.Builder, v view) {
	hidden := func(h bool) string {
		if h {
			return ` style="visibility: hidden;"`
		}
		return ` style="visibility: visible;"`
	}

	sb.WriteString(`<div class="datepicker datepicker-inline"><div class="datepicker-days" style="display: block;">`)
	sb.WriteString(`<table class="table-condensed"><thead><tr>`)
	fmt.Fprintf(sb, `<th class="prev"%s>«</th>`, hidden(b.prevHidden(v.month)))
	fmt.Fprintf(sb, `<th colspan="5" class="datepicker-switch">%s</th>`, v.month.Format(broadcastify.MonthLabelLayout))
	fmt.Fprintf(sb, `<th class="next"%s>»</th>`, hidden(b.nextHidden(v.month)))
	sb.WriteString(`</tr><tr><th class="dow">Su</th><th class="dow">Mo</th><th class="dow">Tu</th><th class="dow">We</th><th class="dow">Th</th><th class="dow">Fr</th><th class="dow">Sa</th></tr></thead><tbody>`)

	day := gridStart(v.month)
	for row := 0; row < 6; row++ {
		sb.WriteString(`<tr>`)
		for col := 0; col < 7; col++ {
			var classes []string
			switch {
			case day.Before(v.month):
				classes = append(classes, "old")
			case day.Month() != v.month.Month():
				classes = append(classes, "new")
			}
			if !v.active.IsZero() && day.Equal(v.active) {
				classes = append(classes, "active")
			}
			if !b.inArchive(day) {
				classes = append(classes, "disabled")
			}
			classes = append(classes, "day")
			fmt.Fprintf(sb, `<td class="%s">%d</td>`, strings.Join(classes, " "), day.Day())
			day = day.AddDate(0, 0, 1)
		}
		sb.WriteString(`</tr>`)
	}

	sb.WriteString(`</tbody><tfoot><tr><th colspan="7" class="today" style="display: table-cell;">Today</th></tr></tfoot></table></div></div>`)
}

func (b *Browser) renderTable(sb *strings.Builder, v view) {
	sb.WriteString(`<table id="archiveTimes" class="table table-striped table-bordered hover dataTable no-footer">`)
	sb.WriteString(`<thead><tr><th>Start</th><th>End</th><th></th></tr></thead><tbody>`)

	rows := b.archive.Rows[dateKey(v.tableDate)]
	if v.active.IsZero() {
		rows = nil
	}
	if len(rows) == 0 {
		sb.WriteString(`<tr class="odd"><td valign="top" colspan="3" class="dataTables_empty">No data available in table</td></tr>`)
	}
	for _, r := range rows {
		fmt.Fprintf(sb, `<tr class="cursor-link"><td>%s</td><td>%s</td><td><a href="/archives/download/%s">Download</a></td></tr>`, r.Start, r.End, r.URI)
	}
	sb.WriteString(`</tbody></table>`)
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// HalfHourRows builds n rows for date the way the provider lists them:
// most recent first, each 30 minutes long, the first ending at 11:45 PM.
// With 48 rows the last one starts at 11:45 PM the previous evening.
func HalfHourRows(prefix string, date time.Time, n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		end := 23*60 + 45 - 30*i
		start := end - 30
		rows = append(rows, Row{
			Start: clock(start),
			End:   clock(end),
			URI:   fmt.Sprintf("%s-%s-%02d", prefix, date.Format("20060102"), i),
		})
	}
	return rows
}

func clock(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format(broadcastify.EntryTimeLayout)
}
