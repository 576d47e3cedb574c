package broadcastify

import "fmt"

// The archive page renders a bootstrap-datepicker calendar next to a
// DataTables list of recordings for the selected day. The selectors below
// are the whole contract between barchive and that markup.
const (
	SelectorCalendar   = "div.datepicker-days table.table-condensed"
	SelectorMonthLabel = "div.datepicker-days th.datepicker-switch"
	SelectorPrevMonth  = "div.datepicker-days th.prev"
	SelectorNextMonth  = "div.datepicker-days th.next"
	SelectorToday      = "div.datepicker-days th.today"
	SelectorActiveDay  = "div.datepicker-days td.active"
	SelectorDayCells   = "tbody td"

	SelectorTimesTable = "table#archiveTimes"
	SelectorTimesRows  = "table#archiveTimes tbody tr"
	SelectorNoData     = "td.dataTables_empty"

	SelectorFeedName            = "span.px13"
	SelectorMediaLink           = `a[href*=".mp3"]`
	SelectorSubscriptionWarning = "div.alert-warning"

	// LoginFailedMarker appears in the page returned by a rejected login
	LoginFailedMarker = "Log in Failed!"

	// MonthLabelLayout parses the calendar header, e.g. "June 2024"
	MonthLabelLayout = "January 2006"
	// EntryTimeLayout parses the start and end cells, e.g. "11:45 PM"
	EntryTimeLayout = "3:04 PM"
)

// DayCellSelector addresses one cell of the displayed month grid (1-based)
func DayCellSelector(row, col int) string {
	return fmt.Sprintf("%s tbody tr:nth-child(%d) td:nth-child(%d)", SelectorCalendar, row, col)
}

// InstallObserverScript records the time of the last change to the entries
// table in window.lastRefresh. It is idempotent and evaluates to false when
// the table is not on the page.
const InstallObserverScript = `(function () {
  if (window.__barchiveObserver) { return true; }
  var target = document.querySelector('table#archiveTimes');
  if (!target) { return false; }
  window.lastRefresh = window.lastRefresh || 0;
  new MutationObserver(function () { window.lastRefresh = Date.now(); })
    .observe(target, { childList: true, subtree: true, characterData: true });
  window.__barchiveObserver = true;
  return true;
})()`

// LastRefreshScript evaluates to window.lastRefresh in epoch milliseconds, or 0
const LastRefreshScript = `window.lastRefresh || 0`
