package navigator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// DayStatus classifies a calendar cell by its class set
type DayStatus int

const (
	StatusDay         DayStatus = iota // displayed month, has data
	StatusActive                       // displayed month, selected
	StatusDisabled                     // displayed month, outside the archive
	StatusOld                          // previous month, has data
	StatusOldDisabled                  // previous month, outside the archive
	StatusNew                          // next month, has data
	StatusNewDisabled                  // next month, outside the archive
)

func (s DayStatus) String() string {
	switch s {
	case StatusDay:
		return "day"
	case StatusActive:
		return "active"
	case StatusDisabled:
		return "disabled"
	case StatusOld:
		return "old"
	case StatusOldDisabled:
		return "old-disabled"
	case StatusNew:
		return "new"
	case StatusNewDisabled:
		return "new-disabled"
	}
	return "unknown"
}

// InDisplayedMonth reports whether the cell belongs to the month in the header
func (s DayStatus) InDisplayedMonth() bool {
	return s == StatusDay || s == StatusActive || s == StatusDisabled
}

// HasData reports whether the day can be selected
func (s DayStatus) HasData() bool {
	return s == StatusDay || s == StatusActive || s == StatusOld || s == StatusNew
}

// ClassifyDay maps a cell's class attribute to its status. The adjacent-month
// markers win over "active", which bootstrap also puts on an adjacent-month
// cell when it shows the selected date.
func ClassifyDay(class string) DayStatus {
	set := make(map[string]bool)
	for _, c := range strings.Fields(class) {
		set[c] = true
	}

	switch {
	case set["old"] && set["disabled"]:
		return StatusOldDisabled
	case set["old"]:
		return StatusOld
	case set["new"] && set["disabled"]:
		return StatusNewDisabled
	case set["new"]:
		return StatusNew
	case set["disabled"]:
		return StatusDisabled
	case set["active"]:
		return StatusActive
	}
	return StatusDay
}

// DayCell is one cell of the calendar grid. Row and Col are 1-based.
type DayCell struct {
	Row    int
	Col    int
	Day    int
	Status DayStatus
}

// Selector addresses the cell for a click
func (c DayCell) Selector() string {
	return broadcastify.DayCellSelector(c.Row, c.Col)
}

// MonthView is the parsed state of the calendar widget
type MonthView struct {
	Month time.Time
	Cells []DayCell
	// ActiveDay is the selected day of Month, 0 when none is selected there
	ActiveDay  int
	MinDataDay int
	MaxDataDay int
}

// ActiveDate returns the selected date, zero when Month has none
func (v MonthView) ActiveDate() time.Time {
	if v.ActiveDay == 0 {
		return time.Time{}
	}
	return v.Month.AddDate(0, 0, v.ActiveDay-1)
}

// CellFor finds the clickable cell for a day of the displayed month. A plain
// data cell is preferred, the selected cell is the fallback.
func (v MonthView) CellFor(day int) (DayCell, bool) {
	for _, want := range []DayStatus{StatusDay, StatusActive} {
		for _, c := range v.Cells {
			if c.Day == day && c.Status == want {
				return c, true
			}
		}
	}
	return DayCell{}, false
}

// ParseMonthView reads the calendar out of a page's markup
func ParseMonthView(markup string) (MonthView, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return MonthView{}, fmt.Errorf("failed to parse page: %w", err)
	}

	calendar := doc.Find(broadcastify.SelectorCalendar).First()
	if calendar.Length() == 0 {
		return MonthView{}, fmt.Errorf("calendar widget not on page")
	}

	label := strings.TrimSpace(doc.Find(broadcastify.SelectorMonthLabel).First().Text())
	month, err := time.Parse(broadcastify.MonthLabelLayout, label)
	if err != nil {
		return MonthView{}, fmt.Errorf("unrecognized month label %q: %w", label, err)
	}

	view := MonthView{Month: models.FirstOfMonth(month)}
	var parseErr error
	calendar.Find(broadcastify.SelectorDayCells).EachWithBreak(func(i int, s *goquery.Selection) bool {
		day, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			parseErr = fmt.Errorf("calendar cell %d has no day number: %w", i, err)
			return false
		}
		class, _ := s.Attr("class")
		cell := DayCell{Row: i/7 + 1, Col: i%7 + 1, Day: day, Status: ClassifyDay(class)}
		view.Cells = append(view.Cells, cell)

		if !cell.Status.InDisplayedMonth() || !cell.Status.HasData() {
			return true
		}
		if cell.Status == StatusActive {
			view.ActiveDay = day
		}
		if view.MinDataDay == 0 || day < view.MinDataDay {
			view.MinDataDay = day
		}
		if day > view.MaxDataDay {
			view.MaxDataDay = day
		}
		return true
	})
	if parseErr != nil {
		return MonthView{}, parseErr
	}
	if len(view.Cells) == 0 {
		return MonthView{}, fmt.Errorf("calendar for %s has no day cells", label)
	}
	return view, nil
}
