package navigator

import (
	"context"
	"testing"

	"barchive/pkg/browser/browsertest"
	"barchive/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDay(t *testing.T) {
	tests := []struct {
		class string
		want  DayStatus
	}{
		{"day", StatusDay},
		{"active day", StatusActive},
		{"disabled day", StatusDisabled},
		{"old day", StatusOld},
		{"old disabled day", StatusOldDisabled},
		{"new day", StatusNew},
		{"new disabled day", StatusNewDisabled},
		{"old active day", StatusOld},
		{"  day   active ", StatusActive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyDay(tt.class), tt.class)
	}
}

func TestParseMonthView(t *testing.T) {
	b := browsertest.New(browsertest.Archive{
		Start: models.NewDate(2024, 6, 10),
		End:   models.NewDate(2024, 6, 25),
	})
	require.NoError(t, b.Navigate(context.Background(), "about:blank"))

	markup, err := b.Markup(context.Background())
	require.NoError(t, err)

	view, err := ParseMonthView(markup)
	require.NoError(t, err)

	assert.Equal(t, models.NewDate(2024, 6, 1), view.Month)
	assert.Len(t, view.Cells, 42)
	assert.Equal(t, 25, view.ActiveDay)
	assert.Equal(t, models.NewDate(2024, 6, 25), view.ActiveDate())
	assert.Equal(t, 10, view.MinDataDay)
	assert.Equal(t, 25, view.MaxDataDay)

	// June 2024 starts on a Saturday, so the grid opens on May 26
	first := view.Cells[0]
	assert.Equal(t, DayCell{Row: 1, Col: 1, Day: 26, Status: StatusOldDisabled}, first)

	cell, ok := view.CellFor(12)
	require.True(t, ok)
	assert.Equal(t, StatusDay, cell.Status)
	assert.Equal(t, 3, cell.Row)
	assert.Equal(t, 4, cell.Col)

	cell, ok = view.CellFor(25)
	require.True(t, ok)
	assert.Equal(t, StatusActive, cell.Status)

	_, ok = view.CellFor(5)
	assert.False(t, ok, "disabled days are not selectable")
}

func TestParseMonthViewWithoutCalendar(t *testing.T) {
	_, err := ParseMonthView("<html><body><p>maintenance</p></body></html>")
	assert.Error(t, err)
}
