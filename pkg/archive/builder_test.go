package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "barchive/pkg/errors"
	"barchive/pkg/models"
	"barchive/pkg/navigator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func june(day int) time.Time { return models.NewDate(2024, 6, day) }

func TestBuildOutsideRangeClicksNothing(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	err := a.Build(context.Background(), DateSelector{Start: models.NewDate(2024, 7, 1), End: models.NewDate(2024, 7, 5)}, BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, navigator.ErrOutOfRange))
	assert.Equal(t, errs.ErrorTypeRange, errs.TypeOf(err))
	assert.Empty(t, f.page.Clicks())
	assert.Empty(t, a.Entries())
}

func TestBuildVisitsDatesLatestFirst(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	require.NoError(t, a.Build(context.Background(), DateSelector{Start: june(25), End: june(30)}, BuildOptions{}))

	assert.Equal(t, []time.Time{june(30), june(29), june(28), june(27), june(26), june(25)}, f.obs.dates)

	entries := a.Entries()
	require.Len(t, entries, 18)
	assert.Equal(t, "3321-20240630-00", entries[0].URI)
	assert.Equal(t, "3321-20240625-02", entries[17].URI)

	// Rows of one date follow table order, latest first, and never overlap.
	for i := 1; i < 3; i++ {
		assert.True(t, entries[i].End.Equal(entries[i-1].Start), "row %d", i)
	}
	assert.Equal(t, time.Date(2024, 6, 30, 23, 45, 0, 0, time.UTC), entries[0].End)

	assert.Equal(t, time.Date(2024, 6, 25, 22, 15, 0, 0, time.UTC), a.EarliestEntry())
	assert.Equal(t, time.Date(2024, 6, 30, 23, 45, 0, 0, time.UTC), a.LatestEntry())
	assert.True(t, f.page.Closed())
}

func TestBuildChronological(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	require.NoError(t, a.Build(context.Background(), DateSelector{Start: june(28), End: june(30)}, BuildOptions{Chronological: true}))

	assert.Equal(t, []time.Time{june(28), june(29), june(30)}, f.obs.dates)
	entries := a.Entries()
	require.Len(t, entries, 9)
	assert.Equal(t, "3321-20240628-00", entries[0].URI)
	assert.True(t, a.Chronological())
}

func TestBuildClampsPartialWindow(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	require.NoError(t, a.Build(context.Background(), DateSelector{Start: june(29), End: models.NewDate(2024, 7, 10)}, BuildOptions{}))

	assert.Equal(t, []time.Time{june(30), june(29)}, f.obs.dates)
	assert.Len(t, a.Entries(), 6)
	assert.True(t, f.log.Contains("clamped"))
}

func TestBuildDaysBackClampedToSpan(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	require.NoError(t, a.Build(context.Background(), DateSelector{DaysBack: intPtr(1000)}, BuildOptions{}))

	span := a.DateRange().Days()
	require.Len(t, f.obs.dates, span+1)
	assert.Equal(t, june(30), f.obs.dates[0])
	assert.Equal(t, models.NewDate(2024, 1, 1), f.obs.dates[span])
	assert.Len(t, a.Entries(), 21)
	assert.NotEmpty(t, f.log.MessagesAt("WARN"))
}

func TestBuildDaysBackCountsFromLatest(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	require.NoError(t, a.Build(context.Background(), DateSelector{DaysBack: intPtr(2)}, BuildOptions{}))
	assert.Equal(t, []time.Time{june(30), june(29), june(28)}, f.obs.dates)
}

func TestBuildSelectorErrors(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)
	ctx := context.Background()

	tests := []struct {
		name string
		sel  DateSelector
	}{
		{"days back with start", DateSelector{Start: june(1), DaysBack: intPtr(3)}},
		{"days back with end", DateSelector{End: june(1), DaysBack: intPtr(3)}},
		{"negative days back", DateSelector{DaysBack: intPtr(-1)}},
		{"start after end", DateSelector{Start: june(10), End: june(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Build(ctx, tt.sel, BuildOptions{})
			require.Error(t, err)
			assert.Equal(t, errs.ErrorTypeUsage, errs.TypeOf(err))
		})
	}
	assert.Empty(t, f.page.Clicks())
}

func TestBuildTwiceNeedsRebuild(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)
	ctx := context.Background()

	require.NoError(t, a.Build(ctx, DateSelector{DaysBack: intPtr(0)}, BuildOptions{}))
	first := a.Entries()
	require.Len(t, first, 3)

	err := a.Build(ctx, DateSelector{DaysBack: intPtr(1)}, BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyBuilt))
	assert.Equal(t, first, a.Entries())

	require.NoError(t, a.Build(ctx, DateSelector{DaysBack: intPtr(1)}, BuildOptions{Rebuild: true}))
	assert.Len(t, a.Entries(), 6)
}

func TestFailedBuildKeepsPreviousEntries(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)
	ctx := context.Background()

	require.NoError(t, a.Build(ctx, DateSelector{DaysBack: intPtr(0)}, BuildOptions{}))
	before := a.Entries()

	f.page.FreezeTable()
	err := a.Build(ctx, DateSelector{Start: june(25), End: june(30)}, BuildOptions{Rebuild: true})
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNavigation, errs.TypeOf(err))
	assert.Equal(t, before, a.Entries())
	assert.True(t, f.page.Closed())
}

func TestBuildCanceled(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Build(ctx, DateSelector{Start: june(25), End: june(30)}, BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, a.Entries())
}
