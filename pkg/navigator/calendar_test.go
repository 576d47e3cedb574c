package navigator

import (
	"context"
	"errors"
	"testing"
	"time"

	"barchive/pkg/broadcastify"
	"barchive/pkg/browser/browsertest"
	"barchive/pkg/config"
	errs "barchive/pkg/errors"
	"barchive/pkg/logger"
	"barchive/pkg/models"
	"barchive/pkg/poll"
	"barchive/pkg/throttle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(clicks []string, selector string) int {
	n := 0
	for _, c := range clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func TestDiscoverRange(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())

	rng, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.NewDate(2024, 1, 1), rng.Start)
	assert.Equal(t, models.NewDate(2024, 6, 30), rng.End)
	assert.Equal(t, rng, cal.Range())
	assert.Equal(t, models.NewDate(2024, 6, 1), cal.DisplayedMonth())
	assert.Equal(t, models.NewDate(2024, 6, 30), cal.ActiveDate())

	clicks := b.Clicks()
	// five steps back to January, then one rejected click on the hidden control
	assert.Equal(t, 6, count(clicks, broadcastify.SelectorPrevMonth))
	assert.Equal(t, 1, count(clicks, broadcastify.SelectorToday))
}

func TestDiscoverRangeStartMidMonth(t *testing.T) {
	a := firstHalf2024()
	a.Start = models.NewDate(2024, 4, 17)
	_, cal, _ := newTestPage(t, a)

	rng, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, 4, 17), rng.Start)
}

func TestLoadUnavailableArchive(t *testing.T) {
	a := firstHalf2024()
	b := browsertest.New(a)
	b.MakeUnavailable()
	require.NoError(t, b.Navigate(context.Background(), "about:blank"))

	cal := NewCalendar(b, throttle.New(config.ThrottleConfig{}), testBrowserConfig(), nil)
	err := cal.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArchiveUnavailable))
	assert.Equal(t, errs.ErrorTypeUnavailable, errs.TypeOf(err))
}

func TestGoToOutOfRangeClicksNothing(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	b.ResetClicks()

	for _, d := range []time.Time{models.NewDate(2024, 7, 1), models.NewDate(2023, 12, 31)} {
		moved, err := cal.GoTo(context.Background(), d)
		require.Error(t, err)
		assert.False(t, moved)
		assert.True(t, errors.Is(err, ErrOutOfRange))
		assert.Equal(t, errs.ErrorTypeRange, errs.TypeOf(err))
	}
	assert.Empty(t, b.Clicks())
}

func TestGoToActiveDateIsNoop(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	b.ResetClicks()

	moved, err := cal.GoTo(context.Background(), models.NewDate(2024, 6, 30))
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, b.Clicks())
}

func TestGoToEarlierMonth(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	b.ResetClicks()

	target := models.NewDate(2024, 3, 15)
	moved, err := cal.GoTo(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, target, cal.ActiveDate())
	assert.Equal(t, models.NewDate(2024, 3, 1), cal.DisplayedMonth())
	assert.Equal(t, target, b.ActiveDate())

	// March 1st 2024 is a Friday, so the 15th sits in row 3, column 6
	assert.Equal(t, []string{
		broadcastify.SelectorPrevMonth,
		broadcastify.SelectorPrevMonth,
		broadcastify.SelectorPrevMonth,
		broadcastify.DayCellSelector(3, 6),
	}, b.Clicks())

	// and forward again
	moved, err = cal.GoTo(context.Background(), models.NewDate(2024, 5, 2))
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, models.NewDate(2024, 5, 2), b.ActiveDate())
	assert.Equal(t, 2, count(b.Clicks(), broadcastify.SelectorNextMonth))
}

func TestGoToWaitsForSlowRender(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	b.SetRenderLag(4)

	for _, d := range []time.Time{models.NewDate(2024, 6, 12), models.NewDate(2024, 4, 30), models.NewDate(2024, 5, 1)} {
		moved, err := cal.GoTo(context.Background(), d)
		require.NoError(t, err, d)
		assert.True(t, moved)
		assert.Equal(t, d, cal.ActiveDate())
	}
}

func TestGoToTimesOutWhenPageNeverSettles(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)
	b.SetRenderLag(1 << 20)

	_, err = cal.GoTo(context.Background(), models.NewDate(2024, 6, 12))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNavigation, errs.TypeOf(err))
	assert.True(t, errors.Is(err, poll.ErrTimeout))
}

func TestGoToRequiresRange(t *testing.T) {
	_, cal, _ := newTestPage(t, firstHalf2024())
	require.NoError(t, cal.Load(context.Background()))

	_, err := cal.GoTo(context.Background(), models.NewDate(2024, 6, 12))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNavigation, errs.TypeOf(err))
}

func TestSetRangeSkipsDiscovery(t *testing.T) {
	b, cal, _ := newTestPage(t, firstHalf2024())
	require.NoError(t, cal.Load(context.Background()))
	cal.SetRange(models.DateRange{Start: models.NewDate(2024, 1, 1), End: models.NewDate(2024, 6, 30)})

	moved, err := cal.GoTo(context.Background(), models.NewDate(2024, 6, 29))
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{broadcastify.DayCellSelector(5, 7)}, b.Clicks())
}

func TestDateNavigationIsThrottled(t *testing.T) {
	b := browsertest.New(firstHalf2024())
	require.NoError(t, b.Navigate(context.Background(), "about:blank"))

	var waits []throttle.Class
	th := throttle.New(config.ThrottleConfig{}, throttle.WithObserver(func(c throttle.Class, _ time.Duration) {
		waits = append(waits, c)
	}))
	cal := NewCalendar(b, th, testBrowserConfig(), logger.NewNopLogger())
	_, err := cal.DiscoverRange(context.Background())
	require.NoError(t, err)

	assert.Len(t, waits, len(b.Clicks()))
	for _, c := range waits {
		assert.Equal(t, throttle.ClassDateNavigation, c)
	}
}
