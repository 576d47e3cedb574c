package throttle

import (
	"context"
	"testing"
	"time"

	"barchive/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestThrottle() (*Throttle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)}
	cfg := config.ThrottleConfig{
		Page:           2 * time.Second,
		File:           5 * time.Second,
		DateNavigation: 100 * time.Millisecond,
	}
	return New(cfg, WithClock(clock)), clock
}

func TestFirstCallDoesNotWait(t *testing.T) {
	th, clock := newTestThrottle()

	require.NoError(t, th.Wait(context.Background(), ClassPage))
	assert.Empty(t, clock.sleeps)
}

func TestWaitsRemainderOfInterval(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx, ClassPage))
	clock.advance(500 * time.Millisecond)
	require.NoError(t, th.Wait(ctx, ClassPage))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 1500*time.Millisecond, clock.sleeps[0])
}

func TestNoWaitWhenIntervalAlreadyElapsed(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx, ClassPage))
	clock.advance(3 * time.Second)
	require.NoError(t, th.Wait(ctx, ClassPage))

	assert.Empty(t, clock.sleeps)
}

func TestClassesAreIndependent(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx, ClassPage))
	require.NoError(t, th.Wait(ctx, ClassDateNavigation))
	assert.Empty(t, clock.sleeps, "a page call does not delay date navigation")

	require.NoError(t, th.Wait(ctx, ClassDateNavigation))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 100*time.Millisecond, clock.sleeps[0])
}

func TestFileIntervalCollapsesAfterSkippedFile(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	assert.Equal(t, 2*time.Second, th.Interval(ClassFile), "nothing fetched yet")

	require.NoError(t, th.Wait(ctx, ClassFile))
	th.MarkFileFetched(true)
	assert.Equal(t, 5*time.Second, th.Interval(ClassFile))

	require.NoError(t, th.Wait(ctx, ClassFile))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 5*time.Second, clock.sleeps[0])

	th.MarkFileFetched(false)
	require.NoError(t, th.Wait(ctx, ClassFile))
	require.Len(t, clock.sleeps, 2)
	assert.Equal(t, 2*time.Second, clock.sleeps[1])
}

func TestWaitForOverridesInterval(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx, ClassPage))
	require.NoError(t, th.WaitFor(ctx, ClassPage, 10*time.Second))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 10*time.Second, clock.sleeps[0])
}

func TestObserverSeesEveryWait(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var seen []time.Duration
	th := New(config.ThrottleConfig{Page: time.Second}, WithClock(clock), WithObserver(func(c Class, d time.Duration) {
		assert.Equal(t, ClassPage, c)
		seen = append(seen, d)
	}))

	ctx := context.Background()
	require.NoError(t, th.Wait(ctx, ClassPage))
	require.NoError(t, th.Wait(ctx, ClassPage))

	assert.Equal(t, []time.Duration{0, time.Second}, seen)
}

func TestCancelledContext(t *testing.T) {
	th, _ := newTestThrottle()
	require.NoError(t, th.Wait(context.Background(), ClassPage))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th.Wait(ctx, ClassPage), context.Canceled)
}

func TestReset(t *testing.T) {
	th, clock := newTestThrottle()
	ctx := context.Background()

	require.NoError(t, th.Wait(ctx, ClassPage))
	th.MarkFileFetched(true)
	th.Reset()
	require.NoError(t, th.Wait(ctx, ClassPage))

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 2*time.Second, th.Interval(ClassFile))
}

func TestRealClockPacing(t *testing.T) {
	th := New(config.ThrottleConfig{DateNavigation: 20 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, th.Wait(ctx, ClassDateNavigation))
	require.NoError(t, th.Wait(ctx, ClassDateNavigation))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
