// Package poll waits for a condition on asynchronously rendered state.
//
// A Condition is probed repeatedly until it reports true or the configured
// timeout passes. A probe that returns an error counts as "not yet": the
// error is logged at debug level and kept as the cause of an eventual
// timeout, but it never ends the wait early. Only cancellation of the
// caller's context ends it sooner.
//
// Polling is a completion wait, not a retry of failed work. A timeout is
// returned as a *TimeoutError matching ErrTimeout and is meant to be
// treated as a hard failure by the caller.
//
//	err := poll.Until(ctx, poll.Config{
//		Name:     "month label changed",
//		Timeout:  5 * time.Second,
//		Interval: poll.Constant(100 * time.Millisecond),
//	}, func(ctx context.Context) (bool, error) {
//		label, err := b.Text(ctx, selector)
//		return label != previous, err
//	})
package poll
