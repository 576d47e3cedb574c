package poll

import (
	"context"
	"time"
)

// IntervalStrategy decides how long to sleep between two probes
type IntervalStrategy interface {
	// Next returns the sleep after the given probe attempt (1-based)
	Next(attempt int) time.Duration
}

// ConstantInterval sleeps the same amount between every probe
type ConstantInterval struct {
	Delay time.Duration
}

func (c ConstantInterval) Next(attempt int) time.Duration {
	return c.Delay
}

// Constant returns a ConstantInterval
func Constant(d time.Duration) ConstantInterval {
	return ConstantInterval{Delay: d}
}

// ExponentialInterval doubles the sleep after each probe, up to Max.
// It suits slow initial page loads where early probes are likely wasted.
type ExponentialInterval struct {
	Base time.Duration
	Max  time.Duration
}

func (e ExponentialInterval) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
	}
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
