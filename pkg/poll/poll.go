package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barchive/pkg/logger"
)

// DefaultInterval is used when Config.Interval is nil
const DefaultInterval = 100 * time.Millisecond

// ErrTimeout matches every *TimeoutError
var ErrTimeout = errors.New("condition not met before timeout")

// Condition probes the current state. An error means the state could not be
// read right now and is treated exactly like false.
type Condition func(ctx context.Context) (bool, error)

// Config controls a single wait
type Config struct {
	// Name describes the awaited condition in logs and errors
	Name     string
	Timeout  time.Duration
	Interval IntervalStrategy
	Logger   logger.Logger
}

// TimeoutError is returned when the condition stayed false for the whole timeout
type TimeoutError struct {
	Name     string
	Timeout  time.Duration
	Attempts int
	// LastErr is the last probe error seen, if any
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%q not met within %s after %d probes", e.Name, e.Timeout, e.Attempts)
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last probe error: %v)", e.LastErr)
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// Until probes cond until it holds, the timeout passes, or ctx is done.
// The condition is always probed at least once, even with a zero timeout.
func Until(ctx context.Context, cfg Config, cond Condition) error {
	interval := cfg.Interval
	if interval == nil {
		interval = Constant(DefaultInterval)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	deadline := time.Now().Add(cfg.Timeout)
	var lastErr error

	for attempt := 1; ; attempt++ {
		ok, err := cond(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = err
			ok = false
			log.DebugWithFields("Poll probe failed, treating as unmet", map[string]interface{}{
				"condition": cfg.Name,
				"attempt":   attempt,
				"error":     err.Error(),
			})
		}
		if ok {
			if attempt > 1 {
				log.DebugWithFields("Poll condition met", map[string]interface{}{
					"condition": cfg.Name,
					"attempt":   attempt,
				})
			}
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{Name: cfg.Name, Timeout: cfg.Timeout, Attempts: attempt, LastErr: lastErr}
		}

		if err := Wait(ctx, min(interval.Next(attempt), remaining)); err != nil {
			return err
		}
	}
}
