package utils

import (
	"context"
	"fmt"
	"io"
	"time"
)

// BackoffFunc returns how long to wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits 2*attempt units: 2, 4, 6, ...
func LinearBackoff(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(2*attempt) * unit
	}
}

// RetryPolicy holds the parameters for the retry strategy.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Sleep blocks between attempts. Nil means a timer that also wakes on
	// context cancellation.
	Sleep func(time.Duration)
	// Logger receives one line per failed attempt. Nil discards them.
	Logger *Logger
}

var discardLogger = NewLoggerWithWriter(io.Discard, LevelError)

// Do executes fn until it succeeds, MaxAttempts is reached, or ctx is done.
// fn receives the current attempt number. The returned int is the number of
// attempts made. Once ctx is done no further attempt starts and the returned
// error wraps ctx.Err().
func (r *RetryPolicy) Do(ctx context.Context, operationName string, fn func(attempt int) error) (int, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = discardLogger
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, fmt.Errorf("%s interrupted: %w", operationName, err)
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return attempt, nil
		}

		logger.Warn("[retry] %s failed (attempt %d/%d): %v", operationName, attempt, maxAttempts, lastErr)
		if attempt < maxAttempts {
			var delay time.Duration
			if r.Backoff != nil {
				delay = r.Backoff(attempt)
			}
			logger.Info("[retry] retrying %s in %v", operationName, delay)
			if err := r.wait(ctx, delay); err != nil {
				return attempt, fmt.Errorf("%s interrupted: %w", operationName, err)
			}
		}
	}

	return maxAttempts, fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, lastErr)
}

func (r *RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
