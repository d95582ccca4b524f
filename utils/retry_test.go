package utils

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"
)

func newTestLogger() *Logger { return NewLoggerWithWriter(io.Discard, LevelDebug) }

func TestLinearBackoff(t *testing.T) {
	backoff := LinearBackoff(time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 6 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v; want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var waits []time.Duration
	policy := &RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep:       func(d time.Duration) { waits = append(waits, d) },
		Logger:      newTestLogger(),
	}

	attempts, err := policy.Do(context.Background(), "insert", func(attempt int) error {
		if attempt < 3 {
			return errors.New("temporary failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3", attempts)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if !reflect.DeepEqual(waits, want) {
		t.Errorf("waits: got %v, want %v", waits, want)
	}
}

func TestRetryExhausted(t *testing.T) {
	sentinel := errors.New("connection refused")
	var waits []time.Duration
	policy := &RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Sleep:       func(d time.Duration) { waits = append(waits, d) },
		Logger:      newTestLogger(),
	}

	calls := 0
	attempts, err := policy.Do(context.Background(), "insert", func(int) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 || attempts != 3 {
		t.Errorf("calls/attempts: got %d/%d, want 3/3", calls, attempts)
	}
	if len(waits) != 2 {
		t.Errorf("no wait expected after the final attempt, got %d waits", len(waits))
	}
}

func TestRetryFirstAttemptNoWait(t *testing.T) {
	slept := false
	policy := &RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep:       func(time.Duration) { slept = true },
		Logger:      newTestLogger(),
	}

	attempts, err := policy.Do(context.Background(), "insert", func(int) error { return nil })
	if err != nil || attempts != 1 {
		t.Fatalf("got attempts=%d err=%v", attempts, err)
	}
	if slept {
		t.Error("should not sleep when the first attempt succeeds")
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slept := false
	policy := &RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep:       func(time.Duration) { slept = true },
		Logger:      newTestLogger(),
	}

	calls := 0
	attempts, err := policy.Do(ctx, "insert", func(int) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 || attempts != 0 {
		t.Errorf("calls/attempts: got %d/%d, want 0/0", calls, attempts)
	}
	if slept {
		t.Error("should not sleep once the context is done")
	}
}

func TestRetryCancelledDuringAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var waits []time.Duration
	policy := &RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep:       func(d time.Duration) { waits = append(waits, d) },
		Logger:      newTestLogger(),
	}

	calls := 0
	attempts, err := policy.Do(ctx, "insert", func(int) error {
		calls++
		cancel()
		return errors.New("context canceled")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("calls/attempts: got %d/%d, want 1/1", calls, attempts)
	}
	if len(waits) != 0 {
		t.Errorf("no backoff expected after cancellation, got %v", waits)
	}
}

func TestRetryTimerWakesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := &RetryPolicy{MaxAttempts: 2, Backoff: LinearBackoff(time.Hour)}
	done := make(chan error, 1)
	go func() {
		_, err := policy.Do(ctx, "insert", func(int) error { return errors.New("unavailable") })
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry kept waiting after the context was cancelled")
	}
}

func TestRetryNilLogger(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts: 2,
		Backoff:     LinearBackoff(time.Millisecond),
		Sleep:       func(time.Duration) {},
	}

	attempts, err := policy.Do(context.Background(), "insert", func(attempt int) error {
		if attempt == 1 {
			return errors.New("temporary failure")
		}
		return nil
	})
	if err != nil || attempts != 2 {
		t.Fatalf("got attempts=%d err=%v", attempts, err)
	}
}
