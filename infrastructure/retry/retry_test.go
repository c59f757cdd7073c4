package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
)

var errTransient = errors.New("dial tcp: connection refused")

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("Retry() error = %v, want %v", err, permanent)
	}
	if errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Error("non-retryable error was reported as exhausted attempts")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ time.Duration, _ error) {
		retried = append(retried, attempt)
	}

	err := retry.Retry(context.Background(), cfg, func() error { return errTransient })
	if !errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Errorf("Retry() error = %v, want ErrMaxAttemptsExceeded", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Retry() error = %v, want it to wrap the last error", err)
	}
	if len(retried) != 2 {
		t.Errorf("OnRetry called %d times, want 2", len(retried))
	}
}

func TestRetry_SingleAttemptReturnsRawError(t *testing.T) {
	t.Parallel()

	err := retry.Retry(context.Background(), fastConfig(1), func() error { return errTransient })
	if !errors.Is(err, errTransient) || errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		t.Errorf("Retry() error = %v, want the raw error", err)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry.Retry(ctx, fastConfig(3), func() error {
		calls++
		return nil
	})
	if !errors.Is(err, retry.ErrContextCancelled) {
		t.Errorf("Retry() error = %v, want ErrContextCancelled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestConfig_Backoff(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{10, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDefaultIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errTransient, true},
		{"dns", errors.New("dial tcp: lookup svc.search.windows.net: no such host"), true},
		{"cancelled", context.Canceled, false},
		{"validation", errors.New("indexer name is required"), false},
	}
	for _, tt := range tests {
		if got := retry.DefaultIsRetryable(tt.err); got != tt.want {
			t.Errorf("DefaultIsRetryable(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
