package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDefaultConfigDoesNotRetry(t *testing.T) {
	calls := 0
	err := DefaultConfig().Do(context.Background(), func(context.Context) error {
		calls++
		return NewHTTPStatusError(503, "unavailable", "test")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoBehavior(t *testing.T) {
	t.Run("retry_with_transient_errors", func(t *testing.T) {
		calls := 0
		err := fastConfig(5).Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return NewHTTPStatusError(429, "rate limited", "test")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected success after retries, got: %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("no_retry_on_non_transient_error", func(t *testing.T) {
		calls := 0
		err := fastConfig(5).Do(context.Background(), func(context.Context) error {
			calls++
			return NewHTTPStatusError(400, "bad request", "test")
		})
		if err == nil {
			t.Fatal("expected error to be returned")
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("eventual_failure_after_max_attempts", func(t *testing.T) {
		calls := 0
		err := fastConfig(4).Do(context.Background(), func(context.Context) error {
			calls++
			return NewHTTPStatusError(503, "service unavailable", "test")
		})
		var he *HTTPStatusError
		if !errors.As(err, &he) || he.Status != 503 {
			t.Fatalf("expected last status error, got %v", err)
		}
		if calls != 4 {
			t.Fatalf("expected 4 attempts, got %d", calls)
		}
	})

	t.Run("context_cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := Config{MaxAttempts: 3, BaseDelay: time.Hour}
		err := cfg.Do(ctx, func(context.Context) error {
			return NewHTTPStatusError(503, "service unavailable", "test")
		})
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}

func TestBackoff(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := cfg.Backoff(i + 1); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}

	cfg.JitterRatio = 0.25
	for i := 0; i < 20; i++ {
		got := cfg.Backoff(2)
		if got < 200*time.Millisecond || got > 250*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", got)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{NewHTTPStatusError(429, "", "openai"), true},
		{NewHTTPStatusError(500, "", "openai"), true},
		{NewHTTPStatusError(401, "", "openai"), false},
		{fmt.Errorf("wrapped: %w", NewHTTPStatusError(502, "", "openai")), true},
		{timeoutErr{}, true},
		{errors.New("boom"), false},
	}
	for i, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Errorf("case %d (%v): expected %v, got %v", i, c.err, c.want, got)
		}
	}
}
