package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Config holds retry configuration parameters.
// MaxAttempts counts the first call; 1 (or less) disables retrying.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterRatio float64
}

// DefaultConfig returns a single-attempt configuration with the backoff curve
// used when attempts are raised.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 1,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    3 * time.Second,
		JitterRatio: 0.25,
	}
}

// Do calls fn until it succeeds, fails with a non-transient error, the attempts
// are exhausted or ctx is done.
func (c Config) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= c.MaxAttempts || !IsTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Backoff(attempt)):
		}
	}
}

// Backoff returns the delay before retry number attempt (1-based), jitter included.
func (c Config) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if c.JitterRatio > 0 {
		delay += time.Duration(rand.Float64() * c.JitterRatio * float64(delay))
	}
	return delay
}

// HTTPStatusError records a non-2xx response from an upstream API.
type HTTPStatusError struct {
	Status int
	Body   string
	Source string
}

func NewHTTPStatusError(status int, body, source string) *HTTPStatusError {
	return &HTTPStatusError{Status: status, Body: body, Source: source}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Source, e.Status, e.Body)
}

// IsTransient reports whether err is worth retrying: 429, 5xx and network timeouts.
func IsTransient(err error) bool {
	var he *HTTPStatusError
	if errors.As(err, &he) {
		return he.Status == http.StatusTooManyRequests || he.Status >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
