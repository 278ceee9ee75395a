package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxRetryAfter caps a server-requested wait between attempts.
const MaxRetryAfter = 30 * time.Second

// RetryableError marks an error as transient so [Retry] attempts the
// operation again. After, when set, is the wait the server asked for.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// retryAfter returns the server-requested wait carried by err, if any.
func retryAfter(err error) time.Duration {
	var re *RetryableError
	if errors.As(err, &re) {
		return min(re.After, MaxRetryAfter)
	}
	return 0
}

// ParseRetryAfter reads a Retry-After header given either as seconds or as
// an HTTP date. Unparseable and past values yield 0.
func ParseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0)
	}
	return 0
}

// Retry calls fn up to attempts times. Errors not marked with [Retryable]
// end the loop at once. Between attempts it waits delay, doubling each
// time, or longer when the error carries a Retry-After hint. It returns the
// last error, or ctx.Err() if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := max(delay, retryAfter(err))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

// RetryWithBackoff retries 3 times starting at 500ms.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, 500*time.Millisecond, fn)
}
