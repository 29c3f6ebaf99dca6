// Package retry runs operations under bounded exponential backoff with
// jitter. Failures that carry a non-retryable HTTP status are returned
// immediately; everything else is retried until the budget is spent or the
// caller's context ends.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// Default retry configuration values
const (
	DEF_MAX_RETRIES = 3
	DEF_BASE_DELAY  = time.Second
	DEF_MAX_JITTER  = time.Second
)

// DefaultNonRetryableStatusCodes are client and auth errors that will not
// change on a second attempt.
var DefaultNonRetryableStatusCodes = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
}

// Config holds configuration for retry behavior
type Config struct {
	MaxRetries              int           // Retries after the first attempt (0 = single attempt)
	BaseDelay               time.Duration // Delay before the first retry, doubled for each later one
	MaxJitter               time.Duration // Upper bound of the random jitter added to each delay
	NonRetryableStatusCodes []int         // Statuses returned to the caller without retrying
}

// DefaultConfig returns a Config with the defaults of the acquisition layer.
func DefaultConfig() Config {
	return Config{
		MaxRetries:              DEF_MAX_RETRIES,
		BaseDelay:               DEF_BASE_DELAY,
		MaxJitter:               DEF_MAX_JITTER,
		NonRetryableStatusCodes: append([]int(nil), DefaultNonRetryableStatusCodes...),
	}
}

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	HTTPStatus() int
}

// StatusOf extracts the HTTP status carried anywhere in err's chain, or 0.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// State tracks the state of retry attempts
type State struct {
	Attempts     int           // Number of attempts made
	LastError    error         // Most recent error encountered
	TotalDelayed time.Duration // Cumulative time spent waiting between retries
}

// ErrorCategory classifies errors for retry decisions
type ErrorCategory int

const (
	ErrCategoryFatal     ErrorCategory = iota // Non-retryable (configured status, nil error)
	ErrCategoryRetryable                      // Transient (5xx, timeouts, resets)
	ErrCategoryThrottled                      // Rate limited (429, 503), waits twice as long
)

// Classify determines how err should be handled under c.
func (c *Config) Classify(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryFatal
	}
	var p *permanentError
	if errors.As(err, &p) {
		return ErrCategoryFatal
	}
	status := StatusOf(err)
	for _, code := range c.NonRetryableStatusCodes {
		if status == code {
			return ErrCategoryFatal
		}
	}
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		return ErrCategoryThrottled
	}
	return ErrCategoryRetryable
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying whatever its status. A nil err
// stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

var randInt63n = rand.Int63n

// CalculateBackoff computes the delay before retry number attempt (0 based):
// BaseDelay * 2^attempt plus a random jitter in [0, MaxJitter].
func (c *Config) CalculateBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the shift so huge attempt counts cannot overflow.
	if attempt > 30 {
		attempt = 30
	}
	delay := c.BaseDelay * time.Duration(1<<uint(attempt))
	if delay < 0 {
		delay = c.BaseDelay
	}
	if c.MaxJitter > 0 {
		delay += time.Duration(randInt63n(int64(c.MaxJitter) + 1))
	}
	return delay
}

// ShouldRetry determines if another attempt should be made after err.
func (c *Config) ShouldRetry(state *State, err error) bool {
	if c.Classify(err) == ErrCategoryFatal {
		return false
	}
	return state.Attempts <= c.MaxRetries
}

// WaitForRetry blocks until the retry delay has elapsed or ctx is done.
func (c *Config) WaitForRetry(ctx context.Context, state *State, category ErrorCategory) error {
	delay := c.CalculateBackoff(state.Attempts - 1)
	if category == ErrCategoryThrottled {
		delay *= 2
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		state.TotalDelayed += delay
		return nil
	}
}

// Do invokes op until it succeeds, fails with a non-retryable error, the
// retry budget is exhausted or ctx is done. The last operation error is
// returned; a context error is only returned when no attempt error exists.
//
// Do does not bound individual attempts. Callers apply their own per-attempt
// timeout inside op so that a single slow attempt and the overall retry
// budget stay independent.
func Do(ctx context.Context, c Config, op func(ctx context.Context) error) error {
	state := &State{}
	for {
		if err := ctx.Err(); err != nil {
			if state.LastError != nil {
				return state.LastError
			}
			return err
		}
		state.Attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		state.LastError = err
		if !c.ShouldRetry(state, err) {
			return err
		}
		if werr := c.WaitForRetry(ctx, state, c.Classify(err)); werr != nil {
			return err
		}
	}
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, c Config, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, c, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
