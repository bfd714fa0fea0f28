package util

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

// RetryConfig controls exponential backoff for RPC reads.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (-1 = unlimited)
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Multiplier defaults to 2 when unset
	Multiplier float64
	// Jitter spreads each delay by ±Jitter*delay (0.0 - 1.0)
	Jitter float64
	// RetryIf reports whether err deserves another attempt. nil retries
	// everything not marked with MarkPermanent.
	RetryIf func(error) bool
	// Clock drives the waits between attempts. nil uses the wall clock.
	Clock clock.Clock
}

// DefaultRetryConfig suits public Starknet RPC endpoints.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// RetryResult describes how a retried call went.
type RetryResult struct {
	Attempts  int
	LastError error
	Duration  time.Duration
}

var (
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Retry runs fn until it succeeds, the error is not retryable, the retry
// budget is spent or ctx is done.
func Retry(ctx context.Context, cfg *RetryConfig, fn func() error) *RetryResult {
	_, res := RetryWithValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return res
}

// RetryWithValue is Retry for functions that produce a value.
func RetryWithValue[T any](ctx context.Context, cfg *RetryConfig, fn func() (T, error)) (T, *RetryResult) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = func(err error) bool { return !IsPermanent(err) }
	}

	var zero T
	res := &RetryResult{}
	start := clk.Now()
	finish := func() { res.Duration = clk.Since(start) }

	for {
		res.Attempts++
		val, err := fn()
		if err == nil {
			res.LastError = nil
			finish()
			return val, res
		}
		res.LastError = err

		if !retryIf(err) {
			finish()
			return zero, res
		}
		if cfg.MaxRetries >= 0 && res.Attempts > cfg.MaxRetries {
			res.LastError = errors.Join(ErrMaxRetriesExceeded, err)
			finish()
			return zero, res
		}

		timer := clk.Timer(backoff(cfg, res.Attempts))
		select {
		case <-ctx.Done():
			timer.Stop()
			res.LastError = errors.Join(ErrContextCanceled, ctx.Err())
			finish()
			return zero, res
		case <-timer.C:
		}
	}
}

// backoff returns BaseDelay * Multiplier^(attempt-1), jittered and capped.
func backoff(cfg *RetryConfig, attempt int) time.Duration {
	m := cfg.Multiplier
	if m <= 0 {
		m = 2.0
	}
	d := float64(cfg.BaseDelay) * math.Pow(m, float64(attempt-1))
	if cfg.Jitter > 0 {
		span := d * cfg.Jitter
		d = d - span + rand.Float64()*2*span
	}
	if cfg.MaxDelay > 0 && time.Duration(d) > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return time.Duration(d)
}

// PermanentError marks an error that retrying cannot fix, such as a
// contract revert or a malformed response.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// MarkPermanent wraps err so the default RetryIf gives up on it.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with MarkPermanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
