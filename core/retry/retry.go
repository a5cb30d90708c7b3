package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds the backoff parameters of a Policy.
type Config struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single wait.
	MaxDelay time.Duration
	// Multiplier grows the delay between attempts.
	Multiplier float64
	// Jitter randomizes each delay by the given factor (0 disables it).
	Jitter float64
}

// DefaultConfig returns five attempts starting at 200ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.25,
	}
}

// Policy is a reusable bounded exponential backoff.
// It is safe for concurrent use; every Do call gets its own backoff state.
type Policy struct {
	cfg Config
	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// NewPolicy normalizes cfg and returns a Policy.
func NewPolicy(cfg Config) *Policy {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		cfg.Jitter = 0
	}
	return &Policy{cfg: cfg}
}

// Config returns the normalized configuration.
func (p *Policy) Config() Config {
	return p.cfg
}

func (p *Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.cfg.BaseDelay
	eb.MaxInterval = p.cfg.MaxDelay
	eb.Multiplier = p.cfg.Multiplier
	eb.RandomizationFactor = p.cfg.Jitter
	// Attempts bound the loop, not elapsed time.
	eb.MaxElapsedTime = 0
	eb.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.cfg.MaxAttempts-1)), ctx)
}

// Do calls fn until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	attempts := 0
	op := func() error {
		attempts++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn()
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts, err, wait)
		}
	}

	err := backoff.RetryNotify(op, p.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("retry cancelled after %d attempts: %w", attempts, errors.Join(ctxErr, err))
	}
	return &ExhaustedError{Attempts: attempts, Err: err}
}

// DoWithResult is Do for functions returning a value.
func DoWithResult[T any](ctx context.Context, p *Policy, fn func() (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so that Do stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return true
	}
	var bpe *backoff.PermanentError
	return errors.As(err, &bpe)
}
