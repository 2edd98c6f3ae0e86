package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Retry defaults.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultRetries    = 1
	defaultRetryDelay = 500 * time.Millisecond
)

// Retrying bounds every append with a timeout and retries transient failures.
//
// An append that timed out may still have reached the backend, so a retry can
// duplicate rows; the owner sees both as "Unverified" and can delete one.
type Retrying struct {
	next    Appender
	timeout time.Duration
	retries int
	delay   time.Duration
	log     zerolog.Logger
}

// RetryOption configures Retrying.
type RetryOption func(*Retrying)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) RetryOption {
	return func(r *Retrying) { r.timeout = d }
}

// WithRetries sets how many extra attempts follow a transient failure.
func WithRetries(n int) RetryOption {
	return func(r *Retrying) { r.retries = n }
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) RetryOption {
	return func(r *Retrying) { r.delay = d }
}

// WithRetryLogger sets the logger for retry warnings.
func WithRetryLogger(log zerolog.Logger) RetryOption {
	return func(r *Retrying) { r.log = log }
}

// NewRetrying wraps next with a timeout and DefaultRetries retries.
func NewRetrying(next Appender, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:    next,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		delay:   defaultRetryDelay,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retries < 0 {
		r.retries = 0
	}
	return r
}

// AppendRows calls the wrapped appender, retrying transient failures.
//
// Permanent failures are returned at once. When every attempt fails
// transiently the error wraps ErrRetriesExhausted and the last cause.
func (r *Retrying) AppendRows(ctx context.Context, rows []Row) error {
	attempts := r.retries + 1
	var last error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return connectionError(ctx.Err(), false)
			case <-time.After(r.delay):
			}
		}

		err := r.attempt(ctx, rows)
		if err == nil {
			if attempt > 1 {
				r.log.Info().Int("attempt", attempt).Int("rows", len(rows)).Msg("collection append succeeded after retry")
			}
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		last = err
		r.log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("collection append failed")
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, last)
}

func (r *Retrying) attempt(ctx context.Context, rows []Row) error {
	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.next.AppendRows(actx, rows)
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		// Foreign appenders: treat a timeout as a transient connection
		// failure and anything else as a permanent write failure.
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			return connectionError(err, true)
		}
		return writeError(err, false)
	}
	return err
}
