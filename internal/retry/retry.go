// Package retry bounds blocking calls to external collaborators (language
// model, SQL engine, SPARQL endpoint) with a per-attempt timeout and a small
// retry budget for transient failures.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Default budget values used when a Policy field is zero.
const (
	DefaultBackoff        = 250 * time.Millisecond
	DefaultAttemptTimeout = 60 * time.Second
	maxBackoff            = 5 * time.Second
)

// Policy describes how a single operation is retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first one.
	MaxRetries uint64

	// Backoff is the base delay, doubled after every attempt.
	Backoff time.Duration

	// AttemptTimeout bounds each attempt. Negative disables the bound.
	AttemptTimeout time.Duration

	// Transient reports whether an error is worth another attempt.
	// Nil uses IsTransient.
	Transient func(error) bool
}

// Do runs fn until it succeeds, returns a non-transient error, the budget is
// exhausted or ctx is done. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	base := p.Backoff
	if base <= 0 {
		base = DefaultBackoff
	}
	timeout := p.AttemptTimeout
	if timeout == 0 {
		timeout = DefaultAttemptTimeout
	}
	transient := p.Transient
	if transient == nil {
		transient = IsTransient
	}

	backoff := goretry.NewExponential(base)
	backoff = goretry.WithCappedDuration(maxBackoff, backoff)
	backoff = goretry.WithMaxRetries(p.MaxRetries, backoff)

	attempt := 0
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}

		// An attempt that ran out of its own time is transient; a cancelled
		// caller is not.
		if ctx.Err() != nil {
			return err
		}
		if attemptCtx.Err() != nil || transient(err) {
			logger.Debug("transient failure, retrying",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return goretry.RetryableError(err)
		}
		return err
	})
}

// IsTransient classifies network-level failures that usually clear on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsMarkedTransient(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// transientError marks an error as retryable regardless of its cause.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so that IsMarkedTransient reports true for it.
// Collaborators use it for protocol-level signals such as HTTP 429 or 503.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsMarkedTransient reports whether err was wrapped with Transient.
func IsMarkedTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
