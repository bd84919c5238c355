// Package terminal drives a terminal checkout to a final status by polling
// the gateway at a fixed interval with a bounded number of attempts.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/shampooches/payments/internal/square"
)

// Defaults give five minutes of wall-clock polling.
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

var (
	// ErrPollTimeout means the attempt cap ran out before a terminal status.
	// The outcome is unknown and must be reconciled against the gateway.
	ErrPollTimeout = errors.New("terminal checkout polling timed out")

	// ErrPollCanceled means the caller stopped polling.
	ErrPollCanceled = errors.New("terminal checkout polling canceled")
)

// CheckoutTerminatedError reports a checkout that ended without payment.
type CheckoutTerminatedError struct {
	Status string
}

func (e *CheckoutTerminatedError) Error() string {
	return "terminal checkout ended with status " + e.Status
}

// StatusFetcher reads the current status of a checkout.
type StatusFetcher interface {
	GetCheckoutStatus(ctx context.Context, checkoutID string) (string, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller polls checkout status. One Poller may run many polls concurrently.
type Poller struct {
	fetcher     StatusFetcher
	logger      *slog.Logger
	sleep       SleepFunc
	interval    time.Duration
	maxAttempts int
}

// Option configures a Poller
type Option func(*Poller)

// WithInterval sets the delay before each status query.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts sets how many status queries are made before giving up.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithSleep replaces the wall-clock sleep.
func WithSleep(fn SleepFunc) Option {
	return func(p *Poller) { p.sleep = fn }
}

// NewPoller creates a poller reading status from fetcher.
func NewPoller(fetcher StatusFetcher, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:     fetcher,
		logger:      logger,
		sleep:       sleepContext,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Statuses returns the lazy sequence of observed statuses for checkoutID.
// Each step sleeps one interval, then queries once. The sequence ends after a
// terminal status, or with exactly one non-nil error: ErrPollTimeout,
// ErrPollCanceled or a non-retryable gateway error. Transport errors use up
// an attempt without being yielded.
func (p *Poller) Statuses(ctx context.Context, checkoutID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for attempt := 1; attempt <= p.maxAttempts; attempt++ {
			if err := p.sleep(ctx, p.interval); err != nil {
				yield("", canceled(err))
				return
			}

			status, err := p.fetcher.GetCheckoutStatus(ctx, checkoutID)
			if err != nil {
				if ctx.Err() != nil {
					yield("", canceled(ctx.Err()))
					return
				}
				if square.IsRetryable(err) {
					p.logger.WarnContext(ctx, "checkout status query failed",
						"checkout_id", checkoutID,
						"attempt", attempt,
						"error", err,
					)
					continue
				}
				yield("", fmt.Errorf("failed to fetch checkout status: %w", err))
				return
			}

			if !yield(status, nil) {
				return
			}
			if StateOf(status).IsTerminal() {
				return
			}
		}

		p.logger.WarnContext(ctx, "checkout polling exhausted attempts",
			"checkout_id", checkoutID,
			"attempts", p.maxAttempts,
		)
		yield("", ErrPollTimeout)
	}
}

// Poll blocks until checkoutID reaches a terminal status. observer, when not
// nil, receives every raw status before terminality is evaluated.
// COMPLETED returns the status and a nil error; CANCELED and FAILED return a
// *CheckoutTerminatedError.
func (p *Poller) Poll(ctx context.Context, checkoutID string, observer func(status string)) (string, error) {
	for status, err := range p.Statuses(ctx, checkoutID) {
		if err != nil {
			return "", err
		}
		if observer != nil {
			observer(status)
		}

		switch StateOf(status) {
		case StateCompleted:
			return status, nil
		case StateCanceled, StateFailed:
			return status, &CheckoutTerminatedError{Status: status}
		}
	}
	return "", ErrPollTimeout
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", ErrPollCanceled, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
