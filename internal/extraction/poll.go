package extraction

import (
	"context"
	"fmt"
	"time"

	"docintake/internal/config"
	"docintake/internal/domain"
)

const (
	defaultPollInterval    = time.Second
	defaultPollMaxAttempts = 120
)

// PollPolicy bounds how an asynchronous job is awaited.
type PollPolicy struct {
	Interval    time.Duration
	Backoff     float64
	MaxInterval time.Duration
	MaxAttempts int
}

// DefaultPollPolicy polls once a second for up to two minutes.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    defaultPollInterval,
		Backoff:     1.0,
		MaxAttempts: defaultPollMaxAttempts,
	}
}

// PolicyFromConfig builds a PollPolicy from extraction settings, falling back
// to defaults for unset values.
func PolicyFromConfig(cfg *config.ExtractionConfig) PollPolicy {
	p := DefaultPollPolicy()
	if cfg.PollIntervalMS > 0 {
		p.Interval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	if cfg.PollBackoff >= 1.0 {
		p.Backoff = cfg.PollBackoff
	}
	if cfg.PollMaxIntervalMS > 0 {
		p.MaxInterval = time.Duration(cfg.PollMaxIntervalMS) * time.Millisecond
	}
	if cfg.PollMaxAttempts > 0 {
		p.MaxAttempts = cfg.PollMaxAttempts
	}
	return p
}

// Delay returns the wait before the given zero-based poll attempt.
func (p PollPolicy) Delay(attempt int) time.Duration {
	d := p.Interval
	if p.Backoff > 1.0 {
		f := float64(d)
		for i := 0; i < attempt; i++ {
			f *= p.Backoff
			if p.MaxInterval > 0 && f >= float64(p.MaxInterval) {
				return p.MaxInterval
			}
		}
		d = time.Duration(f)
	}
	if p.MaxInterval > 0 && d > p.MaxInterval {
		d = p.MaxInterval
	}
	return d
}

// PollFunc checks a job once. done reports a terminal state.
type PollFunc func(ctx context.Context) (done bool, err error)

// Await calls check until it reports done, returns an error, or the attempt
// ceiling is reached. Waits between attempts honor ctx.
func (p PollPolicy) Await(ctx context.Context, check PollFunc) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultPollMaxAttempts
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if err := wait(ctx, p.Delay(attempt)); err != nil {
			return err
		}
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return fmt.Errorf("%w: gave up after %d polls", domain.ErrJobTimeout, attempts)
}

func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
