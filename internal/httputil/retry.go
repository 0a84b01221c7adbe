// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultDelay       = 2 * time.Second
)

// Policy is a bounded retry policy with a fixed inter-attempt delay.
// Every outbound network call in the pipeline runs under one; a timeout
// is retried like any other transient failure, and exhausting the
// budget surfaces the last error to the caller, which degrades to an
// absent result rather than aborting the run.
type Policy struct {
	// MaxAttempts is the total number of attempts. Zero or negative
	// selects the default (3).
	MaxAttempts int

	// Delay is the fixed wait between attempts. Zero selects the
	// default (2s).
	Delay time.Duration
}

// sleep is swapped out by tests to avoid real waits.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do runs fn until it succeeds or the attempt budget is exhausted.
// Between attempts it waits the fixed delay, honoring context
// cancellation. The returned error wraps the last attempt's error.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = defaultDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt < attempts {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
