// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(t *testing.T) *int {
	t.Helper()
	orig := sleep
	sleeps := 0
	sleep = func(_ context.Context, _ time.Duration) error {
		sleeps++
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &sleeps
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	sleeps := noSleep(t)
	calls := 0

	err := Policy{MaxAttempts: 3}.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, *sleeps)
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	sleeps := noSleep(t)
	calls := 0

	err := Policy{MaxAttempts: 3, Delay: time.Second}.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, *sleeps)
}

func TestDoExhaustsAttempts(t *testing.T) {
	noSleep(t)
	calls := 0
	boom := errors.New("boom")

	err := Policy{MaxAttempts: 2}.Do(context.Background(), func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDoDefaults(t *testing.T) {
	noSleep(t)
	calls := 0

	err := Policy{}.Do(context.Background(), func() error {
		calls++
		return errors.New("always")
	})

	require.Error(t, err)
	assert.Equal(t, defaultMaxAttempts, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Policy{MaxAttempts: 3}.Do(ctx, func() error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
