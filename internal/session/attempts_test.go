// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/walletgate/internal/session"
)

func TestAttemptLimiter(t *testing.T) {
	t.Run("counts down attempts remaining", func(t *testing.T) {
		limiter := session.NewAttemptLimiter(3, time.Minute)
		id := uuid.New()

		assert.Equal(t, 2, limiter.RecordFailure(id))
		assert.Equal(t, 1, limiter.RecordFailure(id))
		assert.Equal(t, 0, limiter.RecordFailure(id))
		assert.Equal(t, -1, limiter.RecordFailure(id))
	})

	t.Run("blocks only at the limit", func(t *testing.T) {
		limiter := session.NewAttemptLimiter(3, time.Minute)
		id := uuid.New()

		limiter.RecordFailure(id)
		limiter.RecordFailure(id)
		assert.False(t, limiter.HasExceeded(id))

		limiter.RecordFailure(id)
		assert.True(t, limiter.HasExceeded(id))
	})

	t.Run("identities are independent", func(t *testing.T) {
		limiter := session.NewAttemptLimiter(1, time.Minute)
		blocked := uuid.New()
		other := uuid.New()

		limiter.RecordFailure(blocked)
		assert.True(t, limiter.HasExceeded(blocked))
		assert.False(t, limiter.HasExceeded(other))
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		limiter := session.NewAttemptLimiter(2, time.Minute)
		id := uuid.New()

		limiter.RecordFailure(id)
		limiter.RecordFailure(id)
		require.True(t, limiter.HasExceeded(id))

		limiter.Reset(id)
		assert.False(t, limiter.HasExceeded(id))
		assert.Equal(t, 1, limiter.RecordFailure(id))
	})
}

func TestAttemptDecay(t *testing.T) {
	t.Run("block holds within the decay window", func(t *testing.T) {
		clock := newFakeClock()
		limiter := session.NewAttemptLimiterWithClock(2, 10*time.Minute, clock.Now)
		id := uuid.New()

		limiter.RecordFailure(id)
		limiter.RecordFailure(id)

		clock.Advance(10 * time.Minute)
		assert.True(t, limiter.HasExceeded(id))
	})

	t.Run("block lifts after the decay window", func(t *testing.T) {
		clock := newFakeClock()
		limiter := session.NewAttemptLimiterWithClock(2, 10*time.Minute, clock.Now)
		id := uuid.New()

		limiter.RecordFailure(id)
		limiter.RecordFailure(id)

		clock.Advance(10*time.Minute + time.Second)
		assert.False(t, limiter.HasExceeded(id))
	})

	t.Run("counter restarts fresh after decay", func(t *testing.T) {
		clock := newFakeClock()
		limiter := session.NewAttemptLimiterWithClock(2, 10*time.Minute, clock.Now)
		id := uuid.New()

		limiter.RecordFailure(id)
		limiter.RecordFailure(id)
		clock.Advance(11 * time.Minute)
		require.False(t, limiter.HasExceeded(id))

		assert.Equal(t, 1, limiter.RecordFailure(id))
		assert.False(t, limiter.HasExceeded(id))
	})

	t.Run("each failure re-stamps the window", func(t *testing.T) {
		clock := newFakeClock()
		limiter := session.NewAttemptLimiterWithClock(2, 10*time.Minute, clock.Now)
		id := uuid.New()

		limiter.RecordFailure(id)
		clock.Advance(9 * time.Minute)
		limiter.RecordFailure(id)

		clock.Advance(9 * time.Minute)
		assert.True(t, limiter.HasExceeded(id))
	})
}
