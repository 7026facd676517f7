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

// fakeClock is a manually advanced time source.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.current }

func (c *fakeClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func TestStoreLifecycle(t *testing.T) {
	t.Run("created session is active but not authenticated", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		assert.True(t, store.HasActive(id))
		assert.False(t, store.IsAuthenticated(id))
	})

	t.Run("authentication flag flips per session", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		store.SetAuthenticated(id, true)
		assert.True(t, store.IsAuthenticated(id))

		store.SetAuthenticated(id, false)
		assert.False(t, store.IsAuthenticated(id))
	})

	t.Run("create replaces an existing session", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		store.SetAuthenticated(id, true)
		store.Create(id, "10.0.0.2")

		sess, found := store.Get(id)
		require.True(t, found)
		assert.Equal(t, "10.0.0.2", sess.Origin)
		assert.False(t, sess.Authenticated)
		assert.Equal(t, 1, store.Count())
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		store.Remove(id)
		store.Remove(id)
		assert.False(t, store.HasActive(id))
	})

	t.Run("flags on unknown identities are no-ops", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()

		store.SetAuthenticated(id, true)
		store.SetWalletVerified(id, true)
		assert.False(t, store.IsAuthenticated(id))
		assert.Equal(t, 0, store.Count())
	})

	t.Run("get returns a copy", func(t *testing.T) {
		store := session.NewStore(time.Hour)
		id := uuid.New()
		store.Create(id, "10.0.0.1")

		sess, found := store.Get(id)
		require.True(t, found)
		sess.Authenticated = true

		assert.False(t, store.IsAuthenticated(id))
	})
}

func TestStoreExpiry(t *testing.T) {
	t.Run("session survives just inside the timeout", func(t *testing.T) {
		clock := newFakeClock()
		store := session.NewStoreWithClock(time.Hour, clock.Now)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		store.SetAuthenticated(id, true)

		clock.Advance(time.Hour - time.Second)
		assert.True(t, store.HasActive(id))
		assert.True(t, store.IsAuthenticated(id))
	})

	t.Run("session expires just past the timeout", func(t *testing.T) {
		clock := newFakeClock()
		store := session.NewStoreWithClock(time.Hour, clock.Now)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		store.SetAuthenticated(id, true)

		clock.Advance(time.Hour + time.Second)
		assert.False(t, store.HasActive(id))
		assert.False(t, store.IsAuthenticated(id))
	})

	t.Run("expiry counts from creation, not activity", func(t *testing.T) {
		clock := newFakeClock()
		store := session.NewStoreWithClock(time.Hour, clock.Now)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		clock.Advance(30 * time.Minute)
		require.True(t, store.HasActive(id))

		clock.Advance(31 * time.Minute)
		assert.False(t, store.HasActive(id))
	})

	t.Run("recreate after expiry starts a fresh window", func(t *testing.T) {
		clock := newFakeClock()
		store := session.NewStoreWithClock(time.Hour, clock.Now)
		id := uuid.New()

		store.Create(id, "10.0.0.1")
		clock.Advance(2 * time.Hour)
		require.False(t, store.HasActive(id))

		store.Create(id, "10.0.0.1")
		clock.Advance(30 * time.Minute)
		assert.True(t, store.HasActive(id))
	})
}
