// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

// Package session holds the in-process authentication state: active
// sessions, failed-login counters, and per-origin registration counts.
// All state is lost on restart; re-authentication is the recovery path.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a session's lifetime measured from creation,
// not from last activity.
const DefaultTimeout = 24 * time.Hour

// Session is transient proof that an identity passed credential checks
// during the current connection.
type Session struct {
	Identity       uuid.UUID
	Origin         string
	CreatedAt      time.Time
	Authenticated  bool
	WalletVerified bool
}

// Store manages active sessions keyed by identity.
// It is safe for concurrent use; entries are copied out so callers
// cannot mutate internal state.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	timeout  time.Duration
	now      func() time.Time
}

// NewStore creates a session store. A non-positive timeout falls back
// to DefaultTimeout.
func NewStore(timeout time.Duration) *Store {
	return NewStoreWithClock(timeout, time.Now)
}

// NewStoreWithClock creates a session store with an injectable clock
// for deterministic expiry tests.
func NewStoreWithClock(timeout time.Duration, now func() time.Time) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		timeout:  timeout,
		now:      now,
	}
}

// Create registers a new unauthenticated session for an identity,
// replacing any existing one (last-writer-wins).
func (s *Store) Create(id uuid.UUID, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &Session{
		Identity:  id,
		Origin:    origin,
		CreatedAt: s.now(),
	}
}

// Get returns a copy of the identity's session, expired or not.
// The second return is false if no session exists.
func (s *Store) Get(id uuid.UUID) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// HasActive reports whether the identity has an unexpired session.
// Expired sessions are evicted lazily; absence after eviction is
// indistinguishable from never-existed.
func (s *Store) HasActive(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}

	if s.now().Sub(sess.CreatedAt) > s.timeout {
		delete(s.sessions, id)
		return false
	}

	return true
}

// Remove deletes the identity's session, if any.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// SetAuthenticated marks the identity's session as having passed a
// credential check. No-op if no session exists.
func (s *Store) SetAuthenticated(id uuid.UUID, authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.Authenticated = authenticated
	}
}

// SetWalletVerified flips the wallet-verified flag on the identity's
// session. No-op if no session exists.
func (s *Store) SetWalletVerified(id uuid.UUID, verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.WalletVerified = verified
	}
}

// IsAuthenticated reports whether the identity has an unexpired,
// authenticated session.
func (s *Store) IsAuthenticated(id uuid.UUID) bool {
	if !s.HasActive(id) {
		return false
	}
	sess, ok := s.Get(id)
	return ok && sess.Authenticated
}

// Count returns the number of tracked sessions, expired entries
// included. Useful for monitoring.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
