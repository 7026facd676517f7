// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Attempt limiter defaults.
const (
	DefaultMaxAttempts  = 5
	DefaultAttemptDecay = 10 * time.Minute
)

// loginAttempt tracks consecutive failed logins for one identity.
type loginAttempt struct {
	count    int
	lastSeen time.Time
}

// AttemptLimiter counts failed logins per identity with a decay window.
// It is safe for concurrent use.
type AttemptLimiter struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*loginAttempt
	max      int
	decay    time.Duration
	now      func() time.Time
}

// NewAttemptLimiter creates an attempt limiter. Non-positive arguments
// fall back to the defaults.
func NewAttemptLimiter(max int, decay time.Duration) *AttemptLimiter {
	return NewAttemptLimiterWithClock(max, decay, time.Now)
}

// NewAttemptLimiterWithClock creates an attempt limiter with an
// injectable clock for deterministic decay tests.
func NewAttemptLimiterWithClock(max int, decay time.Duration, now func() time.Time) *AttemptLimiter {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	if decay <= 0 {
		decay = DefaultAttemptDecay
	}
	return &AttemptLimiter{
		attempts: make(map[uuid.UUID]*loginAttempt),
		max:      max,
		decay:    decay,
		now:      now,
	}
}

// RecordFailure increments the identity's failure counter, stamps the
// current time, and returns the attempts remaining before the limit.
// The result may go negative; callers decide how to display it.
func (l *AttemptLimiter) RecordFailure(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	att, ok := l.attempts[id]
	if !ok {
		att = &loginAttempt{}
		l.attempts[id] = att
	}
	att.count++
	att.lastSeen = l.now()

	return l.max - att.count
}

// HasExceeded reports whether the identity is currently blocked.
// Once the decay window elapses the entry is dropped entirely, so the
// next check and the next failure both start fresh.
func (l *AttemptLimiter) HasExceeded(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	att, ok := l.attempts[id]
	if !ok {
		return false
	}

	if att.count >= l.max {
		if l.now().Sub(att.lastSeen) > l.decay {
			delete(l.attempts, id)
			return false
		}
		return true
	}

	return false
}

// Reset removes the identity's counter. Called on any successful
// authentication.
func (l *AttemptLimiter) Reset(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, id)
}
