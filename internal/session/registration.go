// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package session

import "sync"

// DefaultRegistrationLimit is the ceiling on successful registrations
// per origin address.
const DefaultRegistrationLimit = 3

// RegistrationThrottle counts successful registrations per origin
// address. Counters are monotonic for the process lifetime; a restart
// clears them. It is safe for concurrent use.
//
// The check-then-act between Count and Record is caller-orchestrated
// and not atomic: two simultaneous registrations from one origin at
// the boundary may both pass the pre-check. Slight over-admission is
// accepted.
type RegistrationThrottle struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

// NewRegistrationThrottle creates a registration throttle. A
// non-positive limit falls back to DefaultRegistrationLimit.
func NewRegistrationThrottle(limit int) *RegistrationThrottle {
	if limit <= 0 {
		limit = DefaultRegistrationLimit
	}
	return &RegistrationThrottle{
		counts: make(map[string]int),
		limit:  limit,
	}
}

// Count returns the number of recorded registrations for an origin.
func (t *RegistrationThrottle) Count(origin string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[origin]
}

// Allowed reports whether another registration from the origin would
// stay within the limit. Read-only pre-check; pair with Record.
func (t *RegistrationThrottle) Allowed(origin string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[origin] < t.limit
}

// Record increments the origin's counter unconditionally. Call only
// after the registration actually succeeded.
func (t *RegistrationThrottle) Record(origin string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[origin]++
}
