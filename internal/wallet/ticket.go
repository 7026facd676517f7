// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package wallet

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// NonceLength is the length of generated link nonces.
const NonceLength = 12

const nonceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Ticket is the nonce + external-session-id pair issued for one
// wallet-link attempt. Single-use and mutually exclusive per identity.
type Ticket struct {
	Identity  uuid.UUID
	Nonce     string
	SessionID string
	IssuedAt  time.Time
}

// TicketStore holds outstanding link tickets keyed by identity.
// Issuing a new ticket overwrites any prior one; the superseded poll
// loop notices on its next tick. Safe for concurrent use.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]Ticket
	now     func() time.Time
}

// NewTicketStore creates an empty ticket store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[uuid.UUID]Ticket),
		now:     time.Now,
	}
}

// Issue generates a fresh nonce and external session id for the
// identity, replacing any outstanding ticket.
func (ts *TicketStore) Issue(id uuid.UUID) (Ticket, error) {
	nonce, err := generateNonce()
	if err != nil {
		return Ticket{}, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	t := Ticket{
		Identity:  id,
		Nonce:     nonce,
		SessionID: uuid.NewString(),
		IssuedAt:  ts.now(),
	}
	ts.tickets[id] = t
	return t, nil
}

// Get returns the identity's outstanding ticket, if any.
func (ts *TicketStore) Get(id uuid.UUID) (Ticket, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.tickets[id]
	return t, ok
}

// Discard removes the identity's ticket, if any.
func (ts *TicketStore) Discard(id uuid.UUID) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	delete(ts.tickets, id)
}

// DiscardMatching removes the ticket only if it is still the given
// one. A poll loop uses this so it never discards a newer ticket that
// replaced the one it was started for.
func (ts *TicketStore) DiscardMatching(t Ticket) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	current, ok := ts.tickets[t.Identity]
	if !ok || current.SessionID != t.SessionID {
		return false
	}
	delete(ts.tickets, t.Identity)
	return true
}

// VerifyNonce consumes the identity's nonce on first call, match or
// not, and reports whether the supplied value matched. Part of the
// legacy manual-entry flow; kept as a primitive.
func (ts *TicketStore) VerifyNonce(id uuid.UUID, nonce string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.tickets[id]
	if !ok {
		return false
	}
	delete(ts.tickets, id)
	return t.Nonce == nonce
}

// generateNonce draws NonceLength characters from the 62-symbol
// alphanumeric alphabet using crypto/rand.
func generateNonce() (string, error) {
	alphabetLen := big.NewInt(int64(len(nonceAlphabet)))
	buf := make([]byte, NonceLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", oops.Code("WALLET_NONCE_FAILED").Wrap(err)
		}
		buf[i] = nonceAlphabet[n.Int64()]
	}
	return string(buf), nil
}
