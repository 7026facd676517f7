// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// WalletBinding is the persisted association between an identity and a
// blockchain address. At most one binding exists per identity.
type WalletBinding struct {
	Identity    uuid.UUID
	Address     string
	Provider    string
	Verified    bool
	ConnectedAt time.Time
}

// CredentialStore persists accounts, password hashes, wallet bindings,
// and session rows. Implementations must not panic; failures are
// returned as errors for the facade to log and absorb.
type CredentialStore interface {
	// SavePlayer upserts the identity's player row. Called on every
	// connection, before any credential check.
	SavePlayer(ctx context.Context, id uuid.UUID, displayName, origin string) error

	// IsRegistered reports whether the identity has a password hash.
	IsRegistered(ctx context.Context, id uuid.UUID) (bool, error)

	// Register stores the password hash for a new account.
	Register(ctx context.Context, id uuid.UUID, displayName, passwordHash, origin string) error

	// Authenticate checks the password against the stored hash.
	// An unregistered identity authenticates as false, not an error.
	Authenticate(ctx context.Context, id uuid.UUID, password string) (bool, error)

	// UpdatePassword replaces the identity's password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// RecordLogin stamps the identity's last login time and origin.
	RecordLogin(ctx context.Context, id uuid.UUID, origin string) error

	// SaveSession upserts the identity's persistent session row.
	SaveSession(ctx context.Context, id uuid.UUID, origin string) error

	// RemoveSession deletes the identity's persistent session row.
	RemoveSession(ctx context.Context, id uuid.UUID) error

	// GetWallet returns the identity's wallet binding.
	// Returns ErrNotFound if no wallet is connected.
	GetWallet(ctx context.Context, id uuid.UUID) (*WalletBinding, error)

	// ConnectWallet creates or replaces the identity's wallet binding.
	ConnectWallet(ctx context.Context, id uuid.UUID, address, provider string) error

	// SetWalletVerified flips the binding's verified flag.
	SetWalletVerified(ctx context.Context, id uuid.UUID, verified bool) error

	// DisconnectWallet removes the entire binding, not just the flag.
	DisconnectWallet(ctx context.Context, id uuid.UUID) error
}
