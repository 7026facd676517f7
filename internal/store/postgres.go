// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

// Package store implements the credential store on PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/walletgate/walletgate/internal/auth"
)

// connectMaxRetries bounds the startup ping; database availability is
// the one process-fatal bootstrap condition.
const connectMaxRetries = 5

// poolIface is the pgxpool surface the store uses. pgxmock implements
// it, which keeps store tests off a real database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres implements auth.CredentialStore and the coordinator's
// binding-store subset on a pgx connection pool.
type Postgres struct {
	pool   poolIface
	hasher auth.Hasher
	closer func()
}

// Connect opens a pool for the DSN, pings it with fibonacci backoff,
// and returns the store.
func Connect(ctx context.Context, dsn string, hasher auth.Hasher) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewFibonacci(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return &Postgres{pool: pool, hasher: hasher, closer: pool.Close}, nil
}

// New wraps an existing pool. Used by tests with pgxmock.
func New(pool poolIface, hasher auth.Hasher) *Postgres {
	return &Postgres{pool: pool, hasher: hasher, closer: func() {}}
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.closer()
}

// Ping reports database reachability. Used by the readiness probe.
func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}

// SavePlayer upserts the identity's player row.
func (s *Postgres) SavePlayer(ctx context.Context, id uuid.UUID, displayName, origin string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, username, ip)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = $2, ip = $3
	`, id.String(), displayName, origin)
	if err != nil {
		return oops.Code("PLAYER_SAVE_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// IsRegistered reports whether the identity has a password hash.
// A player row without a hash counts as not registered.
func (s *Postgres) IsRegistered(ctx context.Context, id uuid.UUID) (bool, error) {
	var hash *string
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM players WHERE id = $1`, id.String(),
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("PLAYER_LOOKUP_FAILED").With("identity", id.String()).Wrap(err)
	}
	return hash != nil && *hash != "", nil
}

// Register stores the password hash for a new account.
func (s *Postgres) Register(ctx context.Context, id uuid.UUID, displayName, passwordHash, origin string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, username, password_hash, ip)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username = $2, password_hash = $3, ip = $4
	`, id.String(), displayName, passwordHash, origin)
	if err != nil {
		return oops.Code("PLAYER_REGISTER_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// Authenticate checks the password against the stored hash. An
// unregistered identity is a plain false, not an error.
func (s *Postgres) Authenticate(ctx context.Context, id uuid.UUID, password string) (bool, error) {
	var hash *string
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM players WHERE id = $1`, id.String(),
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("PLAYER_LOOKUP_FAILED").With("identity", id.String()).Wrap(err)
	}
	if hash == nil {
		return false, nil
	}
	return s.hasher.Verify(password, *hash), nil
}

// UpdatePassword replaces the identity's password hash.
func (s *Postgres) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE players SET password_hash = $1 WHERE id = $2`, passwordHash, id.String())
	if err != nil {
		return oops.Code("PASSWORD_UPDATE_FAILED").With("identity", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// RecordLogin stamps the identity's last login time and origin.
func (s *Postgres) RecordLogin(ctx context.Context, id uuid.UUID, origin string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE players SET last_login = now(), ip = $1 WHERE id = $2`, origin, id.String())
	if err != nil {
		return oops.Code("LOGIN_RECORD_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// SaveSession upserts the identity's persistent session row.
func (s *Postgres) SaveSession(ctx context.Context, id uuid.UUID, origin string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (player_id, ip, last_login)
		VALUES ($1, $2, now())
		ON CONFLICT (player_id) DO UPDATE SET ip = $2, last_login = now()
	`, id.String(), origin)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// RemoveSession deletes the identity's persistent session row.
func (s *Postgres) RemoveSession(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE player_id = $1`, id.String())
	if err != nil {
		return oops.Code("SESSION_REMOVE_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// GetWallet returns the identity's wallet binding, or auth.ErrNotFound.
func (s *Postgres) GetWallet(ctx context.Context, id uuid.UUID) (*auth.WalletBinding, error) {
	var (
		address     string
		provider    string
		verified    bool
		connectedAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT wallet_address, wallet_type, verified, connected_at
		FROM wallets WHERE player_id = $1
	`, id.String()).Scan(&address, &provider, &verified, &connectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("WALLET_LOOKUP_FAILED").With("identity", id.String()).Wrap(err)
	}

	return &auth.WalletBinding{
		Identity:    id,
		Address:     address,
		Provider:    provider,
		Verified:    verified,
		ConnectedAt: connectedAt,
	}, nil
}

// HasWallet reports whether the identity has a wallet binding.
func (s *Postgres) HasWallet(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wallets WHERE player_id = $1)`, id.String(),
	).Scan(&exists)
	if err != nil {
		return false, oops.Code("WALLET_LOOKUP_FAILED").With("identity", id.String()).Wrap(err)
	}
	return exists, nil
}

// ConnectWallet creates or replaces the identity's wallet binding.
func (s *Postgres) ConnectWallet(ctx context.Context, id uuid.UUID, address, provider string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallets (player_id, wallet_address, wallet_type, connected_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (player_id) DO UPDATE SET
			wallet_address = $2, wallet_type = $3, verified = FALSE, connected_at = now()
	`, id.String(), address, provider)
	if err != nil {
		return oops.Code("WALLET_CONNECT_FAILED").With("identity", id.String()).Wrap(err)
	}
	return nil
}

// SetWalletVerified flips the binding's verified flag.
func (s *Postgres) SetWalletVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE wallets SET verified = $1 WHERE player_id = $2`, verified, id.String())
	if err != nil {
		return oops.Code("WALLET_VERIFY_FAILED").With("identity", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// DisconnectWallet removes the entire binding row.
func (s *Postgres) DisconnectWallet(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM wallets WHERE player_id = $1`, id.String())
	if err != nil {
		return oops.Code("WALLET_DISCONNECT_FAILED").With("identity", id.String()).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}
