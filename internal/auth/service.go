// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/walletgate/walletgate/internal/session"
)

// Password length defaults, overridable via Config.
const (
	DefaultMinPasswordLength = 6
	DefaultMaxPasswordLength = 32
)

// Config carries the facade's policy knobs.
type Config struct {
	MinPasswordLength int
	MaxPasswordLength int
}

func (c Config) withDefaults() Config {
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = DefaultMinPasswordLength
	}
	if c.MaxPasswordLength <= 0 {
		c.MaxPasswordLength = DefaultMaxPasswordLength
	}
	return c
}

// Service is the single entry point for the register, login, and
// change-password flows. Command handlers and connection-lifecycle
// hooks call it; it owns the ordering of checks and the updates to the
// in-process session state.
type Service struct {
	store         CredentialStore
	hasher        Hasher
	sessions      *session.Store
	attempts      *session.AttemptLimiter
	registrations *session.RegistrationThrottle
	cfg           Config

	loginOutcomes    *prometheus.CounterVec
	registerOutcomes *prometheus.CounterVec
}

// NewService creates the authentication facade.
func NewService(store CredentialStore, hasher Hasher, sessions *session.Store,
	attempts *session.AttemptLimiter, registrations *session.RegistrationThrottle, cfg Config) *Service {
	return newService(store, hasher, sessions, attempts, registrations, cfg, nil)
}

// NewServiceWithRegistry creates the facade and registers its outcome
// counters with the provided Prometheus registry.
func NewServiceWithRegistry(store CredentialStore, hasher Hasher, sessions *session.Store,
	attempts *session.AttemptLimiter, registrations *session.RegistrationThrottle, cfg Config,
	reg prometheus.Registerer) *Service {
	return newService(store, hasher, sessions, attempts, registrations, cfg, reg)
}

func newService(store CredentialStore, hasher Hasher, sessions *session.Store,
	attempts *session.AttemptLimiter, registrations *session.RegistrationThrottle, cfg Config,
	reg prometheus.Registerer) *Service {
	s := &Service{
		store:         store,
		hasher:        hasher,
		sessions:      sessions,
		attempts:      attempts,
		registrations: registrations,
		cfg:           cfg.withDefaults(),
	}

	if reg != nil {
		s.loginOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_logins_total",
			Help: "Total login flow outcomes by status",
		}, []string{"status"})
		s.registerOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_registrations_total",
			Help: "Total registration flow outcomes by status",
		}, []string{"status"})
		reg.MustRegister(s.loginOutcomes, s.registerOutcomes)
	}

	return s
}

func (s *Service) countLogin(r Result) Result {
	if s.loginOutcomes != nil {
		s.loginOutcomes.WithLabelValues(r.Status.String()).Inc()
	}
	return r
}

func (s *Service) countRegister(r Result) Result {
	if s.registerOutcomes != nil {
		s.registerOutcomes.WithLabelValues(r.Status.String()).Inc()
	}
	return r
}

// Register creates credentials for a new identity and opens an
// authenticated session. Checks run in a fixed order: already
// authenticated, already registered, confirmation match, length
// bounds, origin ceiling, then the store write. In-process state
// mutates only after the store confirms the write.
func (s *Service) Register(ctx context.Context, id uuid.UUID, displayName, origin, password, confirm string) Result {
	if s.sessions.IsAuthenticated(id) {
		return s.countRegister(fail(StatusAlreadyAuthenticated))
	}

	registered, err := s.store.IsRegistered(ctx, id)
	if err != nil {
		slog.Error("registration check failed", "identity", id.String(), "error", err)
		return s.countRegister(fail(StatusStoreFailure))
	}
	if registered {
		return s.countRegister(fail(StatusAlreadyRegistered))
	}

	if password != confirm {
		return s.countRegister(fail(StatusPasswordMismatch))
	}
	if len(password) < s.cfg.MinPasswordLength {
		return s.countRegister(fail(StatusPasswordTooShort))
	}
	if len(password) > s.cfg.MaxPasswordLength {
		return s.countRegister(fail(StatusPasswordTooLong))
	}

	if !s.registrations.Allowed(origin) {
		return s.countRegister(fail(StatusRegistrationLimit))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Error("password hashing failed", "identity", id.String(), "error", err)
		return s.countRegister(fail(StatusStoreFailure))
	}

	if err := s.store.Register(ctx, id, displayName, hash, origin); err != nil {
		slog.Error("registration failed", "identity", id.String(), "error", err)
		return s.countRegister(fail(StatusStoreFailure))
	}

	s.registrations.Record(origin)
	s.sessions.Create(id, origin)
	s.sessions.SetAuthenticated(id, true)

	// Best effort: registration already succeeded.
	if err := s.store.RecordLogin(ctx, id, origin); err != nil {
		slog.Warn("recording login after registration failed", "identity", id.String(), "error", err)
	}

	slog.Info("player registered", "identity", id.String(), "name", displayName, "origin", origin)
	return s.countRegister(ok())
}

// Login authenticates a registered identity and opens an authenticated
// session.
func (s *Service) Login(ctx context.Context, id uuid.UUID, origin, password string) Result {
	if s.sessions.IsAuthenticated(id) {
		return s.countLogin(fail(StatusAlreadyAuthenticated))
	}

	registered, err := s.store.IsRegistered(ctx, id)
	if err != nil {
		slog.Error("registration check failed", "identity", id.String(), "error", err)
		return s.countLogin(fail(StatusStoreFailure))
	}
	if !registered {
		return s.countLogin(fail(StatusNotRegistered))
	}

	if s.attempts.HasExceeded(id) {
		return s.countLogin(fail(StatusRateLimited))
	}

	valid, err := s.store.Authenticate(ctx, id, password)
	if err != nil {
		slog.Error("authentication failed", "identity", id.String(), "error", err)
		return s.countLogin(fail(StatusStoreFailure))
	}
	if !valid {
		remaining := s.attempts.RecordFailure(id)
		slog.Info("failed login attempt", "identity", id.String(), "origin", origin, "attempts_remaining", remaining)
		return s.countLogin(denied(remaining))
	}

	s.attempts.Reset(id)
	s.sessions.Create(id, origin)
	s.sessions.SetAuthenticated(id, true)

	// Both best effort: the login already succeeded.
	if err := s.store.RecordLogin(ctx, id, origin); err != nil {
		slog.Warn("recording login failed", "identity", id.String(), "error", err)
	}
	if err := s.store.SaveSession(ctx, id, origin); err != nil {
		slog.Warn("saving session row failed", "identity", id.String(), "error", err)
	}

	slog.Info("player logged in", "identity", id.String(), "origin", origin)
	return s.countLogin(ok())
}

// ChangePassword replaces the identity's password after re-checking
// the old one. The attempt counter is not touched here; lockout
// protects the login flow only.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword, confirm string) Result {
	if !s.sessions.IsAuthenticated(id) {
		return fail(StatusNotAuthenticated)
	}

	valid, err := s.store.Authenticate(ctx, id, oldPassword)
	if err != nil {
		slog.Error("authentication failed", "identity", id.String(), "error", err)
		return fail(StatusStoreFailure)
	}
	if !valid {
		return fail(StatusInvalidCredentials)
	}

	if newPassword != confirm {
		return fail(StatusPasswordMismatch)
	}
	if len(newPassword) < s.cfg.MinPasswordLength {
		return fail(StatusPasswordTooShort)
	}
	if len(newPassword) > s.cfg.MaxPasswordLength {
		return fail(StatusPasswordTooLong)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		slog.Error("password hashing failed", "identity", id.String(), "error", err)
		return fail(StatusStoreFailure)
	}

	if err := s.store.UpdatePassword(ctx, id, hash); err != nil {
		slog.Error("password update failed", "identity", id.String(), "error", err)
		return fail(StatusStoreFailure)
	}

	slog.Info("player changed password", "identity", id.String())
	return ok()
}

// HandleConnect persists the player row for a connecting identity,
// opens an unauthenticated session unless an unexpired one survives
// from a previous connection, and reports whether the identity is
// registered. The host decides what to prompt.
func (s *Service) HandleConnect(ctx context.Context, id uuid.UUID, displayName, origin string) (bool, error) {
	if err := s.store.SavePlayer(ctx, id, displayName, origin); err != nil {
		// Connection proceeds; the row is recreated on the next write.
		slog.Warn("saving player row failed", "identity", id.String(), "error", err)
	}

	if !s.sessions.HasActive(id) {
		s.sessions.Create(id, origin)
	}

	registered, err := s.store.IsRegistered(ctx, id)
	if err != nil {
		return false, err
	}
	return registered, nil
}

// HandleDisconnect drops the identity's in-process session unless it
// is authenticated; authenticated sessions survive until expiry so a
// quick reconnect does not force a fresh login.
func (s *Service) HandleDisconnect(id uuid.UUID) {
	sess, found := s.sessions.Get(id)
	if found && !sess.Authenticated {
		s.sessions.Remove(id)
	}
}

// Logout ends the identity's session, both in process and persisted.
func (s *Service) Logout(ctx context.Context, id uuid.UUID) Result {
	if !s.sessions.IsAuthenticated(id) {
		return fail(StatusNotAuthenticated)
	}

	s.sessions.Remove(id)
	if err := s.store.RemoveSession(ctx, id); err != nil {
		slog.Warn("removing session row failed", "identity", id.String(), "error", err)
	}

	slog.Info("player logged out", "identity", id.String())
	return ok()
}

// WalletInfo returns the identity's wallet binding.
func (s *Service) WalletInfo(ctx context.Context, id uuid.UUID) (*WalletBinding, Result) {
	if !s.sessions.IsAuthenticated(id) {
		return nil, fail(StatusNotAuthenticated)
	}

	binding, err := s.store.GetWallet(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fail(StatusNoWallet)
		}
		slog.Error("wallet lookup failed", "identity", id.String(), "error", err)
		return nil, fail(StatusStoreFailure)
	}

	return binding, ok()
}

// DisconnectWallet removes the identity's wallet binding entirely and
// clears the session's wallet-verified flag.
func (s *Service) DisconnectWallet(ctx context.Context, id uuid.UUID) Result {
	if !s.sessions.IsAuthenticated(id) {
		return fail(StatusNotAuthenticated)
	}

	if _, err := s.store.GetWallet(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(StatusNoWallet)
		}
		slog.Error("wallet lookup failed", "identity", id.String(), "error", err)
		return fail(StatusStoreFailure)
	}

	if err := s.store.DisconnectWallet(ctx, id); err != nil {
		slog.Error("wallet disconnect failed", "identity", id.String(), "error", err)
		return fail(StatusStoreFailure)
	}

	s.sessions.SetWalletVerified(id, false)

	slog.Info("player disconnected wallet", "identity", id.String())
	return ok()
}
