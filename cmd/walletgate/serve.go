// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/walletgate/walletgate/internal/auth"
	"github.com/walletgate/walletgate/internal/config"
	"github.com/walletgate/walletgate/internal/logging"
	"github.com/walletgate/walletgate/internal/observability"
	"github.com/walletgate/walletgate/internal/session"
	"github.com/walletgate/walletgate/internal/store"
	"github.com/walletgate/walletgate/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the WalletGate service",
		Long: `Start the authentication engine with its observability endpoints.
The engine connects to PostgreSQL, serves Prometheus metrics and health
probes, and runs wallet-link polling when wallet linking is enabled.`,
		RunE: runServe,
	}
}

// deps holds the assembled engine components for the lifetime of the
// serve command.
type deps struct {
	store       *store.Postgres
	sessions    *session.Store
	service     *auth.Service
	coordinator *wallet.Coordinator
	obs         *observability.Server
}

// sessionPresence adapts the session store to the coordinator's
// presence check.
type sessionPresence struct {
	sessions *session.Store
}

func (p sessionPresence) Online(id uuid.UUID) bool {
	return p.sessions.HasActive(id)
}

func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}

	hasher := auth.NewPBKDF2Hasher(cfg.Auth.HashIterations)

	pg, err := store.Connect(ctx, cfg.DatabaseURL, hasher)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.Auth.SessionTimeout())
	attempts := session.NewAttemptLimiter(cfg.Auth.MaxLoginAttempts, cfg.Auth.AttemptDecay())
	throttle := session.NewRegistrationThrottle(cfg.Auth.RegisterIPLimit)

	obs := observability.NewServer(cfg.ListenAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pg.Ping(pingCtx) == nil
	})
	obs.TrackSessions(sessions.Count)

	service := auth.NewServiceWithRegistry(pg, hasher, sessions, attempts, throttle, auth.Config{
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		MaxPasswordLength: cfg.Auth.MaxPasswordLength,
	}, obs.Registry())

	d := &deps{
		store:    pg,
		sessions: sessions,
		service:  service,
		obs:      obs,
	}

	if cfg.Wallet.Enabled {
		client := wallet.NewHTTPStatusClient(cfg.Wallet.BaseURL, nil)
		d.coordinator = wallet.NewCoordinatorWithRegistry(
			pg, sessions, sessionPresence{sessions: sessions}, client,
			wallet.Config{
				BaseURL:      cfg.Wallet.BaseURL,
				PollInterval: cfg.Wallet.PollInterval(),
				LinkTimeout:  cfg.Wallet.LinkTimeout(),
			}, obs.Registry())
	}

	return d, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("walletgate", version, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.store.Close()

	errCh, err := d.obs.Start()
	if err != nil {
		return err
	}

	slog.Info("walletgate ready",
		"wallet_linking", cfg.Wallet.Enabled,
		"require_login", cfg.Auth.RequireLogin,
		"metrics_addr", d.obs.Addr())

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr, ok := <-errCh:
		if ok && serveErr != nil {
			return oops.Code("OBSERVABILITY_FAILED").Wrap(serveErr)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return d.obs.Stop(stopCtx)
}
