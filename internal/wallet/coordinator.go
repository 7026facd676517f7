// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package wallet

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/walletgate/walletgate/internal/session"
)

// Poll loop defaults.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultLinkTimeout  = 5 * time.Minute
)

// Issue precondition failures.
var (
	// ErrNotAuthenticated: wallet linking requires an authenticated session.
	ErrNotAuthenticated = oops.Code("WALLET_NOT_AUTHENTICATED").Errorf("identity has no authenticated session")

	// ErrAlreadyLinked: the identity already has a wallet binding.
	ErrAlreadyLinked = oops.Code("WALLET_ALREADY_LINKED").Errorf("identity already has a connected wallet")
)

// Outcome is the terminal state of a link handshake.
type Outcome int

const (
	// OutcomeLinked: the provider confirmed a connected wallet and the
	// binding was written.
	OutcomeLinked Outcome = iota

	// OutcomeTimedOut: the attempt budget or wall-clock window ran out.
	OutcomeTimedOut

	// OutcomeCancelled: the identity went offline, the ticket was
	// superseded, the context was cancelled, or the binding write failed.
	OutcomeCancelled
)

// String returns a stable label for logging and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeLinked:
		return "linked"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// LinkResult is delivered on LinkRequest.Done when the handshake ends.
type LinkResult struct {
	Outcome  Outcome
	Address  string // set when Outcome is OutcomeLinked
	Provider string // set when Outcome is OutcomeLinked
}

// LinkRequest is returned by Issue for the caller to present to the
// player: a browser link, a QR-flavored variant, and the advertised
// expiry window. Done receives exactly one LinkResult and is closed.
type LinkRequest struct {
	URL       string
	QRURL     string
	Nonce     string
	ExpiresIn time.Duration
	Done      <-chan LinkResult
}

// Presence reports whether an identity is still connected to the host.
// The poll loop checks it at the top of every tick so a departed
// player's handshake is cancelled cooperatively.
type Presence interface {
	Online(id uuid.UUID) bool
}

// BindingStore is the slice of the credential store the coordinator
// writes through.
type BindingStore interface {
	// HasWallet reports whether the identity has a wallet binding.
	HasWallet(ctx context.Context, id uuid.UUID) (bool, error)

	// ConnectWallet creates or replaces the identity's wallet binding.
	ConnectWallet(ctx context.Context, id uuid.UUID, address, provider string) error

	// SetWalletVerified flips the binding's verified flag.
	SetWalletVerified(ctx context.Context, id uuid.UUID, verified bool) error
}

// Config carries the coordinator's timing and endpoint knobs.
type Config struct {
	// BaseURL of the external wallet provider web app.
	BaseURL string

	// PollInterval between status checks. Default DefaultPollInterval.
	PollInterval time.Duration

	// LinkTimeout bounds the whole handshake. Default DefaultLinkTimeout.
	// Both the attempt budget (LinkTimeout / PollInterval) and a
	// wall-clock timer enforce it, so the advertised expiry holds even
	// when the two knobs are configured inconsistently.
	LinkTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.LinkTimeout <= 0 {
		c.LinkTimeout = DefaultLinkTimeout
	}
	return c
}

// Coordinator runs the wallet-link handshake: it issues tickets and
// polls the provider in a background goroutine per outstanding ticket,
// off the command-dispatch path.
type Coordinator struct {
	store    BindingStore
	sessions *session.Store
	presence Presence
	client   StatusClient
	tickets  *TicketStore
	cfg      Config

	polls *prometheus.CounterVec
	links *prometheus.CounterVec
}

// NewCoordinator creates a wallet-link coordinator.
func NewCoordinator(store BindingStore, sessions *session.Store, presence Presence,
	client StatusClient, cfg Config) *Coordinator {
	return newCoordinator(store, sessions, presence, client, cfg, nil)
}

// NewCoordinatorWithRegistry creates a coordinator and registers its
// poll/link counters with the provided Prometheus registry.
func NewCoordinatorWithRegistry(store BindingStore, sessions *session.Store, presence Presence,
	client StatusClient, cfg Config, reg prometheus.Registerer) *Coordinator {
	return newCoordinator(store, sessions, presence, client, cfg, reg)
}

func newCoordinator(store BindingStore, sessions *session.Store, presence Presence,
	client StatusClient, cfg Config, reg prometheus.Registerer) *Coordinator {
	c := &Coordinator{
		store:    store,
		sessions: sessions,
		presence: presence,
		client:   client,
		tickets:  NewTicketStore(),
		cfg:      cfg.withDefaults(),
	}

	if reg != nil {
		c.polls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_wallet_polls_total",
			Help: "Total wallet status poll attempts by result",
		}, []string{"result"})
		c.links = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_wallet_links_total",
			Help: "Total wallet link handshakes by outcome",
		}, []string{"outcome"})
		reg.MustRegister(c.polls, c.links)
	}

	return c
}

func (c *Coordinator) countPoll(result string) {
	if c.polls != nil {
		c.polls.WithLabelValues(result).Inc()
	}
}

func (c *Coordinator) countLink(o Outcome) {
	if c.links != nil {
		c.links.WithLabelValues(o.String()).Inc()
	}
}

// Issue starts a link handshake for an authenticated identity with no
// existing binding. It stores a fresh ticket (overwriting any prior
// one; the superseded poll loop aborts on its next tick) and spawns
// the poll loop. The handshake ends when ctx is cancelled, the player
// leaves, the provider confirms, or the window closes.
func (c *Coordinator) Issue(ctx context.Context, id uuid.UUID, displayName string) (*LinkRequest, error) {
	if !c.sessions.IsAuthenticated(id) {
		return nil, ErrNotAuthenticated
	}

	linked, err := c.store.HasWallet(ctx, id)
	if err != nil {
		return nil, oops.Code("WALLET_LOOKUP_FAILED").With("identity", id.String()).Wrap(err)
	}
	if linked {
		return nil, ErrAlreadyLinked
	}

	ticket, err := c.tickets.Issue(id)
	if err != nil {
		return nil, err
	}

	done := make(chan LinkResult, 1)
	go c.poll(ctx, ticket, done)

	slog.Info("wallet link issued",
		"identity", id.String(),
		"session", ticket.SessionID,
		"expires_in", c.cfg.LinkTimeout,
	)

	return &LinkRequest{
		URL:       LoginURL(c.cfg.BaseURL, ticket.SessionID, ticket.Nonce, displayName),
		QRURL:     QRLoginURL(c.cfg.BaseURL, ticket.SessionID, ticket.Nonce, displayName),
		Nonce:     ticket.Nonce,
		ExpiresIn: c.cfg.LinkTimeout,
		Done:      done,
	}, nil
}

// VerifyNonce consumes the identity's outstanding nonce and reports
// whether the supplied value matched. Legacy manual-entry primitive.
func (c *Coordinator) VerifyNonce(id uuid.UUID, nonce string) bool {
	return c.tickets.VerifyNonce(id, nonce)
}

// HasTicket reports whether the identity has an outstanding ticket.
func (c *Coordinator) HasTicket(id uuid.UUID) bool {
	_, ok := c.tickets.Get(id)
	return ok
}

// poll drives one handshake to a terminal state. It holds a copy of
// the ticket it was started for and re-reads the current one each tick
// so a stale loop can never complete a link against a newer ticket.
func (c *Coordinator) poll(ctx context.Context, ticket Ticket, done chan<- LinkResult) {
	defer close(done)

	id := ticket.Identity
	maxAttempts := int(c.cfg.LinkTimeout / c.cfg.PollInterval)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	// Wall-clock backstop: the advertised expiry holds even when the
	// attempt budget and interval disagree.
	expiry := time.NewTimer(c.cfg.LinkTimeout)
	defer expiry.Stop()

	finish := func(res LinkResult) {
		c.countLink(res.Outcome)
		done <- res
	}

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			finish(LinkResult{Outcome: OutcomeCancelled})
			return

		case <-expiry.C:
			c.timeOut(ticket)
			finish(LinkResult{Outcome: OutcomeTimedOut})
			return

		case <-ticker.C:
			attempts++

			// Departed players cancel the handshake with no side effects.
			if !c.presence.Online(id) {
				finish(LinkResult{Outcome: OutcomeCancelled})
				return
			}

			// A newer ticket replaced ours; abort silently.
			current, okT := c.tickets.Get(id)
			if !okT || current.SessionID != ticket.SessionID {
				finish(LinkResult{Outcome: OutcomeCancelled})
				return
			}

			// Linked through another path concurrently.
			if linked, err := c.store.HasWallet(ctx, id); err == nil && linked {
				c.tickets.DiscardMatching(ticket)
				finish(LinkResult{Outcome: OutcomeLinked})
				return
			}

			status, err := c.client.SessionStatus(ctx, ticket.SessionID)
			if err != nil {
				// Transport or parse failure is a counted miss, not a
				// terminal failure.
				c.countPoll("miss")
				slog.Debug("wallet status check missed",
					"identity", id.String(),
					"session", ticket.SessionID,
					"attempt", attempts,
					"error", err,
				)
				if attempts >= maxAttempts {
					c.timeOut(ticket)
					finish(LinkResult{Outcome: OutcomeTimedOut})
					return
				}
				continue
			}

			if status.Connected && status.WalletAddress != "" {
				c.countPoll("connected")
				res := c.completeLink(ctx, ticket, status.WalletAddress)
				finish(res)
				return
			}

			c.countPoll("pending")
			if attempts >= maxAttempts {
				c.timeOut(ticket)
				finish(LinkResult{Outcome: OutcomeTimedOut})
				return
			}
		}
	}
}

// completeLink writes the verified binding through the store, flips
// the session flag, and discards the ticket.
func (c *Coordinator) completeLink(ctx context.Context, ticket Ticket, address string) LinkResult {
	id := ticket.Identity
	provider := Classify(address)

	if err := c.store.ConnectWallet(ctx, id, address, provider); err != nil {
		slog.Error("wallet binding write failed",
			"identity", id.String(),
			"session", ticket.SessionID,
			"error", err,
		)
		c.tickets.DiscardMatching(ticket)
		return LinkResult{Outcome: OutcomeCancelled}
	}

	if err := c.store.SetWalletVerified(ctx, id, true); err != nil {
		// Binding exists; verification flag catches up on the next link.
		slog.Warn("marking wallet verified failed", "identity", id.String(), "error", err)
	}

	c.sessions.SetWalletVerified(id, true)
	c.tickets.DiscardMatching(ticket)

	slog.Info("wallet linked",
		"identity", id.String(),
		"provider", provider,
		"address", address,
	)

	return LinkResult{Outcome: OutcomeLinked, Address: address, Provider: provider}
}

// timeOut discards the ticket unless a newer one replaced it.
func (c *Coordinator) timeOut(ticket Ticket) {
	c.tickets.DiscardMatching(ticket)
	slog.Info("wallet link timed out",
		"identity", ticket.Identity.String(),
		"session", ticket.SessionID,
	)
}
