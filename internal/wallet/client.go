// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// DefaultRequestTimeout bounds a single status request so a hung
// provider counts as a miss instead of stalling the poll tick.
const DefaultRequestTimeout = 10 * time.Second

// Status is the provider's answer for one link session.
// Any payload that doesn't decode into this shape is a miss.
type Status struct {
	Connected     bool   `json:"connected"`
	WalletAddress string `json:"walletAddress"`
}

// StatusClient queries the external wallet provider for the state of a
// link session.
type StatusClient interface {
	// SessionStatus fetches the status for the external session id.
	SessionStatus(ctx context.Context, sessionID string) (Status, error)
}

// HTTPStatusClient implements StatusClient against the provider's
// GET {base}/status?session={id} endpoint.
type HTTPStatusClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStatusClient creates a status client for the provider at
// baseURL. A nil httpClient gets a default with DefaultRequestTimeout.
func NewHTTPStatusClient(baseURL string, httpClient *http.Client) *HTTPStatusClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = DefaultRequestTimeout
	}
	return &HTTPStatusClient{baseURL: baseURL, client: httpClient}
}

// SessionStatus fetches the connection status for one link session.
func (c *HTTPStatusClient) SessionStatus(ctx context.Context, sessionID string) (Status, error) {
	endpoint := c.baseURL + "/status?session=" + url.QueryEscape(sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, oops.Code("WALLET_STATUS_REQUEST").With("session", sessionID).Wrap(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, oops.Code("WALLET_STATUS_UNREACHABLE").With("session", sessionID).Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return Status{}, oops.Code("WALLET_STATUS_HTTP").
			With("session", sessionID).
			With("status_code", resp.StatusCode).
			Errorf("unexpected status %d from wallet provider", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, oops.Code("WALLET_STATUS_DECODE").With("session", sessionID).Wrap(err)
	}

	return status, nil
}

// LoginURL builds the link URL the player opens in a browser:
// {base}/login?session={sid}&nonce={nonce}&player={name}.
func LoginURL(baseURL, sessionID, nonce, playerName string) string {
	q := url.Values{}
	q.Set("session", sessionID)
	q.Set("nonce", nonce)
	q.Set("player", playerName)
	return baseURL + "/login?" + q.Encode()
}

// QRLoginURL is the QR-flavored variant of LoginURL.
func QRLoginURL(baseURL, sessionID, nonce, playerName string) string {
	return LoginURL(baseURL, sessionID, nonce, playerName) + "&qr=true"
}
