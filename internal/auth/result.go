// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package auth

// Status tags the outcome of a facade flow. Every failure is
// user-recoverable except StatusStoreFailure, which the caller should
// display as a generic error.
type Status int

const (
	// StatusOK means the flow completed.
	StatusOK Status = iota

	// StatusAlreadyAuthenticated: the identity already holds an
	// authenticated session this connection.
	StatusAlreadyAuthenticated

	// StatusNotAuthenticated: the flow requires an authenticated session.
	StatusNotAuthenticated

	// StatusAlreadyRegistered: the identity already has credentials.
	StatusAlreadyRegistered

	// StatusNotRegistered: the identity has no credentials yet.
	StatusNotRegistered

	// StatusPasswordMismatch: password and confirmation differ.
	StatusPasswordMismatch

	// StatusPasswordTooShort: below the configured minimum length.
	StatusPasswordTooShort

	// StatusPasswordTooLong: above the configured maximum length.
	StatusPasswordTooLong

	// StatusInvalidCredentials: wrong password. The attempt counter has
	// been incremented; Result.AttemptsRemaining carries the balance.
	StatusInvalidCredentials

	// StatusRateLimited: too many failed logins; retry after decay.
	StatusRateLimited

	// StatusRegistrationLimit: the origin reached its registration
	// ceiling. Never resets for the process lifetime.
	StatusRegistrationLimit

	// StatusNoWallet: the flow requires a connected wallet binding.
	StatusNoWallet

	// StatusWalletConnected: the identity already has a wallet binding.
	StatusWalletConnected

	// StatusStoreFailure: the credential store failed. Logged; no
	// partial state was left behind.
	StatusStoreFailure
)

// String returns a stable label for logging and display lookup.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAlreadyAuthenticated:
		return "already_authenticated"
	case StatusNotAuthenticated:
		return "not_authenticated"
	case StatusAlreadyRegistered:
		return "already_registered"
	case StatusNotRegistered:
		return "not_registered"
	case StatusPasswordMismatch:
		return "password_mismatch"
	case StatusPasswordTooShort:
		return "password_too_short"
	case StatusPasswordTooLong:
		return "password_too_long"
	case StatusInvalidCredentials:
		return "invalid_credentials"
	case StatusRateLimited:
		return "rate_limited"
	case StatusRegistrationLimit:
		return "registration_limit"
	case StatusNoWallet:
		return "no_wallet"
	case StatusWalletConnected:
		return "wallet_connected"
	case StatusStoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of a facade flow.
type Result struct {
	Status Status

	// AttemptsRemaining accompanies StatusInvalidCredentials. May be
	// negative; display semantics are the caller's concern.
	AttemptsRemaining int
}

// OK reports whether the flow succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func ok() Result { return Result{Status: StatusOK} }

func fail(s Status) Result { return Result{Status: s} }

func denied(remaining int) Result {
	return Result{Status: StatusInvalidCredentials, AttemptsRemaining: remaining}
}
