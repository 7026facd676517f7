// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

// Package wallet implements the wallet-link handshake: ticket
// issuance, external status polling, and address classification.
package wallet

import "regexp"

// Provider labels assigned by Classify.
const (
	ProviderPhantom = "Phantom"
	ProviderSolana  = "Solana"
	ProviderUnknown = "Unknown"
)

// Base58-encoded Solana addresses are 32-44 characters; the alphabet
// excludes 0, I, O, and l. Phantom addresses are the full 44.
var (
	solanaAddressRegex  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	phantomAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{44}$`)
)

// IsValidAddress reports whether the string is a plausible Solana
// wallet address.
func IsValidAddress(address string) bool {
	return solanaAddressRegex.MatchString(address)
}

// Classify maps a bare address string to a provider label from its
// structure alone. Total: any input yields a label, never an error.
func Classify(address string) string {
	switch {
	case phantomAddressRegex.MatchString(address):
		return ProviderPhantom
	case solanaAddressRegex.MatchString(address):
		return ProviderSolana
	default:
		return ProviderUnknown
	}
}
