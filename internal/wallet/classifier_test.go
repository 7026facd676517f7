// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package wallet_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walletgate/walletgate/internal/wallet"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "44-char base58 is Phantom",
			address: "DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK",
			want:    wallet.ProviderPhantom,
		},
		{
			name:    "43-char base58 is Solana",
			address: "So11111111111111111111111111111111111111112",
			want:    wallet.ProviderSolana,
		},
		{
			name:    "32-char base58 is Solana",
			address: strings.Repeat("A", 32),
			want:    wallet.ProviderSolana,
		},
		{
			name:    "31 chars is too short",
			address: strings.Repeat("A", 31),
			want:    wallet.ProviderUnknown,
		},
		{
			name:    "45 chars is too long",
			address: strings.Repeat("A", 45),
			want:    wallet.ProviderUnknown,
		},
		{
			name:    "excluded alphabet characters",
			address: strings.Repeat("A", 43) + "O",
			want:    wallet.ProviderUnknown,
		},
		{
			name:    "zero digit is not base58",
			address: "0" + strings.Repeat("A", 43),
			want:    wallet.ProviderUnknown,
		},
		{
			name:    "empty string",
			address: "",
			want:    wallet.ProviderUnknown,
		},
		{
			name:    "whitespace padding",
			address: " DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK",
			want:    wallet.ProviderUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wallet.Classify(tt.address))
		})
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, wallet.IsValidAddress("DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK"))
	assert.True(t, wallet.IsValidAddress(strings.Repeat("A", 32)))
	assert.False(t, wallet.IsValidAddress(strings.Repeat("A", 31)))
	assert.False(t, wallet.IsValidAddress("not a wallet"))
}
