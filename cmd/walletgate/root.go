// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 WalletGate Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/walletgate/walletgate/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile prefers the --config flag, then the XDG location.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	return xdg.DefaultConfigFile()
}

// NewRootCmd creates the root command for the WalletGate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walletgate",
		Short: "WalletGate - player authentication with Solana wallet linking",
		Long: `WalletGate is an authentication service for game servers. It manages
player registration, password login, and optional linking of Solana
wallets through an external provider web app.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
