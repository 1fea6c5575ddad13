// Package main provides emeraldstate, an operator CLI for inspecting and
// maintaining a store directory without going through a wallet process.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emerald-wallet/state/internal/storeconfig"
	"github.com/emerald-wallet/state/pkg/logging"
	"github.com/emerald-wallet/state/store"
)

var (
	version  = "0.1.0-dev"
	dataDir  string
	logLevel string
	log      *logging.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "emeraldstate",
		Short: "Inspect and maintain an emerald wallet state store",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logging.New(&logging.Config{Level: logLevel, TimeFormat: time.TimeOnly})
			logging.SetDefault(log)
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Store directory (default: platform default path)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newOpenCmd(), newMigrateCmd(), newGCCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	return storeconfig.DefaultPath()
}

func openStore() (*store.Store, error) {
	path, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	return store.Open(path, store.WithLogger(log))
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the store, running pending migrations, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := s.CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("store opened", "schema_version", v)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending schema migrations and report the resulting version",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := s.CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("migrations complete", "schema_version", v)
			return nil
		},
	}
}

func newGCCmd() *cobra.Command {
	var allowanceWallet string

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Purge expired cache entries, optionally removing a wallet's allowances",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := context.Background()
			cachePurged, err := s.CachePurge(ctx)
			if err != nil {
				return fmt.Errorf("purging cache: %w", err)
			}
			log.Info("cache purged", "removed", cachePurged)

			if allowanceWallet != "" {
				removed, err := s.AllowanceRemove(ctx, allowanceWallet, nil, nil)
				if err != nil {
					return fmt.Errorf("purging allowances: %w", err)
				}
				log.Info("allowances removed", "wallet", allowanceWallet, "removed", removed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&allowanceWallet, "allowance-wallet", "", "Also remove every allowance for this wallet id")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
