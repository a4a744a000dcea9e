package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "fueleu"
	version = "v1.2.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "FuelEU Maritime compliance ledger and pooling service",
		Version: version,
		Long: `FuelEU Maritime compliance ledger and pooling service.

Tracks greenhouse-gas compliance balances per ship-year, banks surplus across
years on an append-only ledger, and forms compliance pools where surplus
members offset deficit members.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		levelStr, _ := cmd.Flags().GetString("log-level")
		if level, err := zerolog.ParseLevel(levelStr); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the compliance API server",
		Long:  "Starts the HTTP API with /health and /metrics endpoints, backed by PostgreSQL and an optional Redis fleet-report cache",
		RunE:  runServe,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the ledger database schema",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
