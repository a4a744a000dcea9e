package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/velamar/fueleu/internal/config"
	"github.com/velamar/fueleu/internal/infrastructure/db"
	"github.com/velamar/fueleu/internal/persistence/postgres"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	manager, err := db.NewManager(cfg.DB)
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := postgres.Migrate(ctx, manager.DB()); err != nil {
		return err
	}

	log.Info().Msg("schema applied")
	return nil
}
