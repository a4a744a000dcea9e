package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/velamar/fueleu/internal/application"
	"github.com/velamar/fueleu/internal/config"
	"github.com/velamar/fueleu/internal/infrastructure/cache"
	"github.com/velamar/fueleu/internal/infrastructure/db"
	httpiface "github.com/velamar/fueleu/internal/interfaces/http"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	manager, err := db.NewManager(cfg.DB)
	if err != nil {
		return err
	}
	defer manager.Close()

	repos := manager.Repository()

	var fleetCache application.FleetReportCache
	if cfg.Cache.Enabled {
		fleetCache = cache.New(cfg.Cache)
		log.Info().Str("addr", cfg.Cache.Addr).Dur("ttl", cfg.Cache.TTL).Msg("fleet-report cache enabled")
	}

	complianceSvc := application.NewComplianceService(repos, cfg.Compliance.Params, cfg.Compliance.LegacyRouteFallback, fleetCache)
	bankingSvc := application.NewBankingService(repos)
	poolingSvc := application.NewPoolingService(repos)
	routesSvc := application.NewRoutesService(repos)

	metrics := httpiface.NewMetricsRegistry()
	handlers := httpiface.NewHandlers(complianceSvc, bankingSvc, poolingSvc, routesSvc, metrics)
	server := httpiface.NewServer(cfg.HTTP, handlers, metrics, manager)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
