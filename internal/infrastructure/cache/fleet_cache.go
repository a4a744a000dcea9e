// Package cache provides a Redis read-through cache for the fleet-wide
// adjusted balance report. The report touches every ship's compliance record
// and ledger sum, so dashboards polling it would otherwise hammer the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/velamar/fueleu/internal/persistence"
)

// Config holds cache configuration
type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns cache defaults. Disabled until configured.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  30 * time.Second,
	}
}

// FleetCache caches fleet reports keyed by year. All Redis calls go through a
// circuit breaker: a broken cache degrades every lookup to a miss instead of
// adding Redis timeouts to each request.
type FleetCache struct {
	client  redis.Cmdable
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
}

// New creates a fleet cache backed by a Redis client.
func New(cfg Config) *FleetCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.TTL)
}

// NewWithClient creates a fleet cache over an existing client.
func NewWithClient(client redis.Cmdable, ttl time.Duration) *FleetCache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fleet-report-cache",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A miss is not a cache failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})

	return &FleetCache{
		client:  client,
		breaker: breaker,
		ttl:     ttl,
	}
}

// Get returns the cached report for the year, or false on miss, cache failure
// or open breaker.
func (c *FleetCache) Get(ctx context.Context, year int) ([]persistence.AdjustedBalance, bool) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, fleetKey(year)).Result()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int("year", year).Msg("fleet cache read failed")
		}
		return nil, false
	}

	var balances []persistence.AdjustedBalance
	if err := json.Unmarshal([]byte(result.(string)), &balances); err != nil {
		log.Warn().Err(err).Int("year", year).Msg("fleet cache payload corrupt")
		return nil, false
	}

	return balances, true
}

// Set stores the report for the year. Failures are logged and swallowed.
func (c *FleetCache) Set(ctx context.Context, year int, balances []persistence.AdjustedBalance) {
	payload, err := json.Marshal(balances)
	if err != nil {
		log.Warn().Err(err).Int("year", year).Msg("fleet cache marshal failed")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, fleetKey(year), payload, c.ttl).Err()
	})
	if err != nil {
		log.Warn().Err(err).Int("year", year).Msg("fleet cache write failed")
	}
}

func fleetKey(year int) string {
	return fmt.Sprintf("fleet:adjusted-cb:%d", year)
}
