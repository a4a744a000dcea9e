// Package config loads service configuration from an optional YAML file with
// environment overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/velamar/fueleu/internal/domain/compliance"
	"github.com/velamar/fueleu/internal/infrastructure/cache"
	"github.com/velamar/fueleu/internal/infrastructure/db"
	httpiface "github.com/velamar/fueleu/internal/interfaces/http"
)

// ComplianceConfig holds calculator parameters and compatibility switches.
type ComplianceConfig struct {
	compliance.Params `yaml:",inline"`

	// LegacyRouteFallback resolves an unknown ship id as a route id. Deprecated
	// compatibility path for pre-registry imports; off by default.
	LegacyRouteFallback bool `yaml:"legacy_route_fallback"`
}

// Config is the full service configuration.
type Config struct {
	HTTP       httpiface.ServerConfig `yaml:"http"`
	DB         db.Config              `yaml:"db"`
	Cache      cache.Config           `yaml:"cache"`
	Compliance ComplianceConfig       `yaml:"compliance"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP:  httpiface.DefaultServerConfig(),
		DB:    db.DefaultConfig(),
		Cache: cache.DefaultConfig(),
		Compliance: ComplianceConfig{
			Params: compliance.DefaultParams(),
		},
	}
}

// Load reads configuration from path (optional, "" skips the file) over the
// defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
		cfg.Cache.Enabled = true
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
}
