// Package config loads process configuration from MISSIONHQ_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abhisek/missionhq/internal/llm"
	"github.com/abhisek/missionhq/internal/store"
)

// Prefix is prepended to every variable name.
const Prefix = "MISSIONHQ_"

// Config is the full process configuration.
type Config struct {
	Addr           string        `env:"ADDR" envDefault:":8080"`
	DB             string        `env:"DB"`
	DBDriver       string        `env:"DB_DRIVER" envDefault:"sqlite"`
	LogMode        string        `env:"LOG_MODE" envDefault:"dev"`
	QRSecret       string        `env:"QR_SECRET"`
	QRTTL          time.Duration `env:"QR_TTL" envDefault:"24h"`
	GraphCacheSize int           `env:"GRAPH_CACHE_SIZE" envDefault:"64"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`

	Otel OtelConfig `envPrefix:"OTEL_"`
	LLM  llm.Config
}

// OtelConfig controls tracing. Tracing is off unless Enabled is set; with no
// endpoint, spans go to stdout.
type OtelConfig struct {
	Enabled     bool              `env:"ENABLED"`
	ServiceName string            `env:"SERVICE_NAME" envDefault:"missionhq"`
	Environment string            `env:"ENVIRONMENT" envDefault:"dev"`
	Endpoint    string            `env:"ENDPOINT"`
	Insecure    bool              `env:"INSECURE"`
	Headers     map[string]string `env:"HEADERS"`
	SampleRatio float64           `env:"SAMPLE_RATIO" envDefault:"1"`
}

// Load reads the environment. An empty DB resolves to the default database
// path for the sqlite driver.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense.
func (c Config) Validate() error {
	switch {
	case c.GraphCacheSize < 0:
		return fmt.Errorf("%sGRAPH_CACHE_SIZE must not be negative", Prefix)
	case c.QRTTL < 0:
		return fmt.Errorf("%sQR_TTL must not be negative", Prefix)
	case c.QRSecret != "" && len(c.QRSecret) < 16:
		return fmt.Errorf("%sQR_SECRET must be at least 16 bytes", Prefix)
	case c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1:
		return fmt.Errorf("%sOTEL_SAMPLE_RATIO must be within [0, 1]", Prefix)
	}
	return c.LLM.Validate()
}

// DSN returns the data source for DBDriver, resolving the default sqlite
// path when DB is empty.
func (c Config) DSN() (string, error) {
	if c.DB != "" {
		return c.DB, nil
	}
	switch c.DBDriver {
	case "", store.DriverSQLite, "sqlite3":
		return store.DefaultDBPath()
	}
	return "", fmt.Errorf("%sDB is required for the %s driver", Prefix, c.DBDriver)
}
