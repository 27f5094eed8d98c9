package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/coinflip/internal/config"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"

	oracleLocal = "local"
	oracleHTTP  = "http"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	Storage         string        `env:"STORAGE" default:"postgres"`
	TokenDecimals   int32         `env:"TOKEN_DECIMALS" default:"9"`

	Postgres  config.PostgresConfig
	Oracle    config.OracleConfig
	Keeper    config.KeeperConfig
	Auth      config.AuthConfig
	RateLimit config.RateLimitConfig
}

func (c *apiConfig) validate() error {
	switch c.Storage {
	case storagePostgres:
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	case storageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	switch c.Oracle.Mode {
	case oracleLocal, oracleHTTP:
	default:
		return fmt.Errorf("unknown ORACLE_MODE %q", c.Oracle.Mode)
	}

	if c.TokenDecimals < 0 || c.TokenDecimals > 18 {
		return fmt.Errorf("TOKEN_DECIMALS out of range: %d", c.TokenDecimals)
	}

	return nil
}
