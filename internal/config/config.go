package config

import (
	"errors"
	"time"
)

var ErrMissingDSN = errors.New("PG_DSN is required for postgres storage")

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN" default:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

func (c PostgresConfig) Validate() error {
	if c.DSN == "" {
		return ErrMissingDSN
	}

	return nil
}

// OracleConfig selects how the engine reaches the randomness oracle.
// Mode "local" runs the VRF oracle in-process on the same database,
// mode "http" talks to a standalone oracle at URL.
type OracleConfig struct {
	Mode            string        `env:"ORACLE_MODE" default:"local"`
	URL             string        `env:"ORACLE_URL" default:"http://localhost:8090"`
	RequestTimeout  time.Duration `env:"ORACLE_REQUEST_TIMEOUT" default:"5s"`
	SigningKey      string        `env:"VRF_SIGNING_KEY" default:""`
	FulfillSchedule string        `env:"VRF_FULFILL_SCHEDULE" default:"@every 2s"`
	FulfillBatch    int           `env:"VRF_FULFILL_BATCH" default:"100"`
}

type KeeperConfig struct {
	Enabled  bool   `env:"KEEPER_ENABLED" default:"true"`
	Schedule string `env:"KEEPER_SCHEDULE" default:"@every 5s"`
	Batch    int    `env:"KEEPER_BATCH" default:"50"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER" default:"coinflip"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" default:"24h"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" default:"10"`
	Burst int     `env:"RATE_LIMIT_BURST" default:"20"`
}
