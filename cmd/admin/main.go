// Command admin operates a coinflip deployment directly against its database:
// registry setup, dev credits and player token issuance.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/coinflip/internal/config"
	"github.com/fastprodman/coinflip/internal/infra/logging"
	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/storage"
	storagepg "github.com/fastprodman/coinflip/internal/storage/postgres"
	"github.com/fastprodman/coinflip/pkg/envconf"
)

type adminConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"warn"`
	Postgres config.PostgresConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(ctx, deps{
		openStore: openPostgres,
		loadAuth:  loadAuth,
	})

	err := root.Execute()
	if err != nil {
		stop()
		//nolint:gocritic
		os.Exit(1)
	}
}

func openPostgres(ctx context.Context) (storage.Store, func(), error) {
	cfg := new(adminConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	err = cfg.Postgres.Validate()
	if err != nil {
		return nil, nil, err
	}

	logging.SetupJSON(cfg.LogLevel)

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	return storagepg.New(db), func() { _ = db.Close() }, nil
}

func loadAuth() (config.AuthConfig, error) {
	var cfg config.AuthConfig

	err := envconf.Load(&cfg)
	if err != nil {
		return config.AuthConfig{}, fmt.Errorf("load auth config: %w", err)
	}

	return cfg, nil
}
