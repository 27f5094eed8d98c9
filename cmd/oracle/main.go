// Command oracle serves the VRF randomness oracle over HTTP. Requests are
// persisted in postgres and answered by a scheduled fulfiller.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/coinflip/internal/config"
	"github.com/fastprodman/coinflip/internal/infra/logging"
	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/oracle/vrf"
	randomnesspg "github.com/fastprodman/coinflip/internal/repos/randomness/postgres"
	"github.com/fastprodman/coinflip/pkg/envconf"
	"github.com/fastprodman/coinflip/pkg/shutdownqueue"
)

type oracleConfig struct {
	Port            uint16        `env:"ORACLE_PORT" default:"8090"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"15s"`

	Postgres config.PostgresConfig
	Oracle   config.OracleConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running oracle: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(oracleConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	err = cfg.Postgres.Validate()
	if err != nil {
		return err
	}

	logger := logging.SetupJSON(cfg.LogLevel)
	queue := shutdownqueue.New(logger)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := queue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	queue.Add("postgres", func(context.Context) error { return db.Close() })

	key, err := vrf.ParseSigningKey(cfg.Oracle.SigningKey)
	if err != nil {
		return fmt.Errorf("parse signing key: %w", err)
	}

	if cfg.Oracle.SigningKey == "" {
		slog.Warn("VRF_SIGNING_KEY not set, using an ephemeral key")
	}

	svc := vrf.New(key, randomnesspg.New(db), logger)

	f, err := vrf.NewFulfiller(svc, cfg.Oracle.FulfillSchedule, cfg.Oracle.FulfillBatch)
	if err != nil {
		return fmt.Errorf("init fulfiller: %w", err)
	}

	f.Start()
	queue.Add("vrf-fulfiller", f.Stop)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           vrf.Router(svc),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	queue.Add("http", func(c context.Context) error {
		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("oracle started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
