package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fastprodman/coinflip/internal/api"
	"github.com/fastprodman/coinflip/internal/auth"
	"github.com/fastprodman/coinflip/internal/infra/logging"
	"github.com/fastprodman/coinflip/internal/infra/metrics"
	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/keeper"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/oracle/httpclient"
	"github.com/fastprodman/coinflip/internal/oracle/vrf"
	"github.com/fastprodman/coinflip/internal/repos/randomness"
	randomnesspg "github.com/fastprodman/coinflip/internal/repos/randomness/postgres"
	"github.com/fastprodman/coinflip/internal/services/admin"
	"github.com/fastprodman/coinflip/internal/services/coinflip"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/services/treasury"
	"github.com/fastprodman/coinflip/internal/storage"
	"github.com/fastprodman/coinflip/internal/storage/memory"
	storagepg "github.com/fastprodman/coinflip/internal/storage/postgres"
	"github.com/fastprodman/coinflip/pkg/envconf"
	"github.com/fastprodman/coinflip/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
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

	// --- Infra ---
	store, requests, err := openStorage(ctx, cfg, queue)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	oc, err := openOracle(cfg, requests, logger, queue)
	if err != nil {
		return err
	}

	tokens, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// --- Services ---
	poolSvc := coinflip.New(store, oc, m, logger)

	if cfg.Keeper.Enabled {
		k, kerr := keeper.New(poolSvc, cfg.Keeper.Schedule, cfg.Keeper.Batch, m, logger)
		if kerr != nil {
			return fmt.Errorf("init keeper: %w", kerr)
		}

		k.Start()
		queue.Add("keeper", k.Stop)
	}

	// --- HTTP server ---
	srv, err := api.NewServer(cfg.Port, api.Deps{
		Pools:     poolSvc,
		Admin:     admin.New(store, logger),
		Ledger:    ledger.New(store, logger),
		Treasury:  treasury.New(store),
		Tokens:    tokens,
		Metrics:   m,
		Gatherer:  reg,
		RateLimit: cfg.RateLimit,
		Units:     api.Units{Decimals: cfg.TokenDecimals},
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	queue.Add("http", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "storage", cfg.Storage, "oracle", cfg.Oracle.Mode)

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

func openStorage(ctx context.Context, cfg *apiConfig, queue *shutdownqueue.Queue) (storage.Store, randomness.Requests, error) {
	if cfg.Storage == storageMemory {
		slog.Warn("using in-memory storage, state is lost on exit")

		return memory.New(), memory.NewRequests(), nil
	}

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	queue.Add("postgres", closeDB(db))

	return storagepg.New(db), randomnesspg.New(db), nil
}

func closeDB(db *sql.DB) shutdownqueue.Task {
	return func(context.Context) error {
		return db.Close()
	}
}

// openOracle runs the VRF oracle in-process for ORACLE_MODE=local, or
// connects to a standalone one for ORACLE_MODE=http.
func openOracle(cfg *apiConfig, requests randomness.Requests, logger *slog.Logger, queue *shutdownqueue.Queue) (oracle.Client, error) {
	if cfg.Oracle.Mode == oracleHTTP {
		c, err := httpclient.New(cfg.Oracle.URL, cfg.Oracle.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("init oracle client: %w", err)
		}

		return c, nil
	}

	key, err := vrf.ParseSigningKey(cfg.Oracle.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	svc := vrf.New(key, requests, logger)

	f, err := vrf.NewFulfiller(svc, cfg.Oracle.FulfillSchedule, cfg.Oracle.FulfillBatch)
	if err != nil {
		return nil, fmt.Errorf("init fulfiller: %w", err)
	}

	f.Start()
	queue.Add("vrf-fulfiller", f.Stop)

	if cfg.Oracle.SigningKey == "" {
		slog.Warn("VRF_SIGNING_KEY not set, using an ephemeral key")
	}

	return svc, nil
}
