// Package coinflip is the pool lifecycle state machine:
//
//	Open --join--> AwaitingRandomness --settle--> Settled
//	Open --cancel--> Cancelled
//
// Every transition runs inside one storage transaction, so a failed call
// leaves no trace.
package coinflip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/infra/metrics"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/storage"
)

const (
	SideHeads uint8 = 0
	SideTails uint8 = 1
)

type Service struct {
	store   storage.Store
	oracle  oracle.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(store storage.Store, oc oracle.Client, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		oracle:  oc,
		metrics: m,
		logger:  logger.With("component", "coinflip"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Get(ctx context.Context, poolID uint64) (pools.Pool, error) {
	var p pools.Pool

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.Pools().Get(ctx, poolID)
		return err
	})
	if err != nil {
		return pools.Pool{}, fmt.Errorf("get pool: %w", err)
	}

	return p, nil
}

func (s *Service) List(ctx context.Context, f pools.Filter) ([]pools.Pool, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("list pools: unknown status %q: %w", f.Status, apperr.ErrInvalidPoolStatus)
	}

	var out []pools.Pool

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Pools().List(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	return out, nil
}

func (s *Service) observe(op string, err error) {
	if err == nil {
		s.metrics.Operation(op, "ok")
		return
	}

	code := apperr.CodeOf(err)
	if code == "" {
		code = "error"
	}

	s.metrics.Operation(op, code)

	// expected rejections are not worth more than debug noise
	if apperr.KindOf(err) != apperr.KindUnknown || errors.Is(err, context.Canceled) {
		s.logger.Debug("operation rejected", "op", op, "code", code, "err", err)
		return
	}

	s.logger.Error("operation failed", "op", op, "err", err)
}

func validSide(side uint8) bool {
	return side == SideHeads || side == SideTails
}
