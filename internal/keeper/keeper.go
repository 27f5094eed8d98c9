// Package keeper periodically cranks settlement of pools that are waiting
// for randomness. It only retries; every safety check lives in Settle.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/infra/metrics"
	"github.com/fastprodman/coinflip/internal/repos/pools"
)

// Settler is the part of the pool service the keeper drives.
type Settler interface {
	List(ctx context.Context, f pools.Filter) ([]pools.Pool, error)
	Settle(ctx context.Context, poolID uint64) (pools.Pool, error)
}

type Keeper struct {
	settler Settler
	batch   int
	metrics *metrics.Metrics
	logger  *slog.Logger
	cron    *cron.Cron

	mu     sync.Mutex
	cursor uint64 // last pool id attempted; 0 restarts from the oldest
}

func New(settler Settler, schedule string, batch int, m *metrics.Metrics, logger *slog.Logger) (*Keeper, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if batch <= 0 {
		batch = 50
	}

	k := &Keeper{
		settler: settler,
		batch:   batch,
		metrics: m,
		logger:  logger.With("component", "keeper"),
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	_, err := k.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := k.RunOnce(ctx); err != nil {
			k.logger.Error("keeper run", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule keeper %q: %w", schedule, err)
	}

	return k, nil
}

func (k *Keeper) Start() { k.cron.Start() }

func (k *Keeper) Stop(ctx context.Context) error {
	select {
	case <-k.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce attempts to settle one batch and returns how many pools settled.
// Pools still waiting on the oracle are skipped silently. Each run resumes
// after the last pool the previous run attempted and wraps to the oldest
// once a page comes back short.
func (k *Keeper) RunOnce(ctx context.Context) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	pending, err := k.settler.List(ctx, pools.Filter{
		Status:  pools.StatusAwaitingRandomness,
		AfterID: k.cursor,
		Limit:   k.batch,
	})
	if err != nil {
		return 0, fmt.Errorf("list awaiting pools: %w", err)
	}

	if len(pending) < k.batch {
		k.cursor = 0
	} else {
		k.cursor = pending[len(pending)-1].ID
	}

	settled := 0

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		_, err := k.settler.Settle(ctx, p.ID)

		switch {
		case err == nil:
			settled++
			k.metrics.KeeperAttempt("ok")
		case errors.Is(err, apperr.ErrStillProcessing):
			k.metrics.KeeperAttempt(apperr.ErrStillProcessing.Code)
		case errors.Is(err, apperr.ErrInvalidPoolStatus):
			// settled by someone else in between
			k.metrics.KeeperAttempt(apperr.ErrInvalidPoolStatus.Code)
		default:
			k.metrics.KeeperAttempt("error")
			k.logger.Warn("settle failed", "pool_id", p.ID, "err", err)
		}
	}

	return settled, nil
}
