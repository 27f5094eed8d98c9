package coinflip

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/services/treasury"
	"github.com/fastprodman/coinflip/internal/storage"
)

type JoinParams struct {
	PoolID uint64
	Joiner string
	Side   uint8
	Amount int64
	Seed   oracle.Seed
}

// Join takes the opposite side of an open pool with an equal stake and
// commits the seed the pool will be settled with.
func (s *Service) Join(ctx context.Context, jp JoinParams) (pools.Pool, error) {
	var p pools.Pool

	err := s.join(ctx, jp, &p)
	s.observe("join", err)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("join pool %d: %w", jp.PoolID, err)
	}

	s.metrics.Escrowed(jp.Amount)
	s.logger.Info("pool joined", "pool_id", p.ID, "player", jp.Joiner, "side", jp.Side, "seed", jp.Seed.String())

	return p, nil
}

func (s *Service) join(ctx context.Context, jp JoinParams, out *pools.Pool) error {
	if jp.Seed.IsZero() {
		return apperr.ErrInvalidSeed
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := tx.Pools().GetForUpdate(ctx, jp.PoolID)
		if err != nil {
			return err
		}

		if err := checkJoin(p, jp); err != nil {
			return err
		}

		cfg, err := tx.Registry().Get(ctx)
		if err != nil {
			return err
		}

		_, err = ledger.Move(ctx, tx, ledger.Transfer{
			From:      jp.Joiner,
			To:        p.EscrowAddress,
			Authority: ledger.Owner(jp.Joiner),
			Asset:     p.Asset,
			Amount:    jp.Amount,
			PoolID:    &p.ID,
			Memo:      "stake",
		})
		if err != nil {
			return fmt.Errorf("escrow stake: %w", err)
		}

		err = treasury.CollectFee(ctx, tx, cfg, jp.Joiner, p.ID)
		if err != nil {
			return err
		}

		p.Joiner = &pools.Bettor{Player: jp.Joiner, Amount: jp.Amount, Side: jp.Side}
		p.TotalEscrowed += jp.Amount
		p.CommittedSeed = append([]byte(nil), jp.Seed[:]...)
		p.Status = pools.StatusAwaitingRandomness

		err = tx.Pools().Update(ctx, p)
		if err != nil {
			return fmt.Errorf("update pool: %w", err)
		}

		// last, so any earlier failure never leaves a request behind; a
		// request orphaned by a failed commit is never settled against
		_, err = s.oracle.Request(ctx, jp.Seed)
		if errors.Is(err, oracle.ErrSeedUsed) {
			return apperr.ErrSeedReused
		}
		if err != nil {
			return fmt.Errorf("request randomness: %w", err)
		}

		*out = p

		return nil
	})
}

func checkJoin(p pools.Pool, jp JoinParams) error {
	if p.Status != pools.StatusOpen {
		if p.Joiner != nil || p.Winner != "" {
			return apperr.ErrAlreadyDrawn
		}

		return apperr.ErrInvalidPoolStatus
	}

	if jp.Joiner == "" || jp.Joiner == p.Creator.Player {
		return apperr.ErrInvalidJoiner
	}

	if !validSide(jp.Side) || jp.Side == p.Creator.Side {
		return apperr.ErrInvalidNumber
	}

	if jp.Amount != p.Creator.Amount {
		return apperr.ErrInvalidAmount
	}

	return nil
}
