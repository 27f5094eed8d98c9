package coinflip

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/storage"
)

// Settle pays the whole escrow to the winner once the oracle has published
// randomness for the committed seed. While it has not, Settle returns
// ErrStillProcessing and writes nothing.
//
// The oracle is polled before the pool row is locked; the status and seed are
// re-checked under the lock, so a concurrent settle cannot pay twice.
func (s *Service) Settle(ctx context.Context, poolID uint64) (pools.Pool, error) {
	p, err := s.settle(ctx, poolID)
	s.observe("settle", err)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("settle pool %d: %w", poolID, err)
	}

	side := "creator"
	if p.Joiner != nil && p.Winner == p.Joiner.Player {
		side = "joiner"
	}

	s.metrics.Settled(side)
	s.metrics.Escrowed(-(p.Creator.Amount + p.Joiner.Amount))
	s.logger.Info("pool settled", "pool_id", p.ID, "winner", p.Winner)

	return p, nil
}

func (s *Service) settle(ctx context.Context, poolID uint64) (pools.Pool, error) {
	snap, err := s.Get(ctx, poolID)
	if err != nil {
		return pools.Pool{}, err
	}

	if snap.Status != pools.StatusAwaitingRandomness {
		return pools.Pool{}, apperr.ErrInvalidPoolStatus
	}

	seed, err := oracle.SeedFromBytes(snap.CommittedSeed)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("committed seed: %w", err)
	}

	res, err := s.oracle.Fulfill(ctx, oracle.TicketFor(seed))
	if err != nil {
		return pools.Pool{}, fmt.Errorf("fulfill: %w", err)
	}

	if !res.Fulfilled || res.Randomness == [oracle.RandomnessSize]byte{} {
		return pools.Pool{}, apperr.ErrStillProcessing
	}

	var out pools.Pool

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := tx.Pools().GetForUpdate(ctx, poolID)
		if err != nil {
			return err
		}

		if p.Status != pools.StatusAwaitingRandomness || p.Joiner == nil {
			return apperr.ErrInvalidPoolStatus
		}

		if string(p.CommittedSeed) != string(seed[:]) {
			return fmt.Errorf("committed seed changed under settlement: %w", apperr.ErrInvalidPoolStatus)
		}

		winner := p.Creator.Player
		if OutcomeBit(p.ID, res.Randomness) == p.Joiner.Side {
			winner = p.Joiner.Player
		}

		auth := escrow.ForPool(p.ID)

		_, err = ledger.Move(ctx, tx, ledger.Transfer{
			From:      p.EscrowAddress,
			To:        winner,
			Authority: auth,
			Asset:     p.Asset,
			Amount:    p.TotalEscrowed,
			PoolID:    &p.ID,
			Memo:      "payout",
		})
		if err != nil {
			return fmt.Errorf("release escrow: %w", err)
		}

		closed := s.now()
		p.Winner = winner
		p.TotalEscrowed = 0
		p.Status = pools.StatusSettled
		p.Randomness = append([]byte(nil), res.Randomness[:]...)
		p.ClosedAt = &closed

		err = tx.Pools().Update(ctx, p)
		if err != nil {
			return fmt.Errorf("update pool: %w", err)
		}

		out = p

		return nil
	})
	if err != nil {
		return pools.Pool{}, err
	}

	return out, nil
}
