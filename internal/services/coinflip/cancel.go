package coinflip

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/storage"
)

// Cancel refunds the creator of a pool nobody has joined. Status is checked
// before the caller so a joined pool reports InvalidPoolStatus to everyone.
func (s *Service) Cancel(ctx context.Context, poolID uint64, caller string) (pools.Pool, error) {
	var p pools.Pool

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.Pools().GetForUpdate(ctx, poolID)
		if err != nil {
			return err
		}

		if p.Status != pools.StatusOpen {
			return apperr.ErrInvalidPoolStatus
		}

		if caller == "" || caller != p.Creator.Player {
			return apperr.ErrInvalidCreator
		}

		_, err = ledger.Move(ctx, tx, ledger.Transfer{
			From:      p.EscrowAddress,
			To:        p.Creator.Player,
			Authority: escrow.ForPool(p.ID),
			Asset:     p.Asset,
			Amount:    p.TotalEscrowed,
			PoolID:    &p.ID,
			Memo:      "refund",
		})
		if err != nil {
			return fmt.Errorf("refund escrow: %w", err)
		}

		closed := s.now()
		p.Status = pools.StatusCancelled
		p.TotalEscrowed = 0
		p.ClosedAt = &closed

		err = tx.Pools().Update(ctx, p)
		if err != nil {
			return fmt.Errorf("update pool: %w", err)
		}

		return nil
	})
	s.observe("cancel", err)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("cancel pool %d: %w", poolID, err)
	}

	s.metrics.Escrowed(-p.Creator.Amount)
	s.logger.Info("pool cancelled", "pool_id", p.ID, "player", caller)

	return p, nil
}
