package coinflip

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/services/treasury"
	"github.com/fastprodman/coinflip/internal/storage"
)

// Create opens a pool with creator's stake on side.
//
// 1) Validate side and amount against the locked config.
// 2) Reserve the next pool id.
// 3) Collect the creation fee.
// 4) Move the stake into the escrow derived from the new id.
func (s *Service) Create(ctx context.Context, creator string, side uint8, amount int64) (pools.Pool, error) {
	var p pools.Pool

	err := s.create(ctx, creator, side, amount, &p)
	s.observe("create", err)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("create pool: %w", err)
	}

	s.metrics.Escrowed(amount)
	s.logger.Info("pool created", "pool_id", p.ID, "player", creator, "side", side, "amount", amount)

	return p, nil
}

func (s *Service) create(ctx context.Context, creator string, side uint8, amount int64, out *pools.Pool) error {
	if creator == "" || escrow.IsDerived(creator) {
		return apperr.ErrInvalidCreator
	}

	if !validSide(side) {
		return apperr.ErrInvalidNumber
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		cfg, err := tx.Registry().GetForUpdate(ctx)
		if err != nil {
			return err
		}

		if amount < cfg.MinBetAmount {
			return apperr.ErrAmountTooSmall
		}

		id, err := tx.Registry().ReservePoolID(ctx)
		if err != nil {
			return fmt.Errorf("reserve pool id: %w", err)
		}

		auth := escrow.ForPool(id)

		p := pools.Pool{
			ID:            id,
			CreatedAt:     s.now(),
			EscrowAddress: auth.Address,
			Asset:         cfg.TokenMint,
			Creator:       pools.Bettor{Player: creator, Amount: amount, Side: side},
			TotalEscrowed: amount,
			Status:        pools.StatusOpen,
		}

		err = tx.Pools().Insert(ctx, p)
		if err != nil {
			return fmt.Errorf("insert pool: %w", err)
		}

		err = treasury.CollectFee(ctx, tx, cfg, creator, id)
		if err != nil {
			return err
		}

		_, err = ledger.Move(ctx, tx, ledger.Transfer{
			From:      creator,
			To:        auth.Address,
			Authority: ledger.Owner(creator),
			Asset:     p.Asset,
			Amount:    amount,
			PoolID:    &id,
			Memo:      "stake",
		})
		if err != nil {
			return fmt.Errorf("escrow stake: %w", err)
		}

		*out = p

		return nil
	})
}
