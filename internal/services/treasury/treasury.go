// Package treasury collects protocol fees into the configured treasury wallet.
package treasury

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/storage"
)

// CollectFee charges cfg.FeeAmount of the native asset from payer. A zero fee
// is a no-op. When payer is the treasury wallet itself nothing moves, but the
// payer must still hold the fee.
func CollectFee(ctx context.Context, tx storage.Tx, cfg registry.Config, payer string, poolID uint64) error {
	if cfg.FeeAmount == 0 {
		return nil
	}

	if payer == cfg.TreasuryWallet {
		bal, err := tx.Balances().GetBalance(ctx, payer, ledger.NativeAsset)
		if err != nil {
			return fmt.Errorf("collect fee: %w", err)
		}

		if bal < cfg.FeeAmount {
			return fmt.Errorf("collect fee: %w", apperr.ErrInsufficientFunds)
		}

		return nil
	}

	_, err := ledger.Move(ctx, tx, ledger.Transfer{
		From:      payer,
		To:        cfg.TreasuryWallet,
		Authority: ledger.Owner(payer),
		Asset:     ledger.NativeAsset,
		Amount:    cfg.FeeAmount,
		PoolID:    &poolID,
		Memo:      "fee",
	})
	if err != nil {
		return fmt.Errorf("collect fee: %w", err)
	}

	return nil
}

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

// Balance returns the native balance of the currently configured treasury.
func (s *Service) Balance(ctx context.Context) (string, int64, error) {
	var (
		wallet string
		bal    int64
	)

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		cfg, err := tx.Registry().Get(ctx)
		if err != nil {
			return err
		}

		wallet = cfg.TreasuryWallet
		bal, err = tx.Balances().GetBalance(ctx, wallet, ledger.NativeAsset)
		return err
	})
	if err != nil {
		return "", 0, fmt.Errorf("treasury balance: %w", err)
	}

	return wallet, bal, nil
}
