package balances

import (
	"context"
	"fmt"
)

func (r *balancesRepo) IncreaseBalance(ctx context.Context, owner, asset string, amount int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (owner, asset, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, asset) DO UPDATE
		SET balance = balances.balance + EXCLUDED.balance
	`, owner, asset, amount)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	return nil
}
