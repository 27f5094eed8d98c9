package balances

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/repos/balances"
)

func (r *balancesRepo) DecreaseBalance(ctx context.Context, owner, asset string, amount int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE balances
		SET balance = balance - $3
		WHERE owner = $1
		  AND asset = $2
		  AND balance >= $3
	`, owner, asset, amount)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return balances.ErrInsufficientFunds
	}

	return nil
}
