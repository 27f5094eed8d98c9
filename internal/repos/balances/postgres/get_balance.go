package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (r *balancesRepo) GetBalance(ctx context.Context, owner, asset string) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM balances
		WHERE owner = $1 AND asset = $2
	`, owner, asset).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
