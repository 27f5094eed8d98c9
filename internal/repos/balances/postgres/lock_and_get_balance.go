package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LockAndGetBalance row-locks the account for the rest of the transaction.
// A missing account reads as zero and takes no lock.
func (r *balancesRepo) LockAndGetBalance(ctx context.Context, owner, asset string) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM balances
		WHERE owner = $1 AND asset = $2
		FOR UPDATE
	`, owner, asset).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}
