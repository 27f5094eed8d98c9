package transfers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
)

var _ transfers.Transfers = (*transfersRepo)(nil)

type transfersRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *transfersRepo {
	return &transfersRepo{db: db}
}

func (r *transfersRepo) Insert(ctx context.Context, rec transfers.Record) error {
	var poolID sql.NullInt64
	if rec.PoolID != nil {
		poolID = sql.NullInt64{Int64: int64(*rec.PoolID), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transfers (transfer_id, from_owner, to_owner, asset, amount, pool_id, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.From, rec.To, rec.Asset, rec.Amount, poolID, rec.Memo)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "transfers_pkey") {
			return transfers.ErrDuplicateTransfer
		}

		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}

func (r *transfersRepo) ListByPool(ctx context.Context, poolID uint64) ([]transfers.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transfer_id, from_owner, to_owner, asset, amount, pool_id, memo, created_at
		FROM transfers
		WHERE pool_id = $1
		ORDER BY created_at, transfer_id
	`, int64(poolID))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []transfers.Record

	for rows.Next() {
		var (
			rec transfers.Record
			pid sql.NullInt64
		)

		err := rows.Scan(&rec.ID, &rec.From, &rec.To, &rec.Asset, &rec.Amount, &pid, &rec.Memo, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}

		if pid.Valid {
			v := uint64(pid.Int64)
			rec.PoolID = &v
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}

	return out, nil
}
