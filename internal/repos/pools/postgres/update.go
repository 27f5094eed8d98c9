package pools

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/pools"
)

func (r *poolsRepo) Update(ctx context.Context, p pools.Pool) error {
	var (
		joiner       sql.NullString
		joinerAmount sql.NullInt64
		joinerSide   sql.NullInt16
		closedAt     sql.NullTime
	)

	if p.Joiner != nil {
		joiner = sql.NullString{String: p.Joiner.Player, Valid: true}
		joinerAmount = sql.NullInt64{Int64: p.Joiner.Amount, Valid: true}
		joinerSide = sql.NullInt16{Int16: int16(p.Joiner.Side), Valid: true}
	}

	if p.ClosedAt != nil {
		closedAt = sql.NullTime{Time: *p.ClosedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pools
		SET joiner = $2,
		    joiner_amount = $3,
		    joiner_side = $4,
		    total_escrowed = $5,
		    status = $6,
		    winner = $7,
		    committed_seed = $8,
		    randomness = $9,
		    closed_at = $10
		WHERE id = $1
	`,
		int64(p.ID), joiner, joinerAmount, joinerSide,
		p.TotalEscrowed, string(p.Status), nullString(p.Winner),
		p.CommittedSeed, p.Randomness, closedAt,
	)
	if err != nil {
		if pgutils.IsUniqueViolation(err, seedConstraint) {
			return pools.ErrSeedReused
		}

		return fmt.Errorf("update pool: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return pools.ErrPoolNotFound
	}

	return nil
}
