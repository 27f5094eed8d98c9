package pools

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/pools"
)

func (r *poolsRepo) Insert(ctx context.Context, p pools.Pool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pools (
			id, created_at, escrow_address, asset,
			creator, creator_amount, creator_side,
			total_escrowed, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		int64(p.ID), p.CreatedAt, p.EscrowAddress, p.Asset,
		p.Creator.Player, p.Creator.Amount, int16(p.Creator.Side),
		p.TotalEscrowed, string(p.Status),
	)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "") {
			return fmt.Errorf("insert pool %d: duplicate id or escrow: %w", p.ID, err)
		}

		return fmt.Errorf("insert pool: %w", err)
	}

	return nil
}
