package pools

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/pools"
)

var _ pools.Pools = (*poolsRepo)(nil)

const seedConstraint = "pools_committed_seed_key"

const selectColumns = `
	id, created_at, escrow_address, asset,
	creator, creator_amount, creator_side,
	joiner, joiner_amount, joiner_side,
	total_escrowed, status, winner, committed_seed, randomness, closed_at`

type poolsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *poolsRepo {
	return &poolsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPool(row rowScanner) (pools.Pool, error) {
	var (
		p            pools.Pool
		id           int64
		status       string
		joiner       sql.NullString
		joinerAmount sql.NullInt64
		joinerSide   sql.NullInt16
		winner       sql.NullString
		closedAt     sql.NullTime
	)

	err := row.Scan(
		&id, &p.CreatedAt, &p.EscrowAddress, &p.Asset,
		&p.Creator.Player, &p.Creator.Amount, &p.Creator.Side,
		&joiner, &joinerAmount, &joinerSide,
		&p.TotalEscrowed, &status, &winner, &p.CommittedSeed, &p.Randomness, &closedAt,
	)
	if err != nil {
		return pools.Pool{}, err
	}

	p.ID = uint64(id)
	p.Status = pools.Status(status)

	if joiner.Valid {
		p.Joiner = &pools.Bettor{
			Player: joiner.String,
			Amount: joinerAmount.Int64,
			Side:   uint8(joinerSide.Int16),
		}
	}

	if winner.Valid {
		p.Winner = winner.String
	}

	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}

	if !p.Status.Valid() {
		return pools.Pool{}, fmt.Errorf("pool %d has unknown status %q", p.ID, status)
	}

	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
