package pools

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinflip/internal/repos/pools"
)

const defaultListLimit = 100

func (r *poolsRepo) List(ctx context.Context, f pools.Filter) ([]pools.Pool, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM pools
		WHERE ($1 = '' OR status = $1)
		  AND id > $2
		ORDER BY id
		LIMIT $3
	`, string(f.Status), f.AfterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var out []pools.Pool

	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}

	return out, nil
}
