package pools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinflip/internal/repos/pools"
)

func (r *poolsRepo) Get(ctx context.Context, id uint64) (pools.Pool, error) {
	return r.get(ctx, `SELECT `+selectColumns+` FROM pools WHERE id = $1`, id)
}

func (r *poolsRepo) GetForUpdate(ctx context.Context, id uint64) (pools.Pool, error) {
	return r.get(ctx, `SELECT `+selectColumns+` FROM pools WHERE id = $1 FOR UPDATE`, id)
}

func (r *poolsRepo) get(ctx context.Context, query string, id uint64) (pools.Pool, error) {
	p, err := scanPool(r.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pools.Pool{}, pools.ErrPoolNotFound
		}

		return pools.Pool{}, fmt.Errorf("get pool: %w", err)
	}

	return p, nil
}
