package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/registry"
)

var _ registry.Registry = (*registryRepo)(nil)

type registryRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *registryRepo {
	return &registryRepo{db: db}
}

func (r *registryRepo) Insert(ctx context.Context, cfg registry.Config) error {
	next := cfg.NextPoolID
	if next == 0 {
		next = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO global_config (id, admin, treasury_wallet, token_mint, fee_amount, min_bet_amount, next_pool_id)
		VALUES (1, $1, $2, $3, $4, $5, $6)
	`, cfg.Admin, cfg.TreasuryWallet, cfg.TokenMint, cfg.FeeAmount, cfg.MinBetAmount, next)
	if err != nil {
		if pgutils.IsUniqueViolation(err, "") {
			return registry.ErrAlreadyInitialized
		}

		return fmt.Errorf("insert config: %w", err)
	}

	return nil
}

func (r *registryRepo) Get(ctx context.Context) (registry.Config, error) {
	return r.get(ctx, `
		SELECT admin, treasury_wallet, token_mint, fee_amount, min_bet_amount, next_pool_id
		FROM global_config
		WHERE id = 1
	`)
}

func (r *registryRepo) GetForUpdate(ctx context.Context) (registry.Config, error) {
	return r.get(ctx, `
		SELECT admin, treasury_wallet, token_mint, fee_amount, min_bet_amount, next_pool_id
		FROM global_config
		WHERE id = 1
		FOR UPDATE
	`)
}

func (r *registryRepo) get(ctx context.Context, query string) (registry.Config, error) {
	var cfg registry.Config

	err := r.db.QueryRowContext(ctx, query).Scan(
		&cfg.Admin,
		&cfg.TreasuryWallet,
		&cfg.TokenMint,
		&cfg.FeeAmount,
		&cfg.MinBetAmount,
		&cfg.NextPoolID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.Config{}, registry.ErrNotInitialized
		}

		return registry.Config{}, fmt.Errorf("get config: %w", err)
	}

	return cfg, nil
}

func (r *registryRepo) Update(ctx context.Context, cfg registry.Config) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE global_config
		SET treasury_wallet = $1,
		    token_mint = $2,
		    fee_amount = $3,
		    min_bet_amount = $4,
		    updated_at = now()
		WHERE id = 1
	`, cfg.TreasuryWallet, cfg.TokenMint, cfg.FeeAmount, cfg.MinBetAmount)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return registry.ErrNotInitialized
	}

	return nil
}

// ReservePoolID increments the counter in a single statement. The updated row
// stays locked until the surrounding transaction ends, so concurrent creators
// serialize on it and never observe the same value.
func (r *registryRepo) ReservePoolID(ctx context.Context) (uint64, error) {
	var id uint64

	err := r.db.QueryRowContext(ctx, `
		UPDATE global_config
		SET next_pool_id = next_pool_id + 1
		WHERE id = 1
		RETURNING next_pool_id - 1
	`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, registry.ErrNotInitialized
		}

		return 0, fmt.Errorf("reserve pool id: %w", err)
	}

	return id, nil
}
