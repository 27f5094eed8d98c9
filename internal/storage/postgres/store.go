package postgres

import (
	"context"
	"database/sql"

	"github.com/fastprodman/coinflip/internal/infra/pgutils"
	"github.com/fastprodman/coinflip/internal/repos/balances"
	balancespg "github.com/fastprodman/coinflip/internal/repos/balances/postgres"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	poolspg "github.com/fastprodman/coinflip/internal/repos/pools/postgres"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	registrypg "github.com/fastprodman/coinflip/internal/repos/registry/postgres"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
	transferspg "github.com/fastprodman/coinflip/internal/repos/transfers/postgres"
	"github.com/fastprodman/coinflip/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	return pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&txRepos{tx: tx})
	})
}

type txRepos struct{ tx *sql.Tx }

func (t *txRepos) Registry() registry.Registry    { return registrypg.New(t.tx) }
func (t *txRepos) Pools() pools.Pools             { return poolspg.New(t.tx) }
func (t *txRepos) Balances() balances.Balances    { return balancespg.New(t.tx) }
func (t *txRepos) Transfers() transfers.Transfers { return transferspg.New(t.tx) }
