package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fastprodman/coinflip/internal/repos/balances"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
)

type registryRepo struct{ st *state }

func (r registryRepo) Insert(_ context.Context, cfg registry.Config) error {
	if r.st.cfg != nil {
		return registry.ErrAlreadyInitialized
	}

	if cfg.NextPoolID == 0 {
		cfg.NextPoolID = 1
	}

	r.st.cfg = &cfg

	return nil
}

func (r registryRepo) Get(_ context.Context) (registry.Config, error) {
	if r.st.cfg == nil {
		return registry.Config{}, registry.ErrNotInitialized
	}

	return *r.st.cfg, nil
}

func (r registryRepo) GetForUpdate(ctx context.Context) (registry.Config, error) {
	return r.Get(ctx)
}

func (r registryRepo) Update(_ context.Context, cfg registry.Config) error {
	if r.st.cfg == nil {
		return registry.ErrNotInitialized
	}

	r.st.cfg.TreasuryWallet = cfg.TreasuryWallet
	r.st.cfg.TokenMint = cfg.TokenMint
	r.st.cfg.FeeAmount = cfg.FeeAmount
	r.st.cfg.MinBetAmount = cfg.MinBetAmount

	return nil
}

func (r registryRepo) ReservePoolID(_ context.Context) (uint64, error) {
	if r.st.cfg == nil {
		return 0, registry.ErrNotInitialized
	}

	id := r.st.cfg.NextPoolID
	r.st.cfg.NextPoolID++

	return id, nil
}

type poolsRepo struct{ st *state }

func (r poolsRepo) Insert(_ context.Context, p pools.Pool) error {
	if _, ok := r.st.pools[p.ID]; ok {
		return fmt.Errorf("insert pool %d: duplicate id", p.ID)
	}

	for _, other := range r.st.pools {
		if other.EscrowAddress == p.EscrowAddress {
			return fmt.Errorf("insert pool %d: duplicate escrow", p.ID)
		}
	}

	r.st.pools[p.ID] = p.Clone()

	return nil
}

func (r poolsRepo) Get(_ context.Context, id uint64) (pools.Pool, error) {
	p, ok := r.st.pools[id]
	if !ok {
		return pools.Pool{}, pools.ErrPoolNotFound
	}

	return p.Clone(), nil
}

func (r poolsRepo) GetForUpdate(ctx context.Context, id uint64) (pools.Pool, error) {
	return r.Get(ctx, id)
}

func (r poolsRepo) Update(_ context.Context, p pools.Pool) error {
	cur, ok := r.st.pools[p.ID]
	if !ok {
		return pools.ErrPoolNotFound
	}

	if len(p.CommittedSeed) > 0 {
		for id, other := range r.st.pools {
			if id != p.ID && bytes.Equal(other.CommittedSeed, p.CommittedSeed) {
				return pools.ErrSeedReused
			}
		}
	}

	// immutable columns stay as inserted
	next := p.Clone()
	next.CreatedAt = cur.CreatedAt
	next.EscrowAddress = cur.EscrowAddress
	next.Asset = cur.Asset
	next.Creator = cur.Creator
	r.st.pools[p.ID] = next

	return nil
}

func (r poolsRepo) List(_ context.Context, f pools.Filter) ([]pools.Pool, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	ids := make([]uint64, 0, len(r.st.pools))
	for id, p := range r.st.pools {
		if id > f.AfterID && (f.Status == "" || p.Status == f.Status) {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) > limit {
		ids = ids[:limit]
	}

	var out []pools.Pool
	for _, id := range ids {
		out = append(out, r.st.pools[id].Clone())
	}

	return out, nil
}

type balancesRepo struct{ st *state }

func (r balancesRepo) GetBalance(_ context.Context, owner, asset string) (int64, error) {
	return r.st.balances[balanceKey{owner, asset}], nil
}

func (r balancesRepo) LockAndGetBalance(ctx context.Context, owner, asset string) (int64, error) {
	return r.GetBalance(ctx, owner, asset)
}

func (r balancesRepo) IncreaseBalance(_ context.Context, owner, asset string, amount int64) error {
	r.st.balances[balanceKey{owner, asset}] += amount

	return nil
}

func (r balancesRepo) DecreaseBalance(_ context.Context, owner, asset string, amount int64) error {
	k := balanceKey{owner, asset}
	if r.st.balances[k] < amount {
		return balances.ErrInsufficientFunds
	}

	r.st.balances[k] -= amount

	return nil
}

type transfersRepo struct{ st *state }

func (r transfersRepo) Insert(_ context.Context, rec transfers.Record) error {
	for _, t := range r.st.transfers {
		if t.ID == rec.ID {
			return transfers.ErrDuplicateTransfer
		}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if rec.PoolID != nil {
		id := *rec.PoolID
		rec.PoolID = &id
	}

	r.st.transfers = append(r.st.transfers, rec)

	return nil
}

func (r transfersRepo) ListByPool(_ context.Context, poolID uint64) ([]transfers.Record, error) {
	var out []transfers.Record

	for _, t := range r.st.transfers {
		if t.PoolID != nil && *t.PoolID == poolID {
			id := *t.PoolID
			t.PoolID = &id
			out = append(out, t)
		}
	}

	return out, nil
}
