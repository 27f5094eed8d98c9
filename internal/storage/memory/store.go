// Package memory is an in-process storage.Store. A single mutex serializes
// every transaction; writes go to a private copy of the state that replaces
// the committed state only when the callback succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/fastprodman/coinflip/internal/repos/balances"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
	"github.com/fastprodman/coinflip/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type balanceKey struct {
	owner string
	asset string
}

type state struct {
	cfg       *registry.Config
	pools     map[uint64]pools.Pool
	balances  map[balanceKey]int64
	transfers []transfers.Record
}

func newState() *state {
	return &state{
		pools:    make(map[uint64]pools.Pool),
		balances: make(map[balanceKey]int64),
	}
}

func (s *state) clone() *state {
	out := &state{
		pools:     make(map[uint64]pools.Pool, len(s.pools)),
		balances:  make(map[balanceKey]int64, len(s.balances)),
		transfers: make([]transfers.Record, len(s.transfers)),
	}

	if s.cfg != nil {
		cfg := *s.cfg
		out.cfg = &cfg
	}

	for id, p := range s.pools {
		out.pools[id] = p.Clone()
	}

	for k, v := range s.balances {
		out.balances[k] = v
	}

	copy(out.transfers, s.transfers)

	return out
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}

	s.st = work

	return nil
}

type tx struct{ st *state }

func (t *tx) Registry() registry.Registry    { return registryRepo{t.st} }
func (t *tx) Pools() pools.Pools             { return poolsRepo{t.st} }
func (t *tx) Balances() balances.Balances    { return balancesRepo{t.st} }
func (t *tx) Transfers() transfers.Transfers { return transfersRepo{t.st} }
