// Package storage groups the repositories that a single atomic operation may
// touch and runs them inside one transaction.
package storage

import (
	"context"

	"github.com/fastprodman/coinflip/internal/repos/balances"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
)

// Tx exposes repositories bound to one open transaction. It must not be used
// after the WithTx callback returns.
type Tx interface {
	Registry() registry.Registry
	Pools() pools.Pools
	Balances() balances.Balances
	Transfers() transfers.Transfers
}

type Store interface {
	// WithTx runs fn atomically. Nothing fn wrote is visible to anyone if it
	// returns an error, and fn's error is returned unchanged.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
