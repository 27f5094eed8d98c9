package registry

import (
	"context"

	"github.com/fastprodman/coinflip/internal/apperr"
)

var (
	ErrNotInitialized     = apperr.ErrNotInitialized
	ErrAlreadyInitialized = apperr.ErrAlreadyInitialized
)

// Config is the singleton global configuration row.
type Config struct {
	Admin          string
	TreasuryWallet string
	TokenMint      string
	FeeAmount      int64
	MinBetAmount   int64
	NextPoolID     uint64
}

type Registry interface {
	Insert(ctx context.Context, cfg Config) error
	Get(ctx context.Context) (Config, error)
	GetForUpdate(ctx context.Context) (Config, error)
	// Update writes the admin-settable fields; admin and the counter are untouched.
	Update(ctx context.Context, cfg Config) error
	// ReservePoolID returns the current counter value and increments it.
	ReservePoolID(ctx context.Context) (uint64, error)
}
