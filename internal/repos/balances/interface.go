package balances

import (
	"context"

	"github.com/fastprodman/coinflip/internal/apperr"
)

var ErrInsufficientFunds = apperr.ErrInsufficientFunds

// Balances stores per-(owner, asset) amounts. An owner that has never been
// credited has a zero balance, not a missing one.
type Balances interface {
	GetBalance(ctx context.Context, owner, asset string) (int64, error)
	LockAndGetBalance(ctx context.Context, owner, asset string) (int64, error)
	IncreaseBalance(ctx context.Context, owner, asset string, amount int64) error
	DecreaseBalance(ctx context.Context, owner, asset string, amount int64) error
}
