package transfers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDuplicateTransfer = errors.New("duplicate transfer")

// Record is one journal entry of a completed ledger transfer.
type Record struct {
	ID        uuid.UUID
	From      string
	To        string
	Asset     string
	Amount    int64
	PoolID    *uint64
	Memo      string
	CreatedAt time.Time
}

type Transfers interface {
	Insert(ctx context.Context, rec Record) error
	ListByPool(ctx context.Context, poolID uint64) ([]Record, error)
}
