package pools

import (
	"context"
	"time"

	"github.com/fastprodman/coinflip/internal/apperr"
)

var (
	ErrPoolNotFound = apperr.ErrPoolNotFound
	ErrSeedReused   = apperr.ErrSeedReused
)

type Status string

const (
	StatusOpen               Status = "open"
	StatusAwaitingRandomness Status = "awaiting_randomness"
	StatusSettled            Status = "settled"
	StatusCancelled          Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAwaitingRandomness, StatusSettled, StatusCancelled:
		return true
	}

	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusCancelled
}

type Bettor struct {
	Player string
	Amount int64
	Side   uint8
}

type Pool struct {
	ID            uint64
	CreatedAt     time.Time
	EscrowAddress string
	Asset         string
	Creator       Bettor
	Joiner        *Bettor
	TotalEscrowed int64
	Status        Status
	Winner        string
	CommittedSeed []byte
	Randomness    []byte
	ClosedAt      *time.Time
}

// Clone returns a deep copy of p.
func (p Pool) Clone() Pool {
	out := p
	if p.Joiner != nil {
		j := *p.Joiner
		out.Joiner = &j
	}
	if p.ClosedAt != nil {
		c := *p.ClosedAt
		out.ClosedAt = &c
	}
	out.CommittedSeed = cloneBytes(p.CommittedSeed)
	out.Randomness = cloneBytes(p.Randomness)

	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append([]byte(nil), b...)
}

type Filter struct {
	Status  Status // empty means any
	AfterID uint64 // only pools with a greater id
	Limit   int
}

type Pools interface {
	Insert(ctx context.Context, p Pool) error
	Get(ctx context.Context, id uint64) (Pool, error)
	GetForUpdate(ctx context.Context, id uint64) (Pool, error)
	// Update persists the mutable fields: joiner, totals, status, winner,
	// seed, randomness and closed_at.
	Update(ctx context.Context, p Pool) error
	// List returns pools ordered by id ascending.
	List(ctx context.Context, f Filter) ([]Pool, error)
}
