package randomness

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRequestNotFound  = errors.New("randomness request not found")
	ErrAlreadyRequested = errors.New("randomness already requested for seed")
	ErrAlreadyFulfilled = errors.New("randomness request already fulfilled")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
)

type Request struct {
	Seed        []byte
	Status      Status
	Randomness  []byte
	Proof       []byte
	RequestedAt time.Time
	FulfilledAt *time.Time
}

type Requests interface {
	// Insert registers seed as pending. A seed is accepted once; any later
	// insert fails with ErrAlreadyRequested whatever the request's status.
	Insert(ctx context.Context, seed []byte) error
	Get(ctx context.Context, seed []byte) (Request, error)
	ListPending(ctx context.Context, limit int) ([]Request, error)
	// Fulfill writes the output once; a fulfilled request is never overwritten.
	Fulfill(ctx context.Context, seed, randomness, proof []byte) error
}
