// Package oracle defines the two-phase randomness protocol the pool engine
// consumes: Request commits a seed and returns at once, Fulfill is polled
// until the oracle has published a value for it.
package oracle

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	SeedSize       = 32
	RandomnessSize = 64
)

var (
	ErrUnknownTicket = errors.New("unknown oracle ticket")
	ErrInvalidTicket = errors.New("malformed oracle ticket")
	// ErrSeedUsed is returned by Request for a seed that was submitted before.
	ErrSeedUsed = errors.New("seed already submitted to oracle")
)

// Seed binds one randomness request to one pool.
type Seed [SeedSize]byte

func (s Seed) IsZero() bool { return s == Seed{} }

func (s Seed) String() string { return hex.EncodeToString(s[:]) }

func ParseSeed(str string) (Seed, error) {
	var s Seed

	b, err := hex.DecodeString(str)
	if err != nil {
		return s, fmt.Errorf("decode seed: %w", err)
	}

	if len(b) != SeedSize {
		return s, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(b))
	}

	copy(s[:], b)

	return s, nil
}

// SeedFromBytes converts a stored seed back into a Seed.
func SeedFromBytes(b []byte) (Seed, error) {
	var s Seed
	if len(b) != SeedSize {
		return s, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(b))
	}

	copy(s[:], b)

	return s, nil
}

// Ticket identifies a request. It is the hex form of the committed seed, so
// the engine can always rebuild it from the pool record.
type Ticket string

func TicketFor(s Seed) Ticket { return Ticket(s.String()) }

func (t Ticket) Seed() (Seed, error) {
	s, err := ParseSeed(string(t))
	if err != nil {
		return Seed{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	return s, nil
}

// Result is either pending or carries the published randomness.
type Result struct {
	Fulfilled  bool
	Randomness [RandomnessSize]byte
	Proof      []byte
}

func Pending() Result { return Result{} }

func Fulfilled(r [RandomnessSize]byte, proof []byte) Result {
	return Result{Fulfilled: true, Randomness: r, Proof: proof}
}

type Client interface {
	Request(ctx context.Context, seed Seed) (Ticket, error)
	// Fulfill is a pure read; once fulfilled it returns the same value forever.
	Fulfill(ctx context.Context, t Ticket) (Result, error)
}
