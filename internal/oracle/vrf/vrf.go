// Package vrf is a verifiable randomness oracle backed by an ed25519 key.
//
// For a committed seed the proof is the (deterministic) ed25519 signature of
// sha512("VRF_INPUT" || seed) and the published randomness is
// sha512("VRF_OUTPUT" || proof). Anyone holding the public key can check both.
package vrf

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/repos/randomness"
)

var _ oracle.Client = (*Service)(nil)

var (
	inputTag  = []byte("VRF_INPUT")
	outputTag = []byte("VRF_OUTPUT")
)

type Service struct {
	key    ed25519.PrivateKey
	reqs   randomness.Requests
	logger *slog.Logger
}

func New(key ed25519.PrivateKey, reqs randomness.Requests, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{key: key, reqs: reqs, logger: logger.With("component", "vrf")}
}

// ParseSigningKey decodes a hex ed25519 seed. An empty string yields a fresh
// random key, which only makes sense for local development.
func ParseSigningKey(s string) (ed25519.PrivateKey, error) {
	if s == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate vrf key: %w", err)
		}

		return priv, nil
	}

	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode vrf key: %w", err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("vrf key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

func (s *Service) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

func (s *Service) Request(ctx context.Context, seed oracle.Seed) (oracle.Ticket, error) {
	if seed.IsZero() {
		return "", fmt.Errorf("request randomness: zero seed")
	}

	err := s.reqs.Insert(ctx, seed[:])
	if errors.Is(err, randomness.ErrAlreadyRequested) {
		return "", oracle.ErrSeedUsed
	}
	if err != nil {
		return "", fmt.Errorf("request randomness: %w", err)
	}

	return oracle.TicketFor(seed), nil
}

func (s *Service) Fulfill(ctx context.Context, t oracle.Ticket) (oracle.Result, error) {
	seed, err := t.Seed()
	if err != nil {
		return oracle.Result{}, err
	}

	req, err := s.reqs.Get(ctx, seed[:])
	if err != nil {
		if errors.Is(err, randomness.ErrRequestNotFound) {
			return oracle.Result{}, oracle.ErrUnknownTicket
		}

		return oracle.Result{}, fmt.Errorf("fulfill: %w", err)
	}

	if req.Status != randomness.StatusFulfilled {
		return oracle.Pending(), nil
	}

	if len(req.Randomness) != oracle.RandomnessSize {
		return oracle.Result{}, fmt.Errorf("fulfill: stored randomness has %d bytes", len(req.Randomness))
	}

	var out [oracle.RandomnessSize]byte
	copy(out[:], req.Randomness)

	return oracle.Fulfilled(out, req.Proof), nil
}

// FulfillPending answers up to limit pending requests and returns how many
// were written.
func (s *Service) FulfillPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.reqs.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	n := 0

	for _, req := range pending {
		out, proof := Prove(s.key, req.Seed)

		err := s.reqs.Fulfill(ctx, req.Seed, out[:], proof)
		if errors.Is(err, randomness.ErrAlreadyFulfilled) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("fulfill %x: %w", req.Seed, err)
		}

		n++
		s.logger.Debug("randomness fulfilled", "seed", hex.EncodeToString(req.Seed))
	}

	return n, nil
}

// Prove computes the proof and output for seed.
func Prove(key ed25519.PrivateKey, seed []byte) ([oracle.RandomnessSize]byte, []byte) {
	proof := ed25519.Sign(key, input(seed))

	return output(proof), proof
}

// Verify checks that out was produced by the holder of pub for seed.
func Verify(pub ed25519.PublicKey, seed, proof []byte, out [oracle.RandomnessSize]byte) bool {
	if len(pub) != ed25519.PublicKeySize || !ed25519.Verify(pub, input(seed), proof) {
		return false
	}

	return output(proof) == out
}

func input(seed []byte) []byte {
	h := sha512.New()
	h.Write(inputTag)
	h.Write(seed)

	return h.Sum(nil)
}

func output(proof []byte) [oracle.RandomnessSize]byte {
	h := sha512.New()
	h.Write(outputTag)
	h.Write(proof)

	var out [oracle.RandomnessSize]byte
	copy(out[:], h.Sum(nil))

	return out
}
