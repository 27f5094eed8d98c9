package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastprodman/coinflip/internal/repos/randomness"
)

var _ randomness.Requests = (*Requests)(nil)

// Requests is an in-process randomness.Requests for the VRF oracle.
type Requests struct {
	mu   sync.Mutex
	reqs map[string]randomness.Request
}

func NewRequests() *Requests {
	return &Requests{reqs: make(map[string]randomness.Request)}
}

func (r *Requests) Insert(_ context.Context, seed []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reqs[string(seed)]; ok {
		return randomness.ErrAlreadyRequested
	}

	r.reqs[string(seed)] = randomness.Request{
		Seed:        append([]byte(nil), seed...),
		Status:      randomness.StatusPending,
		RequestedAt: time.Now().UTC(),
	}

	return nil
}

func (r *Requests) Get(_ context.Context, seed []byte) (randomness.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.reqs[string(seed)]
	if !ok {
		return randomness.Request{}, randomness.ErrRequestNotFound
	}

	return copyRequest(req), nil
}

func (r *Requests) ListPending(_ context.Context, limit int) ([]randomness.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []randomness.Request
	for _, req := range r.reqs {
		if req.Status == randomness.StatusPending {
			out = append(out, copyRequest(req))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *Requests) Fulfill(_ context.Context, seed, output, proof []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.reqs[string(seed)]
	if !ok {
		return randomness.ErrRequestNotFound
	}

	if req.Status == randomness.StatusFulfilled {
		return randomness.ErrAlreadyFulfilled
	}

	now := time.Now().UTC()
	req.Status = randomness.StatusFulfilled
	req.Randomness = append([]byte(nil), output...)
	req.Proof = append([]byte(nil), proof...)
	req.FulfilledAt = &now
	r.reqs[string(seed)] = req

	return nil
}

func copyRequest(req randomness.Request) randomness.Request {
	req.Seed = append([]byte(nil), req.Seed...)
	if req.Randomness != nil {
		req.Randomness = append([]byte(nil), req.Randomness...)
	}
	if req.Proof != nil {
		req.Proof = append([]byte(nil), req.Proof...)
	}
	if req.FulfilledAt != nil {
		t := *req.FulfilledAt
		req.FulfilledAt = &t
	}

	return req
}
