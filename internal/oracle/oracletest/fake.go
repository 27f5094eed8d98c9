// Package oracletest provides an in-memory oracle.Client whose fulfillment is
// driven by the test.
package oracletest

import (
	"context"
	"sync"

	"github.com/fastprodman/coinflip/internal/oracle"
)

type Fake struct {
	mu         sync.Mutex
	requested  map[oracle.Seed]int
	published  map[oracle.Seed][oracle.RandomnessSize]byte
	requestErr error
	fulfillErr error
}

func New() *Fake {
	return &Fake{
		requested: make(map[oracle.Seed]int),
		published: make(map[oracle.Seed][oracle.RandomnessSize]byte),
	}
}

func (f *Fake) Request(_ context.Context, seed oracle.Seed) (oracle.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.requestErr != nil {
		return "", f.requestErr
	}

	if _, ok := f.requested[seed]; ok {
		return "", oracle.ErrSeedUsed
	}

	f.requested[seed]++

	return oracle.TicketFor(seed), nil
}

func (f *Fake) Fulfill(_ context.Context, t oracle.Ticket) (oracle.Result, error) {
	seed, err := t.Seed()
	if err != nil {
		return oracle.Result{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fulfillErr != nil {
		return oracle.Result{}, f.fulfillErr
	}

	if _, ok := f.requested[seed]; !ok {
		return oracle.Result{}, oracle.ErrUnknownTicket
	}

	r, ok := f.published[seed]
	if !ok {
		return oracle.Pending(), nil
	}

	return oracle.Fulfilled(r, nil), nil
}

// Publish makes r the value for seed. Publishing twice keeps the first value.
func (f *Fake) Publish(seed oracle.Seed, r [oracle.RandomnessSize]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.published[seed]; !ok {
		f.published[seed] = r
	}
}

// Requests returns how many times seed was submitted.
func (f *Fake) Requests(seed oracle.Seed) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requested[seed]
}

func (f *Fake) FailRequests(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requestErr = err
}

func (f *Fake) FailFulfill(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fulfillErr = err
}
