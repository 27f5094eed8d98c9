package vrf

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Fulfiller periodically answers pending requests.
type Fulfiller struct {
	svc    *Service
	batch  int
	cron   *cron.Cron
	logger *slog.Logger
}

func NewFulfiller(svc *Service, schedule string, batch int) (*Fulfiller, error) {
	if batch <= 0 {
		batch = 100
	}

	f := &Fulfiller{
		svc:    svc,
		batch:  batch,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: svc.logger,
	}

	_, err := f.cron.AddFunc(schedule, f.run)
	if err != nil {
		return nil, fmt.Errorf("schedule fulfiller %q: %w", schedule, err)
	}

	return f, nil
}

func (f *Fulfiller) Start() { f.cron.Start() }

// Stop halts scheduling and waits for a running batch, bounded by ctx.
func (f *Fulfiller) Stop(ctx context.Context) error {
	select {
	case <-f.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fulfiller) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := f.svc.FulfillPending(ctx, f.batch)
	if err != nil {
		f.logger.Error("fulfill pending", "err", err, "fulfilled", n)
		return
	}

	if n > 0 {
		f.logger.Info("fulfilled randomness requests", "count", n)
	}
}
