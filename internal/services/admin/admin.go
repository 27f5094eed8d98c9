// Package admin owns the global configuration: one-time initialization and
// admin-gated updates.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/repos/registry"
	"github.com/fastprodman/coinflip/internal/storage"
)

type Service struct {
	store  storage.Store
	logger *slog.Logger
}

func New(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, logger: logger.With("component", "admin")}
}

type InitParams struct {
	Admin        string
	Treasury     string
	TokenMint    string
	FeeAmount    int64
	MinBetAmount int64
}

// Update carries the admin-settable fields. A nil TokenMint keeps the current mint.
type Update struct {
	FeeAmount    int64
	Treasury     string
	MinBetAmount int64
	TokenMint    *string
}

func (s *Service) Initialize(ctx context.Context, p InitParams) (registry.Config, error) {
	if p.Admin == "" {
		return registry.Config{}, fmt.Errorf("initialize: admin required: %w", apperr.ErrInvalidConfig)
	}

	cfg := registry.Config{
		Admin:          p.Admin,
		TreasuryWallet: p.Treasury,
		TokenMint:      p.TokenMint,
		FeeAmount:      p.FeeAmount,
		MinBetAmount:   p.MinBetAmount,
		NextPoolID:     1,
	}

	if err := validate(cfg); err != nil {
		return registry.Config{}, fmt.Errorf("initialize: %w", err)
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.Registry().Insert(ctx, cfg)
	})
	if err != nil {
		return registry.Config{}, fmt.Errorf("initialize: %w", err)
	}

	s.logger.Info("registry initialized", "admin", cfg.Admin, "treasury", cfg.TreasuryWallet, "token_mint", cfg.TokenMint)

	return cfg, nil
}

// SetConfig replaces the settable fields when caller is the stored admin.
func (s *Service) SetConfig(ctx context.Context, caller string, u Update) (registry.Config, error) {
	var out registry.Config

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		cfg, err := tx.Registry().GetForUpdate(ctx)
		if err != nil {
			return err
		}

		if caller == "" || caller != cfg.Admin {
			return apperr.ErrInvalidAdmin
		}

		cfg.FeeAmount = u.FeeAmount
		cfg.TreasuryWallet = u.Treasury
		cfg.MinBetAmount = u.MinBetAmount
		if u.TokenMint != nil {
			cfg.TokenMint = *u.TokenMint
		}

		if err := validate(cfg); err != nil {
			return err
		}

		if err := tx.Registry().Update(ctx, cfg); err != nil {
			return err
		}

		out = cfg

		return nil
	})
	if err != nil {
		return registry.Config{}, fmt.Errorf("set config: %w", err)
	}

	s.logger.Info("config updated",
		"fee_amount", out.FeeAmount,
		"treasury", out.TreasuryWallet,
		"min_bet_amount", out.MinBetAmount,
		"token_mint", out.TokenMint,
	)

	return out, nil
}

func (s *Service) Get(ctx context.Context) (registry.Config, error) {
	var cfg registry.Config

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		cfg, err = tx.Registry().Get(ctx)
		return err
	})
	if err != nil {
		return registry.Config{}, fmt.Errorf("get config: %w", err)
	}

	return cfg, nil
}

func validate(cfg registry.Config) error {
	switch {
	case cfg.TreasuryWallet == "":
		return fmt.Errorf("treasury required: %w", apperr.ErrInvalidConfig)
	case cfg.TokenMint == "":
		return fmt.Errorf("token mint required: %w", apperr.ErrInvalidConfig)
	case cfg.FeeAmount < 0:
		return fmt.Errorf("negative fee: %w", apperr.ErrInvalidConfig)
	case cfg.MinBetAmount <= 0:
		return fmt.Errorf("min bet must be positive: %w", apperr.ErrInvalidConfig)
	}

	return nil
}
