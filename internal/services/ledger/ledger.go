// Package ledger is the value-transfer capability: atomic, authorized moves
// between (owner, asset) balances, each recorded in the transfer journal.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
	"github.com/fastprodman/coinflip/internal/storage"
)

// NativeAsset is the asset fees are charged in.
const NativeAsset = "native"

// MintAccount is the journal source of credited funds.
const MintAccount = "mint"

// Authority proves control of a source address.
type Authority interface {
	Controls(addr string) bool
}

// Owner is the authority of a plain account acting for itself. It never
// controls a derived escrow address.
type Owner string

func (o Owner) Controls(addr string) bool {
	return string(o) == addr && addr != "" && !escrow.IsDerived(addr)
}

type Transfer struct {
	From      string
	To        string
	Authority Authority
	Asset     string
	Amount    int64
	PoolID    *uint64
	Memo      string
}

// Move executes t inside tx. The source row is locked before the balance is
// checked, so concurrent debits of one account serialize.
func Move(ctx context.Context, tx storage.Tx, t Transfer) (transfers.Record, error) {
	if t.Amount <= 0 || t.From == t.To || t.To == "" || t.Asset == "" {
		return transfers.Record{}, apperr.ErrInvalidTransfer
	}

	if t.Authority == nil || !t.Authority.Controls(t.From) {
		return transfers.Record{}, apperr.ErrOwnerMismatch
	}

	bal, err := tx.Balances().LockAndGetBalance(ctx, t.From, t.Asset)
	if err != nil {
		return transfers.Record{}, fmt.Errorf("lock source balance: %w", err)
	}

	if bal < t.Amount {
		return transfers.Record{}, fmt.Errorf("pre-check %s %s: %w", t.From, t.Asset, apperr.ErrInsufficientFunds)
	}

	err = tx.Balances().DecreaseBalance(ctx, t.From, t.Asset, t.Amount)
	if err != nil {
		return transfers.Record{}, fmt.Errorf("debit %s: %w", t.From, err)
	}

	err = tx.Balances().IncreaseBalance(ctx, t.To, t.Asset, t.Amount)
	if err != nil {
		return transfers.Record{}, fmt.Errorf("credit %s: %w", t.To, err)
	}

	return journal(ctx, tx, t)
}

func journal(ctx context.Context, tx storage.Tx, t Transfer) (transfers.Record, error) {
	rec := transfers.Record{
		ID:        uuid.New(),
		From:      t.From,
		To:        t.To,
		Asset:     t.Asset,
		Amount:    t.Amount,
		PoolID:    t.PoolID,
		Memo:      t.Memo,
		CreatedAt: time.Now().UTC(),
	}

	err := tx.Transfers().Insert(ctx, rec)
	if err != nil {
		return transfers.Record{}, fmt.Errorf("insert transfer: %w", err)
	}

	return rec, nil
}

// Service is the standalone entry point for balance reads and faucet credits.
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

func New(store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, logger: logger.With("component", "ledger")}
}

// Credit mints amount of asset into to. Derived escrow addresses cannot be
// credited from outside the pool lifecycle.
func (s *Service) Credit(ctx context.Context, to, asset string, amount int64) error {
	if amount <= 0 || to == "" || asset == "" || escrow.IsDerived(to) {
		return apperr.ErrInvalidTransfer
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		err := tx.Balances().IncreaseBalance(ctx, to, asset, amount)
		if err != nil {
			return fmt.Errorf("credit %s: %w", to, err)
		}

		_, err = journal(ctx, tx, Transfer{From: MintAccount, To: to, Asset: asset, Amount: amount, Memo: "credit"})
		return err
	})
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}

	s.logger.Info("account credited", "owner", to, "asset", asset, "amount", amount)

	return nil
}

func (s *Service) Balance(ctx context.Context, owner, asset string) (int64, error) {
	var bal int64

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		bal, err = tx.Balances().GetBalance(ctx, owner, asset)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return bal, nil
}

// PoolTransfers returns the journal entries tagged with poolID.
func (s *Service) PoolTransfers(ctx context.Context, poolID uint64) ([]transfers.Record, error) {
	var out []transfers.Record

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.Transfers().ListByPool(ctx, poolID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list pool transfers: %w", err)
	}

	return out, nil
}
