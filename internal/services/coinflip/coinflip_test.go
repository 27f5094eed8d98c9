package coinflip

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/coinflip/internal/apperr"
	"github.com/fastprodman/coinflip/internal/escrow"
	"github.com/fastprodman/coinflip/internal/oracle"
	"github.com/fastprodman/coinflip/internal/oracle/oracletest"
	"github.com/fastprodman/coinflip/internal/oracle/vrf"
	"github.com/fastprodman/coinflip/internal/repos/pools"
	"github.com/fastprodman/coinflip/internal/repos/transfers"
	"github.com/fastprodman/coinflip/internal/services/admin"
	"github.com/fastprodman/coinflip/internal/services/ledger"
	"github.com/fastprodman/coinflip/internal/storage"
	"github.com/fastprodman/coinflip/internal/storage/memory"
)

const (
	token          = "SPINX"
	treasuryWallet = "treasury"
	fee            = int64(1)
	minBet         = int64(10)
)

type env struct {
	svc    *Service
	store  *memory.Store
	oracle *oracletest.Fake
	ledger *ledger.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.New()
	fake := oracletest.New()
	ctx := t.Context()

	_, err := admin.New(store, nil).Initialize(ctx, admin.InitParams{
		Admin:        "admin",
		Treasury:     treasuryWallet,
		TokenMint:    token,
		FeeAmount:    fee,
		MinBetAmount: minBet,
	})
	require.NoError(t, err)

	led := ledger.New(store, nil)
	for _, who := range []string{"alice", "bob", "carol"} {
		require.NoError(t, led.Credit(ctx, who, token, 1_000))
		require.NoError(t, led.Credit(ctx, who, ledger.NativeAsset, 100))
	}

	return &env{
		svc:    New(store, fake, nil, nil),
		store:  store,
		oracle: fake,
		ledger: led,
	}
}

func (e *env) balance(t *testing.T, owner, asset string) int64 {
	t.Helper()

	bal, err := e.ledger.Balance(t.Context(), owner, asset)
	require.NoError(t, err)

	return bal
}

// snapshot captures everything a pool operation could possibly touch.
type snapshot struct {
	pool      pools.Pool
	balances  map[string]int64
	transfers []transfers.Record
	nextID    uint64
}

func (e *env) snapshot(t *testing.T, poolID uint64) snapshot {
	t.Helper()

	ctx := t.Context()
	snap := snapshot{balances: make(map[string]int64)}

	err := e.store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := tx.Pools().Get(ctx, poolID)
		if err != nil {
			return err
		}
		snap.pool = p

		owners := []string{"alice", "bob", "carol", treasuryWallet, p.EscrowAddress}
		for _, o := range owners {
			for _, a := range []string{token, ledger.NativeAsset} {
				b, err := tx.Balances().GetBalance(ctx, o, a)
				if err != nil {
					return err
				}
				snap.balances[o+"/"+a] = b
			}
		}

		snap.transfers, err = tx.Transfers().ListByPool(ctx, poolID)
		if err != nil {
			return err
		}

		cfg, err := tx.Registry().Get(ctx)
		snap.nextID = cfg.NextPoolID
		return err
	})
	require.NoError(t, err)

	return snap
}

func seedOf(b byte) oracle.Seed {
	var s oracle.Seed
	s[0] = b
	s[31] = 0xff
	return s
}

// randomnessFor returns an oracle output that makes poolID land on bit.
func randomnessFor(t *testing.T, poolID uint64, bit uint8) [oracle.RandomnessSize]byte {
	t.Helper()

	var r [oracle.RandomnessSize]byte
	r[1] = 1
	for i := 0; i < 256; i++ {
		r[0] = byte(i)
		if OutcomeBit(poolID, r) == bit {
			return r
		}
	}

	t.Fatalf("no randomness found for pool %d bit %d", poolID, bit)
	return r
}

func (e *env) createAndJoin(t *testing.T, amount int64, seed oracle.Seed) pools.Pool {
	t.Helper()

	ctx := t.Context()

	p, err := e.svc.Create(ctx, "alice", SideHeads, amount)
	require.NoError(t, err)

	p, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: SideTails, Amount: amount, Seed: seed})
	require.NoError(t, err)

	return p
}

func TestCreate_OpensPoolWithEscrow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		side   uint8
		amount int64
	}{
		{name: "min_bet_heads", side: SideHeads, amount: minBet},
		{name: "above_min_tails", side: SideTails, amount: 333},
		{name: "whole_balance", side: SideHeads, amount: 1_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)

			p, err := e.svc.Create(t.Context(), "alice", tt.side, tt.amount)
			require.NoError(t, err)

			assert.Equal(t, uint64(1), p.ID)
			assert.Equal(t, pools.StatusOpen, p.Status)
			assert.Equal(t, tt.amount, p.TotalEscrowed)
			assert.Equal(t, escrow.ForPool(1).Address, p.EscrowAddress)
			assert.Equal(t, token, p.Asset)
			assert.Nil(t, p.Joiner)
			assert.Empty(t, p.Winner)

			assert.Equal(t, tt.amount, e.balance(t, p.EscrowAddress, token))
			assert.Equal(t, 1_000-tt.amount, e.balance(t, "alice", token))
			assert.Equal(t, fee, e.balance(t, treasuryWallet, ledger.NativeAsset))
			assert.Equal(t, 100-fee, e.balance(t, "alice", ledger.NativeAsset))

			stored, err := e.svc.Get(t.Context(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, p, stored)
		})
	}
}

func TestCreate_Rejected_NoStateChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creator string
		side    uint8
		amount  int64
		wantErr error
	}{
		{name: "below_min_bet", creator: "alice", side: SideHeads, amount: minBet - 1, wantErr: apperr.ErrAmountTooSmall},
		{name: "zero_amount", creator: "alice", side: SideHeads, amount: 0, wantErr: apperr.ErrAmountTooSmall},
		{name: "side_out_of_range", creator: "alice", side: 2, amount: minBet, wantErr: apperr.ErrInvalidNumber},
		{name: "escrow_as_creator", creator: escrow.ForPool(5).Address, side: SideHeads, amount: minBet, wantErr: apperr.ErrInvalidCreator},
		{name: "empty_creator", creator: "", side: SideHeads, amount: minBet, wantErr: apperr.ErrInvalidCreator},
		{name: "insufficient_stake", creator: "alice", side: SideHeads, amount: 1_001, wantErr: apperr.ErrInsufficientFunds},
		{name: "unfunded_fee", creator: "dave", side: SideHeads, amount: minBet, wantErr: apperr.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			ctx := t.Context()

			_, err := e.svc.Create(ctx, tt.creator, tt.side, tt.amount)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, int64(1_000), e.balance(t, "alice", token))
			assert.Equal(t, int64(100), e.balance(t, "alice", ledger.NativeAsset))
			assert.Zero(t, e.balance(t, treasuryWallet, ledger.NativeAsset))

			// the failed call did not consume an id
			p, err := e.svc.Create(ctx, "bob", SideHeads, minBet)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), p.ID)
		})
	}
}

func TestCreate_TreasuryWalletCanPlay(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	require.NoError(t, e.ledger.Credit(ctx, treasuryWallet, token, 100))
	require.NoError(t, e.ledger.Credit(ctx, treasuryWallet, ledger.NativeAsset, fee))

	p, err := e.svc.Create(ctx, treasuryWallet, SideHeads, 100)
	require.NoError(t, err)
	assert.Equal(t, pools.StatusOpen, p.Status)

	assert.Equal(t, fee, e.balance(t, treasuryWallet, ledger.NativeAsset))
	assert.Zero(t, e.balance(t, treasuryWallet, token))
}

func TestCreate_NotInitialized(t *testing.T) {
	t.Parallel()

	svc := New(memory.New(), oracletest.New(), nil, nil)

	_, err := svc.Create(t.Context(), "alice", SideHeads, minBet)
	require.ErrorIs(t, err, apperr.ErrNotInitialized)
}

func TestCreate_UnfundedStakeRollsBackFee(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	// native for the fee but no tokens for the stake
	require.NoError(t, e.ledger.Credit(ctx, "dave", ledger.NativeAsset, 5))

	_, err := e.svc.Create(ctx, "dave", SideHeads, minBet)
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	assert.Equal(t, int64(5), e.balance(t, "dave", ledger.NativeAsset))
	assert.Zero(t, e.balance(t, treasuryWallet, ledger.NativeAsset))
	assert.Zero(t, e.balance(t, escrow.ForPool(1).Address, token))

	_, err = e.svc.Get(ctx, 1)
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)
}

func TestCreate_ConcurrentGetDistinctIDs(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	// move the counter to n = 4
	for i := 0; i < 3; i++ {
		_, err := e.svc.Create(ctx, "carol", SideHeads, minBet)
		require.NoError(t, err)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []uint64
	)

	for _, who := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(who string) {
			defer wg.Done()

			p, err := e.svc.Create(context.Background(), who, SideTails, minBet)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}

			mu.Lock()
			ids = append(ids, p.ID)
			mu.Unlock()
		}(who)
	}

	wg.Wait()

	assert.ElementsMatch(t, []uint64{4, 5}, ids)
}

func TestJoin_MovesToAwaitingRandomness(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seed := seedOf(1)

	p := e.createAndJoin(t, 100, seed)

	assert.Equal(t, pools.StatusAwaitingRandomness, p.Status)
	assert.Equal(t, int64(200), p.TotalEscrowed)
	require.NotNil(t, p.Joiner)
	assert.Equal(t, pools.Bettor{Player: "bob", Amount: 100, Side: SideTails}, *p.Joiner)
	assert.NotEqual(t, p.Creator.Side, p.Joiner.Side)
	assert.Equal(t, seed[:], p.CommittedSeed)

	assert.Equal(t, int64(200), e.balance(t, p.EscrowAddress, token))
	assert.Equal(t, int64(900), e.balance(t, "bob", token))
	assert.Equal(t, 2*fee, e.balance(t, treasuryWallet, ledger.NativeAsset))
	assert.Equal(t, 1, e.oracle.Requests(seed))
}

func TestJoin_SameSideAlwaysInvalidNumber(t *testing.T) {
	t.Parallel()

	for _, side := range []uint8{SideHeads, SideTails} {
		e := newEnv(t)
		ctx := t.Context()

		p, err := e.svc.Create(ctx, "alice", side, 100)
		require.NoError(t, err)

		before := e.snapshot(t, p.ID)

		_, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: side, Amount: 100, Seed: seedOf(1)})
		require.ErrorIs(t, err, apperr.ErrInvalidNumber)

		assert.Equal(t, before, e.snapshot(t, p.ID))
		assert.Zero(t, e.oracle.Requests(seedOf(1)))
	}
}

func TestJoin_AmountMismatchAlwaysInvalidAmount(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
	require.NoError(t, err)

	before := e.snapshot(t, p.ID)

	for _, amount := range []int64{-100, 0, 1, 10, 99, 101, 200, 1_000, 1 << 40} {
		_, err := e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: SideTails, Amount: amount, Seed: seedOf(1)})
		require.ErrorIs(t, err, apperr.ErrInvalidAmount, "amount %d", amount)
	}

	assert.Equal(t, before, e.snapshot(t, p.ID))
}

func TestJoin_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prepare func(t *testing.T, e *env, poolID uint64)
		params  func(poolID uint64) JoinParams
		wantErr error
	}{
		{
			name: "creator_joins_own_pool",
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "alice", Side: SideTails, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrInvalidJoiner,
		},
		{
			name: "side_out_of_range",
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "bob", Side: 7, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrInvalidNumber,
		},
		{
			name: "zero_seed",
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "bob", Side: SideTails, Amount: 100}
			},
			wantErr: apperr.ErrInvalidSeed,
		},
		{
			name: "unknown_pool",
			params: func(uint64) JoinParams {
				return JoinParams{PoolID: 99, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrPoolNotFound,
		},
		{
			name: "joiner_cannot_pay",
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "dave", Side: SideTails, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrInsufficientFunds,
		},
		{
			name: "already_joined",
			prepare: func(t *testing.T, e *env, id uint64) {
				_, err := e.svc.Join(t.Context(), JoinParams{PoolID: id, Joiner: "carol", Side: SideTails, Amount: 100, Seed: seedOf(9)})
				require.NoError(t, err)
			},
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrAlreadyDrawn,
		},
		{
			name: "seed_reused_from_other_pool",
			prepare: func(t *testing.T, e *env, _ uint64) {
				other, err := e.svc.Create(t.Context(), "carol", SideHeads, 50)
				require.NoError(t, err)
				_, err = e.svc.Join(t.Context(), JoinParams{PoolID: other.ID, Joiner: "bob", Side: SideTails, Amount: 50, Seed: seedOf(1)})
				require.NoError(t, err)
			},
			params: func(id uint64) JoinParams {
				return JoinParams{PoolID: id, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seedOf(1)}
			},
			wantErr: apperr.ErrSeedReused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			ctx := t.Context()

			p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
			require.NoError(t, err)

			if tt.prepare != nil {
				tt.prepare(t, e, p.ID)
			}

			before := e.snapshot(t, p.ID)

			_, err = e.svc.Join(ctx, tt.params(p.ID))
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, before, e.snapshot(t, p.ID))
		})
	}
}

func TestJoin_OracleFailureRollsBack(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()
	boom := errors.New("oracle down")

	p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
	require.NoError(t, err)

	before := e.snapshot(t, p.ID)

	e.oracle.FailRequests(boom)
	_, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seedOf(1)})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, before, e.snapshot(t, p.ID))

	e.oracle.FailRequests(nil)
	_, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seedOf(1)})
	require.NoError(t, err)
}

func TestJoin_PreviouslyRequestedSeedRejected(t *testing.T) {
	t.Parallel()

	key, err := vrf.ParseSigningKey("")
	require.NoError(t, err)
	oc := vrf.New(key, memory.NewRequests(), nil)

	e := newEnv(t)
	e.svc = New(e.store, oc, nil, nil)
	ctx := t.Context()

	p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
	require.NoError(t, err)

	// a seed whose output is already public and favours the joiner
	var seed oracle.Seed
	for i := byte(1); ; i++ {
		seed = seedOf(i)
		_, err = oc.Request(ctx, seed)
		require.NoError(t, err)
		_, err = oc.FulfillPending(ctx, 1)
		require.NoError(t, err)

		res, err := oc.Fulfill(ctx, oracle.TicketFor(seed))
		require.NoError(t, err)
		require.True(t, res.Fulfilled)

		if OutcomeBit(p.ID, res.Randomness) == SideTails {
			break
		}
	}

	before := e.snapshot(t, p.ID)

	_, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "bob", Side: SideTails, Amount: 100, Seed: seed})
	require.ErrorIs(t, err, apperr.ErrSeedReused)

	assert.Equal(t, before, e.snapshot(t, p.ID))

	_, err = e.svc.Settle(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)
}

func TestSettle_PendingLeavesStateIdentical(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()
	p := e.createAndJoin(t, 100, seedOf(1))

	before := e.snapshot(t, p.ID)

	for i := 0; i < 3; i++ {
		_, err := e.svc.Settle(ctx, p.ID)
		require.ErrorIs(t, err, apperr.ErrStillProcessing)
		assert.Equal(t, apperr.KindTransient, apperr.KindOf(err))
	}

	assert.Equal(t, before, e.snapshot(t, p.ID))
}

func TestSettle_PaysExactlyOneParty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bit        uint8
		wantWinner string
	}{
		{name: "joiner_side_drawn", bit: SideTails, wantWinner: "bob"},
		{name: "creator_side_drawn", bit: SideHeads, wantWinner: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t)
			ctx := t.Context()
			seed := seedOf(1)
			p := e.createAndJoin(t, 100, seed)

			r := randomnessFor(t, p.ID, tt.bit)
			e.oracle.Publish(seed, r)

			settled, err := e.svc.Settle(ctx, p.ID)
			require.NoError(t, err)

			assert.Equal(t, pools.StatusSettled, settled.Status)
			assert.Equal(t, tt.wantWinner, settled.Winner)
			assert.Zero(t, settled.TotalEscrowed)
			assert.Equal(t, r[:], settled.Randomness)
			assert.NotNil(t, settled.ClosedAt)

			assert.Zero(t, e.balance(t, p.EscrowAddress, token))
			assert.Equal(t, int64(1_100), e.balance(t, tt.wantWinner, token))
			loser := "alice"
			if tt.wantWinner == "alice" {
				loser = "bob"
			}
			assert.Equal(t, int64(900), e.balance(t, loser, token))

			after := e.snapshot(t, p.ID)

			_, err = e.svc.Settle(ctx, p.ID)
			require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)

			assert.Equal(t, after, e.snapshot(t, p.ID), "second settle must not transfer")

			_, err = e.svc.Join(ctx, JoinParams{PoolID: p.ID, Joiner: "carol", Side: SideTails, Amount: 100, Seed: seedOf(2)})
			require.ErrorIs(t, err, apperr.ErrAlreadyDrawn)
		})
	}
}

func TestSettle_ConcurrentPaysOnce(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seed := seedOf(1)
	p := e.createAndJoin(t, 100, seed)
	e.oracle.Publish(seed, randomnessFor(t, p.ID, SideTails))

	const callers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, bad int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := e.svc.Settle(context.Background(), p.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrInvalidPoolStatus):
				bad++
			default:
				t.Errorf("unexpected: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, bad)
	assert.Equal(t, int64(1_100), e.balance(t, "bob", token))
}

func TestSettle_WrongStatus(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
	require.NoError(t, err)

	_, err = e.svc.Settle(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)

	_, err = e.svc.Cancel(ctx, p.ID, "alice")
	require.NoError(t, err)

	_, err = e.svc.Settle(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)

	_, err = e.svc.Settle(ctx, 404)
	require.ErrorIs(t, err, apperr.ErrPoolNotFound)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	p, err := e.svc.Create(ctx, "alice", SideHeads, 100)
	require.NoError(t, err)

	_, err = e.svc.Cancel(ctx, p.ID, "bob")
	require.ErrorIs(t, err, apperr.ErrInvalidCreator)

	_, err = e.svc.Cancel(ctx, p.ID, "")
	require.ErrorIs(t, err, apperr.ErrInvalidCreator)

	c, err := e.svc.Cancel(ctx, p.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, pools.StatusCancelled, c.Status)
	assert.Zero(t, c.TotalEscrowed)
	assert.Empty(t, c.Winner)

	assert.Equal(t, int64(1_000), e.balance(t, "alice", token))
	assert.Zero(t, e.balance(t, p.EscrowAddress, token))
	// the fee is not refunded
	assert.Equal(t, fee, e.balance(t, treasuryWallet, ledger.NativeAsset))

	_, err = e.svc.Cancel(ctx, p.ID, "alice")
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)
}

func TestCancel_AfterJoinFailsForEveryCaller(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()
	p := e.createAndJoin(t, 100, seedOf(1))

	before := e.snapshot(t, p.ID)

	for _, caller := range []string{"alice", "bob", "carol", "admin", p.EscrowAddress, ""} {
		_, err := e.svc.Cancel(ctx, p.ID, caller)
		require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus, "caller %q", caller)
	}

	assert.Equal(t, before, e.snapshot(t, p.ID))
}

func TestScenario_JoinerWinsDoubleStake(t *testing.T) {
	t.Parallel()

	store := memory.New()
	fake := oracletest.New()
	ctx := t.Context()

	_, err := admin.New(store, nil).Initialize(ctx, admin.InitParams{
		Admin: "admin", Treasury: treasuryWallet, TokenMint: token, FeeAmount: 0, MinBetAmount: 10,
	})
	require.NoError(t, err)

	led := ledger.New(store, nil)
	require.NoError(t, led.Credit(ctx, "creator", token, 100))
	require.NoError(t, led.Credit(ctx, "joiner", token, 100))

	svc := New(store, fake, nil, nil)

	p, err := svc.Create(ctx, "creator", 0, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.ID)

	seed := seedOf(42)
	_, err = svc.Join(ctx, JoinParams{PoolID: 1, Joiner: "joiner", Side: 1, Amount: 100, Seed: seed})
	require.NoError(t, err)

	fake.Publish(seed, randomnessFor(t, 1, 1))

	settled, err := svc.Settle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, pools.StatusSettled, settled.Status)
	assert.Equal(t, "joiner", settled.Winner)

	joinerBal, err := led.Balance(ctx, "joiner", token)
	require.NoError(t, err)
	assert.Equal(t, int64(200), joinerBal)

	creatorBal, err := led.Balance(ctx, "creator", token)
	require.NoError(t, err)
	assert.Zero(t, creatorBal)
}

func TestScenario_CancelRefundsThenJoinFails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	_, err := e.svc.Create(ctx, "carol", SideHeads, minBet)
	require.NoError(t, err)

	p, err := e.svc.Create(ctx, "alice", SideHeads, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(2), p.ID)
	assert.Equal(t, int64(950), e.balance(t, "alice", token))

	c, err := e.svc.Cancel(ctx, 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, pools.StatusCancelled, c.Status)
	assert.Equal(t, int64(1_000), e.balance(t, "alice", token))

	_, err = e.svc.Join(ctx, JoinParams{PoolID: 2, Joiner: "bob", Side: SideTails, Amount: 50, Seed: seedOf(1)})
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)
}

func TestList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := t.Context()

	_, err := e.svc.Create(ctx, "alice", SideHeads, minBet)
	require.NoError(t, err)
	e.createAndJoin(t, 20, seedOf(1))

	open, err := e.svc.List(ctx, pools.Filter{Status: pools.StatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, uint64(1), open[0].ID)

	all, err := e.svc.List(ctx, pools.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = e.svc.List(ctx, pools.Filter{Status: "weird"})
	require.ErrorIs(t, err, apperr.ErrInvalidPoolStatus)
}

func TestOutcomeBit(t *testing.T) {
	t.Parallel()

	var r [oracle.RandomnessSize]byte
	r[5] = 7

	assert.Equal(t, OutcomeBit(1, r), OutcomeBit(1, r))

	// both sides occur and the pool id takes part in the draw
	seen := map[uint8]bool{}
	differs := false
	for id := uint64(1); id <= 64; id++ {
		b := OutcomeBit(id, r)
		seen[b] = true
		if b != OutcomeBit(1, r) {
			differs = true
		}
	}
	assert.True(t, seen[0] && seen[1])
	assert.True(t, differs)
}
