// Package engine is the settlement orchestrator. It composes the ledger, the
// pricing strategies, the store, the bank and the event publisher into the
// public operations: create, place-bet, claim, update, score and cancel.
//
// Every operation follows the same shape: load the committed snapshot,
// validate every precondition, mutate the private copy, commit, then emit
// transfers and events. Any error before commit leaves the store untouched.
// A per-market mutex serializes operations, standing in for the external
// sequencer: no two operations ever observe the same market concurrently.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/bank"
	"github.com/oddsmill/settler/internal/events"
	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/pricing"
	"github.com/oddsmill/settler/internal/repository"
)

// Clock supplies the externally sourced current time, unix seconds. Timing
// gates compare against it; injecting it keeps the boundaries testable.
type Clock func() int64

type Engine struct {
	store repository.Store
	bank  bank.Bank
	pub   events.Publisher
	clock Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store repository.Store, b bank.Bank, pub events.Publisher, clock Clock) *Engine {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if clock == nil {
		clock = func() int64 { return time.Now().Unix() }
	}
	return &Engine{
		store: store,
		bank:  b,
		pub:   pub,
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockMarket serializes operations per market id.
func (e *Engine) lockMarket(id string) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (e *Engine) now() int64 { return e.clock() }

// requireAdmin gates the operations only the configured administrator may
// perform.
func requireAdmin(st *ledger.State, caller string) error {
	if caller == "" || caller != st.Config.Admin {
		return apperrors.NewUnauthorized("caller is not the market administrator")
	}
	return nil
}

func requireActive(st *ledger.State) error {
	if st.Market.Status != model.StatusActive {
		return apperrors.Newf(apperrors.ErrLifecycle, "market is %s, not ACTIVE", st.Market.Status)
	}
	return nil
}

// requirePayment validates the shape of an attached payment: exactly one
// coin, the market's denom, strictly positive, and an integer number of
// smallest units.
func requirePayment(denom string, funds []model.Coin) (decimal.Decimal, error) {
	if len(funds) != 1 {
		return decimal.Zero, apperrors.Newf(apperrors.ErrPayment, "expected exactly one payment, got %d", len(funds))
	}
	coin := funds[0]
	if coin.Denom != denom {
		return decimal.Zero, apperrors.Newf(apperrors.ErrPayment, "payment denom %q, market settles in %q", coin.Denom, denom)
	}
	if !coin.Amount.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.ErrPayment, "payment amount must be positive", nil)
	}
	if !coin.Amount.Equal(coin.Amount.Truncate(0)) {
		return decimal.Zero, apperrors.New(apperrors.ErrPayment, "payment amount must be a whole number of units", nil)
	}
	return coin.Amount, nil
}

// GetMarket returns the committed snapshot for a market.
func (e *Engine) GetMarket(ctx context.Context, id string) (*ledger.State, error) {
	return e.store.Load(ctx, id)
}

// ListMarkets returns the committed snapshot of every market.
func (e *Engine) ListMarkets(ctx context.Context) ([]*ledger.State, error) {
	return e.store.List(ctx)
}

// Position returns an account's aggregated stake per outcome plus its claim
// flag.
func (e *Engine) Position(ctx context.Context, marketID, account string) (map[model.Outcome]decimal.Decimal, bool, error) {
	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, false, err
	}
	return st.Bets.StakesOf(account), st.Claims.IsClaimed(account), nil
}

// EstimatePayout computes what an account would be paid if the market were
// scored with the hypothetical result, using the exact settlement formula.
// Nothing is mutated and no settlement is required: the simulation runs on a
// private copy.
func (e *Engine) EstimatePayout(ctx context.Context, marketID, account string, result model.Result) (decimal.Decimal, error) {
	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return decimal.Zero, err
	}
	if !result.Valid() {
		return decimal.Zero, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown result %q", result)
	}
	sim := st.Clone()
	if sim.Market.Status == model.StatusActive {
		sim.Market.Status = model.StatusClosed
	}
	if sim.Market.Status == model.StatusClosed {
		sim.Market.Result = result
	}
	return pricing.ForKind(sim.Market.Strategy).Payout(sim, account), nil
}

// QuoteOdds reprices a fixed-odds market from its current pool imbalance.
// The quote is computed fresh and not persisted.
func (e *Engine) QuoteOdds(ctx context.Context, marketID string) (home, away decimal.Decimal, err error) {
	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	home, away, ok := pricing.ForKind(st.Market.Strategy).Reprice(st)
	if !ok {
		return decimal.Zero, decimal.Zero, apperrors.NewInvalidRequest("market does not quote odds")
	}
	return home, away, nil
}
