package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/events"
	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/pkg/metrics"
	"github.com/oddsmill/settler/internal/pricing"
)

type PlaceBetParams struct {
	Outcome model.Outcome `json:"outcome"`

	// Receiver owns the resulting claim; defaults to the payer.
	Receiver string `json:"receiver,omitempty"`

	// MinOdds rejects the bet if the quoted odds for the chosen side have
	// moved below it. Fixed-odds only; zero disables the guard.
	MinOdds decimal.Decimal `json:"min_odds,omitempty"`

	// Funds is the attached payment: exactly one coin in the market denom.
	Funds []model.Coin `json:"funds"`
}

// PlaceBet accepts a stake on an outcome. The payer funds the stake; the
// receiver (payer by default) owns the claim. No payout computation happens
// here; with live repricing enabled the fixed-odds quote is refreshed after
// the ledger credit.
func (e *Engine) PlaceBet(ctx context.Context, caller, marketID string, p PlaceBetParams) (*ledger.State, error) {
	unlock := e.lockMarket(marketID)
	defer unlock()

	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(st); err != nil {
		metrics.Rejects.WithLabelValues("lifecycle").Inc()
		return nil, err
	}
	if !st.Market.BetsOpenAt(e.now()) {
		metrics.Rejects.WithLabelValues("timing").Inc()
		return nil, apperrors.New(apperrors.ErrTiming, "bets are not accepted this close to the start", nil)
	}
	if !p.Outcome.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown outcome %q", p.Outcome)
	}
	if p.Outcome == model.OutcomeDraw && !st.Market.Drawable {
		metrics.Rejects.WithLabelValues("not_drawable").Inc()
		return nil, apperrors.NewLifecycle("market is not drawable")
	}
	amount, err := requirePayment(st.Config.Denom, p.Funds)
	if err != nil {
		metrics.Rejects.WithLabelValues("payment").Inc()
		return nil, err
	}
	if st.Market.Strategy == model.StrategyFixedOdds {
		if err := pricing.GuardMinOdds(st, p.Outcome, p.MinOdds); err != nil {
			metrics.Rejects.WithLabelValues("min_odds").Inc()
			return nil, err
		}
		if err := pricing.GuardRiskLimit(st, amount); err != nil {
			metrics.Rejects.WithLabelValues("risk_limit").Inc()
			return nil, err
		}
	}

	receiver := p.Receiver
	if receiver == "" {
		receiver = caller
	}
	if receiver == "" {
		return nil, apperrors.NewInvalidRequest("bettor identity is required")
	}

	// Balance first: live repricing derives the seed liquidity from
	// balance minus pooled volume, so the credit must land before the
	// ledger write triggers a reprice.
	st.Market.Balance = st.Market.Balance.Add(amount)
	strategy := pricing.ForKind(st.Market.Strategy)
	strategy.RecordBet(st, receiver, p.Outcome, amount)

	if err := e.store.Commit(ctx, st); err != nil {
		return nil, err
	}

	metrics.BetsTotal.WithLabelValues(string(st.Market.Strategy), string(p.Outcome)).Inc()
	e.pub.Publish(ctx, events.TopicBetPlaced, marketID, events.BetPlaced{
		MarketID: marketID,
		Payer:    caller,
		Receiver: receiver,
		Outcome:  string(p.Outcome),
		Denom:    st.Config.Denom,
		Amount:   amount.String(),
		TsUnixMs: time.Now().UnixMilli(),
	})
	return st, nil
}
