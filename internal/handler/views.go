package handler

import (
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
)

// MarketView is the read model returned by the HTTP surface: market metadata
// plus the per-outcome running totals.
type MarketView struct {
	Market model.Market                      `json:"market"`
	Totals map[model.Outcome]decimal.Decimal `json:"totals"`
	Pool   decimal.Decimal                   `json:"pool"`
}

func newMarketView(st *ledger.State) MarketView {
	totals := make(map[model.Outcome]decimal.Decimal, len(model.Outcomes))
	for _, o := range model.Outcomes {
		totals[o] = st.Bets.TotalOf(o)
	}
	return MarketView{
		Market: st.Market,
		Totals: totals,
		Pool:   st.Bets.TotalPool(),
	}
}

type PositionView struct {
	MarketID string                            `json:"market_id"`
	Account  string                            `json:"account"`
	Stakes   map[model.Outcome]decimal.Decimal `json:"stakes"`
	Claimed  bool                              `json:"claimed"`
}

type EstimateView struct {
	MarketID string          `json:"market_id"`
	Account  string          `json:"account"`
	Result   model.Result    `json:"result"`
	Payout   decimal.Decimal `json:"payout"`
}

type OddsView struct {
	MarketID string          `json:"market_id"`
	Home     decimal.Decimal `json:"home"`
	Away     decimal.Decimal `json:"away"`
}

type ClaimView struct {
	MarketID string         `json:"market_id"`
	Receiver string         `json:"receiver"`
	Transfer model.Transfer `json:"transfer"`
}
