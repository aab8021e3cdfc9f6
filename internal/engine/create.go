package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/pkg/logger"
	"github.com/oddsmill/settler/internal/pricing"
)

type CreateMarketParams struct {
	Config   model.MarketConfig `json:"config"`
	ID       string             `json:"id"`
	Label    string             `json:"label"`
	HomeTeam string             `json:"home_team"`
	AwayTeam string             `json:"away_team"`

	StartTime int64              `json:"start_time"`
	Drawable  bool               `json:"drawable"`
	Strategy  model.StrategyKind `json:"strategy"`

	// Initial quoted odds; fixed-odds only.
	OddsHome decimal.Decimal `json:"odds_home"`
	OddsAway decimal.Decimal `json:"odds_away"`

	// Attached payment, held as seed liquidity.
	Funds []model.Coin `json:"funds"`
}

// CreateMarket instantiates a market in ACTIVE state. The caller must be the
// identity named as administrator in the config; anything else is a fatal
// setup error.
func (e *Engine) CreateMarket(ctx context.Context, caller string, p CreateMarketParams) (*ledger.State, error) {
	if !p.Strategy.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown strategy %q", p.Strategy)
	}
	if caller == "" || caller != p.Config.Admin {
		return nil, apperrors.NewUnauthorized("market creator must be the configured administrator")
	}
	if err := p.Config.Validate(p.Strategy); err != nil {
		return nil, err
	}
	if p.StartTime <= 0 {
		return nil, apperrors.NewInvalidRequest("start time is required")
	}
	if p.Label == "" {
		return nil, apperrors.NewInvalidRequest("label is required")
	}

	market := model.Market{
		ID:        p.ID,
		Label:     p.Label,
		HomeTeam:  p.HomeTeam,
		AwayTeam:  p.AwayTeam,
		StartTime: p.StartTime,
		Status:    model.StatusActive,
		Strategy:  p.Strategy,
	}
	if market.ID == "" {
		market.ID = uuid.NewString()
	}

	switch p.Strategy {
	case model.StrategyParimutuel:
		market.Drawable = p.Drawable
	case model.StrategyFixedOdds:
		// Fixed-odds markets are strictly two-way.
		home := pricing.TruncateOdds(p.OddsHome)
		away := pricing.TruncateOdds(p.OddsAway)
		if home.LessThan(model.MinOddsQuote) || away.LessThan(model.MinOddsQuote) {
			return nil, apperrors.Newf(apperrors.ErrPricing, "initial odds must be at least 1.00, got %s / %s", home.String(), away.String())
		}
		market.OddsHome = home
		market.OddsAway = away
		market.InitialOddsHome = home
		market.InitialOddsAway = away
	}

	if len(p.Funds) > 0 {
		seed, err := requirePayment(p.Config.Denom, p.Funds)
		if err != nil {
			return nil, err
		}
		market.Balance = seed
	}

	st := ledger.NewState(p.Config, market)
	if err := e.store.Create(ctx, st); err != nil {
		return nil, err
	}

	logger.Info("market created",
		"market_id", market.ID, "strategy", string(p.Strategy),
		"start_time", p.StartTime, "seed", market.Balance.String())
	return st, nil
}
