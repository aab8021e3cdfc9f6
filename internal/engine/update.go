package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/pkg/logger"
	"github.com/oddsmill/settler/internal/pricing"
)

// UpdateMarketParams carries the admin-updatable fields. Every field is
// optional: nil leaves the current value unchanged. Supplied fields are
// validated individually and committed together.
type UpdateMarketParams struct {
	Admin    *string `json:"admin,omitempty"`
	Treasury *string `json:"treasury,omitempty"`
	FeeBps   *int64  `json:"fee_bps,omitempty"`

	StartTime *int64 `json:"start_time,omitempty"`

	OddsHome *decimal.Decimal `json:"odds_home,omitempty"`
	OddsAway *decimal.Decimal `json:"odds_away,omitempty"`

	FeeSpreadBps     *int64           `json:"fee_spread_bps,omitempty"`
	MaxBetRiskFactor *decimal.Decimal `json:"max_bet_risk_factor,omitempty"`
	SeedAmplifier    *decimal.Decimal `json:"seed_amplifier,omitempty"`
	LiveRepricing    *bool            `json:"live_repricing,omitempty"`
}

// UpdateMarket applies a partial configuration update. Admin-only, and only
// while the market is still ACTIVE.
func (e *Engine) UpdateMarket(ctx context.Context, caller, marketID string, p UpdateMarketParams) (*ledger.State, error) {
	unlock := e.lockMarket(marketID)
	defer unlock()

	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(st, caller); err != nil {
		return nil, err
	}
	if err := requireActive(st); err != nil {
		return nil, err
	}

	cfg := st.Config
	market := st.Market

	if p.Admin != nil {
		if *p.Admin == "" {
			return nil, apperrors.NewInvalidRequest("admin identity cannot be empty")
		}
		cfg.Admin = *p.Admin
	}
	if p.Treasury != nil {
		if *p.Treasury == "" {
			return nil, apperrors.NewInvalidRequest("treasury identity cannot be empty")
		}
		cfg.Treasury = *p.Treasury
	}
	if p.FeeBps != nil {
		cfg.FeeBps = *p.FeeBps
	}
	if p.StartTime != nil {
		if *p.StartTime <= 0 {
			return nil, apperrors.NewInvalidRequest("start time must be positive")
		}
		market.StartTime = *p.StartTime
	}
	if p.FeeSpreadBps != nil {
		cfg.FeeSpreadBps = *p.FeeSpreadBps
	}
	if p.MaxBetRiskFactor != nil {
		cfg.MaxBetRiskFactor = *p.MaxBetRiskFactor
	}
	if p.SeedAmplifier != nil {
		cfg.SeedAmplifier = *p.SeedAmplifier
	}
	if p.LiveRepricing != nil {
		cfg.LiveRepricing = *p.LiveRepricing
	}
	if err := cfg.Validate(market.Strategy); err != nil {
		return nil, err
	}

	if p.OddsHome != nil || p.OddsAway != nil {
		if market.Strategy != model.StrategyFixedOdds {
			return nil, apperrors.NewInvalidRequest("market does not quote odds")
		}
		if p.OddsHome != nil {
			home := pricing.TruncateOdds(*p.OddsHome)
			if home.LessThan(model.MinOddsQuote) {
				return nil, apperrors.Newf(apperrors.ErrPricing, "odds %s below 1.00", home.String())
			}
			market.OddsHome = home
		}
		if p.OddsAway != nil {
			away := pricing.TruncateOdds(*p.OddsAway)
			if away.LessThan(model.MinOddsQuote) {
				return nil, apperrors.Newf(apperrors.ErrPricing, "odds %s below 1.00", away.String())
			}
			market.OddsAway = away
		}
	}

	st.Config = cfg
	st.Market = market
	if err := e.store.Commit(ctx, st); err != nil {
		return nil, err
	}
	logger.Info("market updated", "market_id", marketID)
	return st, nil
}
