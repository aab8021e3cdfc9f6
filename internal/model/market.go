package model

import (
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

// Outcome is one of the finite sides a bet can be placed on.
type Outcome string

const (
	OutcomeHome Outcome = "HOME"
	OutcomeAway Outcome = "AWAY"
	OutcomeDraw Outcome = "DRAW"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHome, OutcomeAway, OutcomeDraw:
		return true
	}
	return false
}

// Outcomes lists every outcome in a fixed order. Iteration over settlement
// state must be deterministic, so code ranges over this slice, never over maps.
var Outcomes = []Outcome{OutcomeHome, OutcomeAway, OutcomeDraw}

// Result is the administrator-supplied outcome a market settled on.
type Result = Outcome

type MarketStatus string

const (
	StatusActive    MarketStatus = "ACTIVE"
	StatusClosed    MarketStatus = "CLOSED"
	StatusCancelled MarketStatus = "CANCELLED"
)

// StrategyKind selects the pricing strategy at market creation. It is a
// closed set and never changes for the life of a market.
type StrategyKind string

const (
	StrategyParimutuel StrategyKind = "PARIMUTUEL"
	StrategyFixedOdds  StrategyKind = "FIXED_ODDS"
)

func (k StrategyKind) Valid() bool {
	return k == StrategyParimutuel || k == StrategyFixedOdds
}

const (
	// BetCutoffSeconds is how long before the event start bets stop being
	// accepted. A bet at exactly start-cutoff is still accepted.
	BetCutoffSeconds int64 = 300

	// ScoreDelaySeconds is how long after the event start scoring becomes
	// possible. Scoring at exactly start+delay is accepted.
	ScoreDelaySeconds int64 = 30 * 60

	MaxFeeBpsParimutuel int64 = 1000
	MaxFeeSpreadBps     int64 = 2500
)

var (
	// Risk/liquidity multipliers must stay within [1x, 10x].
	MinMultiplier = decimal.NewFromInt(1)
	MaxMultiplier = decimal.NewFromInt(10)

	// MinOddsQuote is the lowest valid quoted odds, 1.00.
	MinOddsQuote = decimal.NewFromInt(1)
)

// MarketConfig is the per-market configuration. Identities are injected at
// creation, never compiled in. Only the admin may mutate it, and only while
// the market is ACTIVE.
type MarketConfig struct {
	Admin    string `json:"admin"`
	Treasury string `json:"treasury"`
	FeeBps   int64  `json:"fee_bps"`
	Denom    string `json:"denom"`

	// Fixed-odds tuning.
	FeeSpreadBps     int64           `json:"fee_spread_bps"`
	MaxBetRiskFactor decimal.Decimal `json:"max_bet_risk_factor"`
	SeedAmplifier    decimal.Decimal `json:"seed_amplifier"`
	LiveRepricing    bool            `json:"live_repricing"`
}

// Validate checks the config against the caps for the given strategy.
func (c MarketConfig) Validate(kind StrategyKind) error {
	if c.Admin == "" {
		return apperrors.NewInvalidRequest("admin identity is required")
	}
	if c.Treasury == "" {
		return apperrors.NewInvalidRequest("treasury identity is required")
	}
	if c.Denom == "" {
		return apperrors.NewInvalidRequest("settlement denom is required")
	}
	if c.FeeBps < 0 {
		return apperrors.Newf(apperrors.ErrPricing, "fee rate %d bps is negative", c.FeeBps)
	}
	switch kind {
	case StrategyParimutuel:
		if c.FeeBps > MaxFeeBpsParimutuel {
			return apperrors.Newf(apperrors.ErrPricing, "fee rate %d bps exceeds cap %d", c.FeeBps, MaxFeeBpsParimutuel)
		}
		// Fixed-odds tuning is inert here but still bounded when supplied;
		// zero means unset.
		if c.FeeSpreadBps < 0 || c.FeeSpreadBps > MaxFeeSpreadBps {
			return apperrors.Newf(apperrors.ErrPricing, "fee spread %d bps outside [0, %d]", c.FeeSpreadBps, MaxFeeSpreadBps)
		}
		if !c.MaxBetRiskFactor.IsZero() {
			if err := validateMultiplier("max bet risk factor", c.MaxBetRiskFactor); err != nil {
				return err
			}
		}
		if !c.SeedAmplifier.IsZero() {
			if err := validateMultiplier("seed amplifier", c.SeedAmplifier); err != nil {
				return err
			}
		}
	case StrategyFixedOdds:
		if c.FeeBps > MaxFeeBpsParimutuel {
			return apperrors.Newf(apperrors.ErrPricing, "fee rate %d bps exceeds cap %d", c.FeeBps, MaxFeeBpsParimutuel)
		}
		if c.FeeSpreadBps < 0 || c.FeeSpreadBps > MaxFeeSpreadBps {
			return apperrors.Newf(apperrors.ErrPricing, "fee spread %d bps outside [0, %d]", c.FeeSpreadBps, MaxFeeSpreadBps)
		}
		if err := validateMultiplier("max bet risk factor", c.MaxBetRiskFactor); err != nil {
			return err
		}
		if err := validateMultiplier("seed amplifier", c.SeedAmplifier); err != nil {
			return err
		}
	default:
		return apperrors.Newf(apperrors.ErrInvalidRequest, "unknown strategy %q", kind)
	}
	return nil
}

func validateMultiplier(name string, v decimal.Decimal) error {
	if v.LessThan(MinMultiplier) || v.GreaterThan(MaxMultiplier) {
		return apperrors.Newf(apperrors.ErrPricing, "%s %s outside [1, 10]", name, v.String())
	}
	return nil
}

// Market holds identity, scheduling and lifecycle status. Status transitions
// are one-way: ACTIVE -> CLOSED via score, ACTIVE -> CANCELLED via cancel.
// Result is write-once, set on the ACTIVE -> CLOSED transition.
type Market struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`

	StartTime int64        `json:"start_time"`
	Drawable  bool         `json:"drawable"`
	Status    MarketStatus `json:"status"`
	Result    Result       `json:"result,omitempty"`
	Strategy  StrategyKind `json:"strategy"`

	// Fixed-odds quoted odds, 2 decimal places. InitialOdds* anchor the
	// probability blend in repricing and never change after creation.
	OddsHome        decimal.Decimal `json:"odds_home"`
	OddsAway        decimal.Decimal `json:"odds_away"`
	InitialOddsHome decimal.Decimal `json:"initial_odds_home"`
	InitialOddsAway decimal.Decimal `json:"initial_odds_away"`

	// Balance is every unit currently in the market's custody: seed
	// liquidity plus stakes, minus payouts and fees already sent out.
	Balance decimal.Decimal `json:"balance"`
}

// OddsFor returns the quoted odds for a side of a fixed-odds market.
func (m *Market) OddsFor(o Outcome) decimal.Decimal {
	if o == OutcomeAway {
		return m.OddsAway
	}
	return m.OddsHome
}

// BetsOpenAt reports whether bets are still accepted at the given time.
// The boundary is inclusive: now == start-cutoff is the last accepted second.
func (m *Market) BetsOpenAt(now int64) bool {
	return now <= m.StartTime-BetCutoffSeconds
}

// ScoreableAt reports whether the time gate for scoring has passed.
func (m *Market) ScoreableAt(now int64) bool {
	return now >= m.StartTime+ScoreDelaySeconds
}
