package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

// FixedOdds quotes two-way odds per side and pays stake * quoted odds on the
// winning side. Quoted odds come from a probability blend between the pool's
// implied probabilities and the creation-time anchor, weighted by how much
// real volume there is relative to the amplified seed liquidity.
type FixedOdds struct{}

func (FixedOdds) Kind() model.StrategyKind { return model.StrategyFixedOdds }

func (f FixedOdds) RecordBet(st *ledger.State, account string, outcome model.Outcome, amount decimal.Decimal) {
	st.Bets.Credit(account, outcome, amount)
	if st.Config.LiveRepricing {
		if home, away, ok := f.Reprice(st); ok {
			st.Market.OddsHome = home
			st.Market.OddsAway = away
		}
	}
}

// ValidateScore rejects a DRAW result; fixed-odds markets are strictly
// two-way. There is no two-sided pool requirement: the seed liquidity backs
// payouts even when only one side attracted stake.
func (FixedOdds) ValidateScore(st *ledger.State, result model.Result) error {
	if result == model.OutcomeDraw {
		return apperrors.NewLifecycle("fixed-odds markets cannot settle on a draw")
	}
	return nil
}

// Payout on a CLOSED market is floor(stake * quoted odds) for the winning
// side. On a CANCELLED market the full stake is refunded.
func (FixedOdds) Payout(st *ledger.State, account string) decimal.Decimal {
	if st.Market.Status == model.StatusCancelled {
		return st.Bets.TotalStakeOf(account)
	}
	winner := st.Market.Result
	stake := st.Bets.StakeOf(account, winner)
	if !stake.IsPositive() {
		return decimal.Zero
	}
	return stake.Mul(st.Market.OddsFor(winner)).Floor()
}

func (FixedOdds) SettlementFee(st *ledger.State) decimal.Decimal {
	return feeOf(st.Bets.TotalPool(), st.Config.FeeBps)
}

// Reprice computes new quoted odds for both sides from the current pool
// imbalance:
//
//	seed   = balance - home_total - away_total
//	p0     = 1 / initial_odds
//	pd     = side_total / volume            (0 when volume is 0)
//	weight = volume / (volume + seed * amplifier)
//	p_new  = (pd*weight + p0*(1-weight)) * (1 + fee_spread)
//	odds   = truncate(1/p_new, 2)
//
// The function is pure; it never writes the state it reads.
func (FixedOdds) Reprice(st *ledger.State) (decimal.Decimal, decimal.Decimal, bool) {
	homeTotal := st.Bets.TotalOf(model.OutcomeHome)
	awayTotal := st.Bets.TotalOf(model.OutcomeAway)
	volume := homeTotal.Add(awayTotal)

	seed := st.Market.Balance.Sub(volume)
	if seed.IsNegative() {
		seed = decimal.Zero
	}

	weight := decimal.Zero
	weightDen := volume.Add(seed.Mul(st.Config.SeedAmplifier))
	if weightDen.IsPositive() {
		weight = volume.Div(weightDen)
	}

	spread := one.Add(decimal.NewFromInt(st.Config.FeeSpreadBps).Div(bpsDenominator))

	home := repriceSide(homeTotal, volume, st.Market.InitialOddsHome, weight, spread)
	away := repriceSide(awayTotal, volume, st.Market.InitialOddsAway, weight, spread)
	return home, away, true
}

func repriceSide(sideTotal, volume, initialOdds, weight, spread decimal.Decimal) decimal.Decimal {
	p0 := one.Div(initialOdds)
	derived := decimal.Zero
	if volume.IsPositive() {
		derived = sideTotal.Div(volume)
	}
	pNew := derived.Mul(weight).Add(p0.Mul(one.Sub(weight))).Mul(spread)
	if !pNew.IsPositive() {
		// Zero implied probability only happens with zero seed and a
		// one-sided book; there is no finite quote for the empty side.
		return decimal.Zero
	}
	return TruncateOdds(one.Div(pNew))
}

// TruncateOdds discards fractional digits beyond the second. It is a floor
// for the non-negative odds domain, never a round, and is idempotent.
func TruncateOdds(x decimal.Decimal) decimal.Decimal {
	return x.Truncate(2)
}

// GuardRiskLimit rejects a stake larger than the market's seed liquidity
// scaled by the configured risk factor. The seed is what custody holds
// beyond the pooled stakes, so the limit tightens as nothing but bets come
// in and loosens when the market is topped up.
func GuardRiskLimit(st *ledger.State, stake decimal.Decimal) error {
	seed := st.Market.Balance.Sub(st.Bets.TotalPool())
	if seed.IsNegative() {
		seed = decimal.Zero
	}
	limit := seed.Mul(st.Config.MaxBetRiskFactor)
	if stake.GreaterThan(limit) {
		return apperrors.Newf(apperrors.ErrPricing,
			"stake %s exceeds the risk limit %s", stake.String(), limit.String())
	}
	return nil
}

// GuardMinOdds rejects a bet whose side is currently quoted below the
// caller's stated minimum.
func GuardMinOdds(st *ledger.State, outcome model.Outcome, minOdds decimal.Decimal) error {
	if !minOdds.IsPositive() {
		return nil
	}
	quoted := st.Market.OddsFor(outcome)
	if quoted.LessThan(minOdds) {
		return apperrors.Newf(apperrors.ErrPricing,
			"quoted odds %s below requested minimum %s", quoted.String(), minOdds.String())
	}
	return nil
}
