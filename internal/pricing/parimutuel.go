package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

// Parimutuel pools stakes per outcome; winners split the pool pro rata, net
// of the settlement fee. Pricing happens entirely at settlement time.
type Parimutuel struct{}

func (Parimutuel) Kind() model.StrategyKind { return model.StrategyParimutuel }

func (Parimutuel) RecordBet(st *ledger.State, account string, outcome model.Outcome, amount decimal.Decimal) {
	st.Bets.Credit(account, outcome, amount)
}

// ValidateScore requires genuine two-sided action: stake on the winning
// outcome and stake against it. A one-sided book never was a market.
func (Parimutuel) ValidateScore(st *ledger.State, result model.Result) error {
	if result == model.OutcomeDraw && !st.Market.Drawable {
		return apperrors.NewLifecycle("market is not drawable")
	}
	if !st.Bets.TotalOf(result).IsPositive() {
		return apperrors.New(apperrors.ErrNoWinnings, "no stake on the winning outcome", nil)
	}
	if !st.Bets.OpposingTotal(result).IsPositive() {
		return apperrors.New(apperrors.ErrNoWinnings, "no stake on any losing outcome", nil)
	}
	return nil
}

// Payout on a CLOSED market is floor(distributable * stake / winning_total)
// with the multiplication carried out before the division. On a CANCELLED
// market every account is refunded its full stake, fee-free.
func (Parimutuel) Payout(st *ledger.State, account string) decimal.Decimal {
	if st.Market.Status == model.StatusCancelled {
		return st.Bets.TotalStakeOf(account)
	}
	winner := st.Market.Result
	winningTotal := st.Bets.TotalOf(winner)
	if !winningTotal.IsPositive() {
		return decimal.Zero
	}
	stake := st.Bets.StakeOf(account, winner)
	if !stake.IsPositive() {
		return decimal.Zero
	}
	pool := st.Bets.TotalPool()
	distributable := pool.Sub(feeOf(pool, st.Config.FeeBps))
	return floorDiv(distributable.Mul(stake), winningTotal)
}

func (Parimutuel) SettlementFee(st *ledger.State) decimal.Decimal {
	return feeOf(st.Bets.TotalPool(), st.Config.FeeBps)
}

func (Parimutuel) Reprice(*ledger.State) (decimal.Decimal, decimal.Decimal, bool) {
	return decimal.Zero, decimal.Zero, false
}
