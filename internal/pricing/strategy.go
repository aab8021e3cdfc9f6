// Package pricing implements the two settlement strategies: parimutuel
// pooling and fixed-odds. Both are pure with respect to market state except
// for RecordBet, which writes the bet ledger. All division is exact floor
// division on arbitrary-precision decimals; nothing here ever rounds up.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
)

// Strategy is the capability set shared by the two pricing strategies. The
// concrete strategy is selected by the market's StrategyKind at creation and
// never changes.
type Strategy interface {
	Kind() model.StrategyKind

	// RecordBet credits the ledger with an accepted stake. For fixed-odds
	// markets with live repricing enabled it also refreshes the quoted odds.
	RecordBet(st *ledger.State, account string, outcome model.Outcome, amount decimal.Decimal)

	// ValidateScore checks the strategy-specific scoring preconditions for
	// the given result. It performs no mutation.
	ValidateScore(st *ledger.State, result model.Result) error

	// Payout computes the amount owed to account for the market's current
	// status and result. Zero means the account has nothing to claim.
	Payout(st *ledger.State, account string) decimal.Decimal

	// SettlementFee is the amount transferred to the treasury when the
	// market is scored.
	SettlementFee(st *ledger.State) decimal.Decimal

	// Reprice computes fresh quoted odds from the current pool imbalance.
	// It is pure: the caller decides whether the result is persisted.
	// ok is false for strategies that do not quote odds.
	Reprice(st *ledger.State) (home, away decimal.Decimal, ok bool)
}

// ForKind returns the strategy implementation for a kind. The set is closed;
// an unknown kind is a programming error caught at market creation.
func ForKind(kind model.StrategyKind) Strategy {
	if kind == model.StrategyFixedOdds {
		return FixedOdds{}
	}
	return Parimutuel{}
}

var (
	bpsDenominator = decimal.NewFromInt(10000)
	one            = decimal.NewFromInt(1)
)

// feeOf is floor(amount * bps / 10000).
func feeOf(amount decimal.Decimal, bps int64) decimal.Decimal {
	return floorDiv(amount.Mul(decimal.NewFromInt(bps)), bpsDenominator)
}

// floorDiv is exact integer division truncated toward zero. Both operands are
// non-negative everywhere in the engine, so truncation is a floor. The wide
// multiplication always happens before the division at call sites.
func floorDiv(num, den decimal.Decimal) decimal.Decimal {
	q, _ := num.QuoRem(den, 0)
	return q
}
