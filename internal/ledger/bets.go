// Package ledger holds the per-market settlement state: stake accounting per
// account and outcome, running totals per outcome, and the one-shot claim
// flags. All amounts are arbitrary-precision decimals, so 128-bit pool sizes
// never overflow.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oddsmill/settler/internal/model"
)

// BetLedger accumulates stakes. Entries are only ever incremented; the
// per-outcome totals are kept in lockstep with the entry map, so
// TotalOf(o) == sum of StakeOf(a, o) over all accounts holds at all times.
type BetLedger struct {
	Stakes map[string]map[model.Outcome]decimal.Decimal `json:"stakes"`
	Totals map[model.Outcome]decimal.Decimal            `json:"totals"`
}

func NewBetLedger() *BetLedger {
	return &BetLedger{
		Stakes: make(map[string]map[model.Outcome]decimal.Decimal),
		Totals: make(map[model.Outcome]decimal.Decimal),
	}
}

// Credit adds amount to the (account, outcome) entry and the outcome total.
func (l *BetLedger) Credit(account string, outcome model.Outcome, amount decimal.Decimal) {
	entry, ok := l.Stakes[account]
	if !ok {
		entry = make(map[model.Outcome]decimal.Decimal)
		l.Stakes[account] = entry
	}
	entry[outcome] = entry[outcome].Add(amount)
	l.Totals[outcome] = l.Totals[outcome].Add(amount)
}

// StakeOf returns the accumulated stake for one (account, outcome) pair.
func (l *BetLedger) StakeOf(account string, outcome model.Outcome) decimal.Decimal {
	return l.Stakes[account][outcome]
}

// StakesOf returns an account's stake per outcome, in outcome order.
func (l *BetLedger) StakesOf(account string) map[model.Outcome]decimal.Decimal {
	out := make(map[model.Outcome]decimal.Decimal, len(model.Outcomes))
	for _, o := range model.Outcomes {
		out[o] = l.Stakes[account][o]
	}
	return out
}

// TotalStakeOf returns the sum of an account's stakes across all outcomes.
func (l *BetLedger) TotalStakeOf(account string) decimal.Decimal {
	var sum decimal.Decimal
	for _, o := range model.Outcomes {
		sum = sum.Add(l.Stakes[account][o])
	}
	return sum
}

// TotalOf returns the running total staked on one outcome.
func (l *BetLedger) TotalOf(outcome model.Outcome) decimal.Decimal {
	return l.Totals[outcome]
}

// TotalPool returns the sum of all outcome totals.
func (l *BetLedger) TotalPool() decimal.Decimal {
	var sum decimal.Decimal
	for _, o := range model.Outcomes {
		sum = sum.Add(l.Totals[o])
	}
	return sum
}

// OpposingTotal returns the sum staked on every outcome except the given one.
func (l *BetLedger) OpposingTotal(outcome model.Outcome) decimal.Decimal {
	return l.TotalPool().Sub(l.Totals[outcome])
}

// Accounts returns every account with at least one entry, sorted.
func (l *BetLedger) Accounts() []string {
	accounts := make([]string, 0, len(l.Stakes))
	for a := range l.Stakes {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts
}

func (l *BetLedger) Clone() *BetLedger {
	c := NewBetLedger()
	for a, entry := range l.Stakes {
		ce := make(map[model.Outcome]decimal.Decimal, len(entry))
		for o, amt := range entry {
			ce[o] = amt
		}
		c.Stakes[a] = ce
	}
	for o, amt := range l.Totals {
		c.Totals[o] = amt
	}
	return c
}
