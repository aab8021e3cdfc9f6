package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsmill/settler/internal/bank"
	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/repository"
)

const (
	admin    = "admin"
	treasury = "treasury"
	denom    = "uusd"

	startTime  = int64(100_000)
	wellBefore = startTime - 3600 // comfortably inside the betting window
	scoreTime  = startTime + model.ScoreDelaySeconds
)

type fixture struct {
	eng  *Engine
	bank *bank.Recorder
	now  int64
}

func newFixture() *fixture {
	f := &fixture{bank: bank.NewRecorder(), now: wellBefore}
	f.eng = New(repository.NewMemoryStore(), f.bank, nil, func() int64 { return f.now })
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func coins(amount int64) []model.Coin {
	return []model.Coin{{Denom: denom, Amount: decimal.NewFromInt(amount)}}
}

func parimutuelParams(drawable bool, feeBps int64) CreateMarketParams {
	return CreateMarketParams{
		Config: model.MarketConfig{
			Admin:    admin,
			Treasury: treasury,
			FeeBps:   feeBps,
			Denom:    denom,
		},
		ID:        "m-1",
		Label:     "lions vs tigers",
		HomeTeam:  "lions",
		AwayTeam:  "tigers",
		StartTime: startTime,
		Drawable:  drawable,
		Strategy:  model.StrategyParimutuel,
	}
}

func fixedOddsParams(seed int64) CreateMarketParams {
	return CreateMarketParams{
		Config: model.MarketConfig{
			Admin:            admin,
			Treasury:         treasury,
			FeeBps:           0,
			Denom:            denom,
			FeeSpreadBps:     0,
			MaxBetRiskFactor: dec("5"),
			SeedAmplifier:    dec("2"),
		},
		ID:        "m-fo",
		Label:     "lions vs tigers",
		StartTime: startTime,
		Strategy:  model.StrategyFixedOdds,
		OddsHome:  dec("2"),
		OddsAway:  dec("2"),
		Funds:     coins(seed),
	}
}

func (f *fixture) mustCreate(t *testing.T, p CreateMarketParams) *ledger.State {
	t.Helper()
	st, err := f.eng.CreateMarket(context.Background(), admin, p)
	require.NoError(t, err)
	return st
}

func (f *fixture) mustBet(t *testing.T, marketID, account string, outcome model.Outcome, amount int64) {
	t.Helper()
	_, err := f.eng.PlaceBet(context.Background(), account, marketID, PlaceBetParams{
		Outcome: outcome,
		Funds:   coins(amount),
	})
	require.NoError(t, err)
}

func TestCreateMarketRequiresAdminCaller(t *testing.T) {
	f := newFixture()
	_, err := f.eng.CreateMarket(context.Background(), "mallory", parimutuelParams(false, 250))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestCreateMarketValidatesConfig(t *testing.T) {
	f := newFixture()

	p := parimutuelParams(false, 1001) // above the 1000 bps cap
	_, err := f.eng.CreateMarket(context.Background(), admin, p)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	fo := fixedOddsParams(1000)
	fo.OddsHome = dec("0.99")
	_, err = f.eng.CreateMarket(context.Background(), admin, fo)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	fo = fixedOddsParams(1000)
	fo.Config.SeedAmplifier = dec("11")
	_, err = f.eng.CreateMarket(context.Background(), admin, fo)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))
}

func TestPlaceBetCutoffBoundary(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))

	// Exactly start - 300 is still accepted.
	f.now = startTime - model.BetCutoffSeconds
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 100)

	// One second later it is not.
	f.now = startTime - model.BetCutoffSeconds + 1
	_, err := f.eng.PlaceBet(context.Background(), "bob", "m-1", PlaceBetParams{
		Outcome: model.OutcomeAway,
		Funds:   coins(100),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTiming))
}

func TestPlaceBetPaymentShape(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	ctx := context.Background()

	cases := []struct {
		name  string
		funds []model.Coin
	}{
		{"no payment", nil},
		{"two coins", []model.Coin{
			{Denom: denom, Amount: decimal.NewFromInt(50)},
			{Denom: denom, Amount: decimal.NewFromInt(50)},
		}},
		{"wrong denom", []model.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(100)}}},
		{"zero amount", []model.Coin{{Denom: denom, Amount: decimal.Zero}}},
		{"negative amount", []model.Coin{{Denom: denom, Amount: decimal.NewFromInt(-5)}}},
		{"fractional amount", []model.Coin{{Denom: denom, Amount: dec("10.5")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.eng.PlaceBet(ctx, "alice", "m-1", PlaceBetParams{
				Outcome: model.OutcomeHome,
				Funds:   tc.funds,
			})
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrPayment), "got %v", err)
		})
	}
}

func TestPlaceBetDrawOnlyWhenDrawable(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))

	_, err := f.eng.PlaceBet(context.Background(), "alice", "m-1", PlaceBetParams{
		Outcome: model.OutcomeDraw,
		Funds:   coins(100),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLifecycle))

	f2 := newFixture()
	f2.mustCreate(t, parimutuelParams(true, 250))
	f2.mustBet(t, "m-1", "alice", model.OutcomeDraw, 100)
}

func TestPlaceBetReceiverOwnsTheClaim(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 0))

	// alice pays, carol owns the position.
	_, err := f.eng.PlaceBet(context.Background(), "alice", "m-1", PlaceBetParams{
		Outcome:  model.OutcomeHome,
		Receiver: "carol",
		Funds:    coins(1000),
	})
	require.NoError(t, err)
	f.mustBet(t, "m-1", "bob", model.OutcomeAway, 1000)

	f.now = scoreTime
	_, _, err = f.eng.ScoreMarket(context.Background(), admin, "m-1", model.OutcomeHome)
	require.NoError(t, err)

	_, _, err = f.eng.ClaimWinnings(context.Background(), "alice", "m-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoWinnings))

	_, transfer, err := f.eng.ClaimWinnings(context.Background(), "carol", "m-1", "")
	require.NoError(t, err)
	assert.Equal(t, "carol", transfer.To)
	assert.True(t, transfer.Amount.Equal(decimal.NewFromInt(2000)))
}

func TestScoreMarketBoundaryAndAuthorization(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 1000)
	f.mustBet(t, "m-1", "bob", model.OutcomeAway, 1000)
	ctx := context.Background()

	f.now = scoreTime - 1 // start + 1799
	_, _, err := f.eng.ScoreMarket(ctx, admin, "m-1", model.OutcomeHome)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTiming))

	f.now = scoreTime
	_, _, err = f.eng.ScoreMarket(ctx, "mallory", "m-1", model.OutcomeHome)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	st, transfers, err := f.eng.ScoreMarket(ctx, admin, "m-1", model.OutcomeHome)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, st.Market.Status)
	assert.Equal(t, model.OutcomeHome, st.Market.Result)

	// 250 bps of the 2000 pool goes to the treasury.
	require.Len(t, transfers, 1)
	assert.Equal(t, treasury, transfers[0].To)
	assert.True(t, transfers[0].Amount.Equal(decimal.NewFromInt(50)))
	require.Len(t, f.bank.PaidTo(treasury), 1)

	// Terminal: a second score attempt fails.
	_, _, err = f.eng.ScoreMarket(ctx, admin, "m-1", model.OutcomeAway)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLifecycle))
}

func TestSettlementScenarioEndToEnd(t *testing.T) {
	// Fee 250 bps, alice 1000 on AWAY, bob 1000 on DRAW, scored AWAY.
	// Alice nets +950, bob has no winnings.
	f := newFixture()
	f.mustCreate(t, parimutuelParams(true, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeAway, 1000)
	f.mustBet(t, "m-1", "bob", model.OutcomeDraw, 1000)
	ctx := context.Background()

	f.now = scoreTime
	_, transfers, err := f.eng.ScoreMarket(ctx, admin, "m-1", model.OutcomeAway)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.True(t, transfers[0].Amount.Equal(decimal.NewFromInt(50)))

	_, transfer, err := f.eng.ClaimWinnings(ctx, "alice", "m-1", "")
	require.NoError(t, err)
	assert.True(t, transfer.Amount.Equal(decimal.NewFromInt(1950)), "payout = %s", transfer.Amount)

	_, _, err = f.eng.ClaimWinnings(ctx, "bob", "m-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoWinnings))

	// Custody is fully drained: 2000 in, 50 fee out, 1950 winnings out.
	st, err := f.eng.GetMarket(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, st.Market.Balance.IsZero(), "balance = %s", st.Market.Balance)
}

func TestClaimIsIdempotentlyRejected(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 1000)
	f.mustBet(t, "m-1", "bob", model.OutcomeAway, 1000)
	ctx := context.Background()

	f.now = scoreTime
	_, _, err := f.eng.ScoreMarket(ctx, admin, "m-1", model.OutcomeHome)
	require.NoError(t, err)

	_, first, err := f.eng.ClaimWinnings(ctx, "alice", "m-1", "")
	require.NoError(t, err)

	_, _, err = f.eng.ClaimWinnings(ctx, "alice", "m-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyClaimed))

	// Exactly one transfer ever went out to alice.
	paid := f.bank.PaidTo("alice")
	require.Len(t, paid, 1)
	assert.Equal(t, first.ID, paid[0].ID)
}

func TestClaimFailsWhileActive(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 1000)

	_, _, err := f.eng.ClaimWinnings(context.Background(), "alice", "m-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLifecycle))
}

func TestCancelMarketRefundsViaClaims(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(true, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 300)
	f.mustBet(t, "m-1", "alice", model.OutcomeDraw, 200)
	f.mustBet(t, "m-1", "bob", model.OutcomeAway, 999)
	ctx := context.Background()

	_, err := f.eng.CancelMarket(ctx, "mallory", "m-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	st, err := f.eng.CancelMarket(ctx, admin, "m-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, st.Market.Status)

	// Fee-free full refunds across outcomes.
	_, ta, err := f.eng.ClaimWinnings(ctx, "alice", "m-1", "")
	require.NoError(t, err)
	assert.True(t, ta.Amount.Equal(decimal.NewFromInt(500)))

	_, tb, err := f.eng.ClaimWinnings(ctx, "bob", "m-1", "")
	require.NoError(t, err)
	assert.True(t, tb.Amount.Equal(decimal.NewFromInt(999)))

	st, err = f.eng.GetMarket(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, st.Market.Balance.IsZero())
}

func TestUpdateMarketPartialFields(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	ctx := context.Background()

	newFee := int64(500)
	st, err := f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{FeeBps: &newFee})
	require.NoError(t, err)
	assert.Equal(t, int64(500), st.Config.FeeBps)
	assert.Equal(t, treasury, st.Config.Treasury) // untouched

	badFee := int64(2000)
	_, err = f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{FeeBps: &badFee})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	_, err = f.eng.UpdateMarket(ctx, "mallory", "m-1", UpdateMarketParams{FeeBps: &newFee})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// Admin handover: the old admin loses update rights.
	newAdmin := "admin2"
	_, err = f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{Admin: &newAdmin})
	require.NoError(t, err)
	_, err = f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{FeeBps: &newFee})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// Terminal markets reject updates.
	f2 := newFixture()
	f2.mustCreate(t, parimutuelParams(false, 250))
	_, err = f2.eng.CancelMarket(ctx, admin, "m-1")
	require.NoError(t, err)
	_, err = f2.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{FeeBps: &newFee})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLifecycle))
}

func TestFixedOddsLifecycle(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, fixedOddsParams(10_000))
	ctx := context.Background()

	// DRAW is never available on a fixed-odds market.
	_, err := f.eng.PlaceBet(ctx, "alice", "m-fo", PlaceBetParams{
		Outcome: model.OutcomeDraw,
		Funds:   coins(100),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrLifecycle))

	// Min-odds guard against the quoted 2.00.
	_, err = f.eng.PlaceBet(ctx, "alice", "m-fo", PlaceBetParams{
		Outcome: model.OutcomeHome,
		MinOdds: dec("2.01"),
		Funds:   coins(1000),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	_, err = f.eng.PlaceBet(ctx, "alice", "m-fo", PlaceBetParams{
		Outcome: model.OutcomeHome,
		MinOdds: dec("2"),
		Funds:   coins(1000),
	})
	require.NoError(t, err)

	f.now = scoreTime
	st, _, err := f.eng.ScoreMarket(ctx, admin, "m-fo", model.OutcomeHome)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, st.Market.Status)

	// floor(1000 * 2.00) = 2000 against 11000 in custody.
	_, transfer, err := f.eng.ClaimWinnings(ctx, "alice", "m-fo", "")
	require.NoError(t, err)
	assert.True(t, transfer.Amount.Equal(decimal.NewFromInt(2000)))

	st, err = f.eng.GetMarket(ctx, "m-fo")
	require.NoError(t, err)
	assert.True(t, st.Market.Balance.Equal(decimal.NewFromInt(9000)))
}

func TestFixedOddsRiskLimitCapsStake(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, fixedOddsParams(1000)) // risk factor 5 -> stakes up to 5000
	ctx := context.Background()

	_, err := f.eng.PlaceBet(ctx, "alice", "m-fo", PlaceBetParams{
		Outcome: model.OutcomeHome,
		Funds:   coins(5001),
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	// Nothing about the rejected bet stuck.
	st, err := f.eng.GetMarket(ctx, "m-fo")
	require.NoError(t, err)
	assert.True(t, st.Bets.TotalPool().IsZero())
	assert.True(t, st.Market.Balance.Equal(decimal.NewFromInt(1000)))

	f.mustBet(t, "m-fo", "alice", model.OutcomeHome, 5000)
}

func TestUpdateMarketBoundsInertTuning(t *testing.T) {
	// Tuning fields that only fixed-odds pricing reads must still land in
	// range when supplied on a parimutuel market.
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	ctx := context.Background()

	bigAmp := dec("11")
	_, err := f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{SeedAmplifier: &bigAmp})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	badSpread := int64(2501)
	_, err = f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{FeeSpreadBps: &badSpread})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPricing))

	okFactor := dec("3")
	st, err := f.eng.UpdateMarket(ctx, admin, "m-1", UpdateMarketParams{MaxBetRiskFactor: &okFactor})
	require.NoError(t, err)
	assert.True(t, st.Config.MaxBetRiskFactor.Equal(okFactor))
}

func TestFixedOddsQuoteDoesNotPersist(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, fixedOddsParams(1000))
	ctx := context.Background()

	f.mustBet(t, "m-fo", "alice", model.OutcomeHome, 1000)

	// Live repricing is off, so stored odds stay at creation values...
	st, err := f.eng.GetMarket(ctx, "m-fo")
	require.NoError(t, err)
	assert.True(t, st.Market.OddsHome.Equal(dec("2")))

	// ...while the on-demand quote reflects the imbalance.
	home, away, err := f.eng.QuoteOdds(ctx, "m-fo")
	require.NoError(t, err)
	assert.True(t, home.Equal(dec("1.5")), "home = %s", home)
	assert.True(t, away.Equal(dec("2.99")), "away = %s", away)

	// And asking a parimutuel market for a quote is an error.
	f.mustCreate(t, parimutuelParams(false, 250))
	_, _, err = f.eng.QuoteOdds(ctx, "m-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))
}

func TestEstimatePayoutIsPure(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeAway, 1000)
	f.mustBet(t, "m-1", "bob", model.OutcomeHome, 1000)
	ctx := context.Background()

	est, err := f.eng.EstimatePayout(ctx, "m-1", "alice", model.OutcomeAway)
	require.NoError(t, err)
	assert.True(t, est.Equal(decimal.NewFromInt(1950)), "estimate = %s", est)

	est, err = f.eng.EstimatePayout(ctx, "m-1", "alice", model.OutcomeHome)
	require.NoError(t, err)
	assert.True(t, est.IsZero())

	// The simulation never leaks into committed state.
	st, err := f.eng.GetMarket(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, st.Market.Status)
	assert.Empty(t, string(st.Market.Result))
}

func TestFailedOperationLeavesNoPartialState(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, parimutuelParams(false, 250))
	f.mustBet(t, "m-1", "alice", model.OutcomeHome, 1000)
	ctx := context.Background()

	// Rejected for payment shape after the market was loaded; nothing about
	// the pool may have moved.
	_, err := f.eng.PlaceBet(ctx, "bob", "m-1", PlaceBetParams{
		Outcome: model.OutcomeAway,
		Funds:   []model.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(100)}},
	})
	require.Error(t, err)

	st, err := f.eng.GetMarket(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, st.Bets.TotalPool().Equal(decimal.NewFromInt(1000)))
	assert.True(t, st.Bets.TotalOf(model.OutcomeAway).IsZero())
	assert.True(t, st.Market.Balance.Equal(decimal.NewFromInt(1000)))
}
