package engine

import (
	"context"
	"time"

	"github.com/oddsmill/settler/internal/events"
	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
	"github.com/oddsmill/settler/internal/pkg/logger"
	"github.com/oddsmill/settler/internal/pkg/metrics"
	"github.com/oddsmill/settler/internal/pricing"
)

// ScoreMarket closes an ACTIVE market on the administrator-supplied result
// and transfers the settlement fee to the treasury in the same invocation.
// The transition is irreversible.
func (e *Engine) ScoreMarket(ctx context.Context, caller, marketID string, result model.Result) (*ledger.State, []model.Transfer, error) {
	unlock := e.lockMarket(marketID)
	defer unlock()

	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireAdmin(st, caller); err != nil {
		metrics.Rejects.WithLabelValues("unauthorized").Inc()
		return nil, nil, err
	}
	if err := requireActive(st); err != nil {
		metrics.Rejects.WithLabelValues("lifecycle").Inc()
		return nil, nil, err
	}
	if !st.Market.ScoreableAt(e.now()) {
		metrics.Rejects.WithLabelValues("timing").Inc()
		return nil, nil, apperrors.New(apperrors.ErrTiming, "market is not yet scoreable", nil)
	}
	if !result.Valid() {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidRequest, "unknown result %q", result)
	}
	strategy := pricing.ForKind(st.Market.Strategy)
	if err := strategy.ValidateScore(st, result); err != nil {
		metrics.Rejects.WithLabelValues("settlement").Inc()
		return nil, nil, err
	}

	pool := st.Bets.TotalPool()
	fee := strategy.SettlementFee(st)
	if fee.GreaterThan(st.Market.Balance) {
		fee = st.Market.Balance
	}

	st.Market.Status = model.StatusClosed
	st.Market.Result = result
	st.Market.Balance = st.Market.Balance.Sub(fee)

	var transfers []model.Transfer
	if fee.IsPositive() {
		transfers = append(transfers, model.NewTransfer(
			st.Config.Treasury, st.Config.Denom, fee, "settlement fee "+marketID))
	}

	if err := e.store.Commit(ctx, st); err != nil {
		return nil, nil, err
	}
	e.execute(ctx, transfers)

	metrics.SettlementsTotal.WithLabelValues(string(st.Market.Strategy), "scored").Inc()
	e.pub.Publish(ctx, events.TopicMarketScored, marketID, events.MarketScored{
		MarketID: marketID,
		Result:   string(result),
		Pool:     pool.String(),
		Fee:      fee.String(),
		TsUnixMs: time.Now().UnixMilli(),
	})
	logger.Info("market scored",
		"market_id", marketID, "result", string(result),
		"pool", pool.String(), "fee", fee.String())
	return st, transfers, nil
}

// CancelMarket voids an ACTIVE market. Every bettor becomes entitled to a
// fee-free refund via the claim protocol.
func (e *Engine) CancelMarket(ctx context.Context, caller, marketID string) (*ledger.State, error) {
	unlock := e.lockMarket(marketID)
	defer unlock()

	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(st, caller); err != nil {
		metrics.Rejects.WithLabelValues("unauthorized").Inc()
		return nil, err
	}
	if err := requireActive(st); err != nil {
		metrics.Rejects.WithLabelValues("lifecycle").Inc()
		return nil, err
	}

	st.Market.Status = model.StatusCancelled
	if err := e.store.Commit(ctx, st); err != nil {
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues(string(st.Market.Strategy), "cancelled").Inc()
	e.pub.Publish(ctx, events.TopicMarketCancelled, marketID, events.MarketCancelled{
		MarketID: marketID,
		TsUnixMs: time.Now().UnixMilli(),
	})
	logger.Info("market cancelled", "market_id", marketID)
	return st, nil
}

// ClaimWinnings converts a settled or cancelled position into a single
// outgoing transfer, exactly once per receiver. A zero payout fails without
// writing the claim flag, so there is never a "successful" zero-value claim.
func (e *Engine) ClaimWinnings(ctx context.Context, caller, marketID, receiver string) (*ledger.State, *model.Transfer, error) {
	unlock := e.lockMarket(marketID)
	defer unlock()

	if receiver == "" {
		receiver = caller
	}
	if receiver == "" {
		return nil, nil, apperrors.NewInvalidRequest("receiver identity is required")
	}

	st, err := e.store.Load(ctx, marketID)
	if err != nil {
		return nil, nil, err
	}
	if st.Market.Status == model.StatusActive {
		metrics.ClaimsTotal.WithLabelValues("rejected").Inc()
		return nil, nil, apperrors.NewLifecycle("market is not settled")
	}
	if st.Claims.IsClaimed(receiver) {
		metrics.ClaimsTotal.WithLabelValues("duplicate").Inc()
		return nil, nil, apperrors.New(apperrors.ErrAlreadyClaimed, "winnings already claimed", nil)
	}

	payout := pricing.ForKind(st.Market.Strategy).Payout(st, receiver)
	if !payout.IsPositive() {
		metrics.ClaimsTotal.WithLabelValues("no_winnings").Inc()
		return nil, nil, apperrors.New(apperrors.ErrNoWinnings, "nothing to claim", nil)
	}
	// Custody can never go negative: a payout is capped at what the market
	// still holds.
	if payout.GreaterThan(st.Market.Balance) {
		payout = st.Market.Balance
	}
	if !payout.IsPositive() {
		metrics.ClaimsTotal.WithLabelValues("no_winnings").Inc()
		return nil, nil, apperrors.New(apperrors.ErrNoWinnings, "market funds exhausted", nil)
	}

	st.Claims.MarkClaimed(receiver)
	st.Market.Balance = st.Market.Balance.Sub(payout)
	transfer := model.NewTransfer(receiver, st.Config.Denom, payout, "winnings "+marketID)

	if err := e.store.Commit(ctx, st); err != nil {
		return nil, nil, err
	}
	e.execute(ctx, []model.Transfer{transfer})

	metrics.ClaimsTotal.WithLabelValues("paid").Inc()
	e.pub.Publish(ctx, events.TopicClaimPaid, marketID, events.ClaimPaid{
		MarketID:   marketID,
		Receiver:   receiver,
		TransferID: transfer.ID,
		Denom:      transfer.Denom,
		Amount:     transfer.Amount.String(),
		TsUnixMs:   time.Now().UnixMilli(),
	})
	return st, &transfer, nil
}

// execute hands transfer instructions to the bank. The state is already
// committed; a bank failure is logged and surfaced through the instruction
// stream, not rolled back.
func (e *Engine) execute(ctx context.Context, transfers []model.Transfer) {
	for _, t := range transfers {
		if err := e.bank.Pay(ctx, t); err != nil {
			logger.Error("transfer execution failed",
				"transfer_id", t.ID, "to", t.To, "amount", t.Amount.String(), "error", err)
		}
	}
}
