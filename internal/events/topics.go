package events

const (
	TopicBetPlaced       = "bet_placed"
	TopicMarketScored    = "market_scored"
	TopicMarketCancelled = "market_cancelled"
	TopicClaimPaid       = "claim_paid"
)
