// Package events publishes settlement lifecycle events to kafka so
// downstream consumers (risk, reporting, notification) can follow the book
// without querying the engine.
package events

type BetPlaced struct {
	MarketID string `json:"market_id"`
	Payer    string `json:"payer"`
	Receiver string `json:"receiver"`
	Outcome  string `json:"outcome"`
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type MarketScored struct {
	MarketID string `json:"market_id"`
	Result   string `json:"result"`
	Pool     string `json:"pool"`
	Fee      string `json:"fee"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type MarketCancelled struct {
	MarketID string `json:"market_id"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

type ClaimPaid struct {
	MarketID   string `json:"market_id"`
	Receiver   string `json:"receiver"`
	TransferID string `json:"transfer_id"`
	Denom      string `json:"denom"`
	Amount     string `json:"amount"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
