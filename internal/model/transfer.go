package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coin is a single fungible amount in one denomination.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

// Transfer is an outgoing value-transfer instruction. The engine only emits
// these; the bank collaborator executes them.
type Transfer struct {
	ID     string          `json:"id"`
	To     string          `json:"to"`
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo,omitempty"`
}

func NewTransfer(to, denom string, amount decimal.Decimal, memo string) Transfer {
	return Transfer{
		ID:     uuid.NewString(),
		To:     to,
		Denom:  denom,
		Amount: amount,
		Memo:   memo,
	}
}
