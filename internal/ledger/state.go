package ledger

import (
	"github.com/oddsmill/settler/internal/model"
)

// State is the full persisted snapshot of one market: configuration, market
// metadata, the bet ledger and the claim ledger. Operations receive a State,
// mutate it, and hand it back to the store, which commits it atomically.
// There is no ambient global state anywhere in the engine.
type State struct {
	Config model.MarketConfig `json:"config"`
	Market model.Market       `json:"market"`
	Bets   *BetLedger         `json:"bets"`
	Claims *ClaimLedger       `json:"claims"`
}

func NewState(cfg model.MarketConfig, market model.Market) *State {
	return &State{
		Config: cfg,
		Market: market,
		Bets:   NewBetLedger(),
		Claims: NewClaimLedger(),
	}
}

// Clone deep-copies the state. Stores hand out clones so a failed operation
// can be discarded without touching the committed snapshot.
func (s *State) Clone() *State {
	return &State{
		Config: s.Config,
		Market: s.Market,
		Bets:   s.Bets.Clone(),
		Claims: s.Claims.Clone(),
	}
}
