package ledger

// ClaimLedger records which accounts have already been paid out. A flag is
// written exactly once, at the moment of a successful claim; its presence
// makes any later claim for the same account fail deterministically.
type ClaimLedger struct {
	Claimed map[string]bool `json:"claimed"`
}

func NewClaimLedger() *ClaimLedger {
	return &ClaimLedger{Claimed: make(map[string]bool)}
}

func (l *ClaimLedger) IsClaimed(account string) bool {
	return l.Claimed[account]
}

// MarkClaimed sets the flag. It reports false if the flag was already set.
func (l *ClaimLedger) MarkClaimed(account string) bool {
	if l.Claimed[account] {
		return false
	}
	l.Claimed[account] = true
	return true
}

func (l *ClaimLedger) Clone() *ClaimLedger {
	c := NewClaimLedger()
	for a, v := range l.Claimed {
		c.Claimed[a] = v
	}
	return c
}
