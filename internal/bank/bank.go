// Package bank is the value-transfer collaborator. The engine computes
// transfer instructions; a Bank executes them. The engine never moves funds
// itself.
package bank

import (
	"context"
	"sync"

	"github.com/oddsmill/settler/internal/model"
	"github.com/oddsmill/settler/internal/pkg/logger"
)

type Bank interface {
	Pay(ctx context.Context, t model.Transfer) error
}

// Recorder collects every instruction it is asked to pay. It is the default
// bank for single-node deployments and the one the tests inspect.
type Recorder struct {
	mu   sync.Mutex
	paid []model.Transfer
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Pay(ctx context.Context, t model.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, t)
	return nil
}

// Paid returns a copy of every transfer executed so far.
func (r *Recorder) Paid() []model.Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Transfer, len(r.paid))
	copy(out, r.paid)
	return out
}

// PaidTo sums the amounts paid to one account.
func (r *Recorder) PaidTo(account string) []model.Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transfer
	for _, t := range r.paid {
		if t.To == account {
			out = append(out, t)
		}
	}
	return out
}

// LogBank only logs instructions. Useful when the real settlement rail is
// driven off the event stream instead.
type LogBank struct{}

func (LogBank) Pay(ctx context.Context, t model.Transfer) error {
	logger.Info("transfer instruction",
		"transfer_id", t.ID, "to", t.To, "denom", t.Denom,
		"amount", t.Amount.String(), "memo", t.Memo)
	return nil
}
