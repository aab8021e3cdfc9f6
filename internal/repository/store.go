// Package repository provides the persistence substrate for market state.
// Every implementation commits a whole market snapshot atomically: an
// operation either lands in full or not at all.
package repository

import (
	"context"

	"github.com/oddsmill/settler/internal/ledger"
)

// Store is the narrow persistence interface the engine talks to. Load hands
// back a private copy; nothing the engine does to it is visible until Commit.
type Store interface {
	// Create persists a brand new market. It fails if the id is taken.
	Create(ctx context.Context, st *ledger.State) error

	// Load returns the committed snapshot for a market id.
	Load(ctx context.Context, id string) (*ledger.State, error)

	// Commit atomically replaces the committed snapshot.
	Commit(ctx context.Context, st *ledger.State) error

	// List returns the committed snapshot of every known market.
	List(ctx context.Context) ([]*ledger.State, error)
}
