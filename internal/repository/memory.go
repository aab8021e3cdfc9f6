package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

// MemoryStore keeps market snapshots in process memory. It is the default
// substrate for tests and single-node deployments. Copy-on-load gives the
// same all-or-nothing semantics as the transactional stores: an operation
// that fails mid-way simply drops its private copy.
type MemoryStore struct {
	mu      sync.RWMutex
	markets map[string]*ledger.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markets: make(map[string]*ledger.State)}
}

func (s *MemoryStore) Create(ctx context.Context, st *ledger.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[st.Market.ID]; ok {
		return apperrors.Newf(apperrors.ErrInvalidRequest, "market %s already exists", st.Market.ID)
	}
	s.markets[st.Market.ID] = st.Clone()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*ledger.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.markets[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "market %s not found", id)
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Commit(ctx context.Context, st *ledger.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markets[st.Market.ID]; !ok {
		return apperrors.Newf(apperrors.ErrNotFound, "market %s not found", st.Market.ID)
	}
	s.markets[st.Market.ID] = st.Clone()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*ledger.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.markets))
	for id := range s.markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*ledger.State, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.markets[id].Clone())
	}
	return out, nil
}
