package usecase

import (
	"sync"
	"sync/atomic"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

// SnapshotStore holds the current analysis snapshot behind a single atomic
// reference. Readers never take a lock: they either see the previous
// snapshot or the new one as a whole, never a mix. Writers (the two update
// cycles) serialize through the mutex, and the store arbitrates publish
// ordering between them.
type SnapshotStore struct {
	mu      sync.Mutex // serializes writers only
	current atomic.Pointer[domain.Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Read returns the current snapshot, or false before the first successful
// publish.
func (s *SnapshotStore) Read() (*domain.Snapshot, bool) {
	snap := s.current.Load()
	if snap == nil {
		return nil, false
	}
	return snap, true
}

// PublishFull atomically replaces the snapshot with the result of a full
// cycle. A publish whose cycle started before the currently-published full
// cycle is rejected, so a slow stale cycle can never overwrite a fresher
// one.
func (s *SnapshotStore) PublishFull(snap *domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current.Load(); cur != nil && snap.FullStartedAt.Before(cur.FullStartedAt) {
		return false
	}
	s.current.Store(snap)
	return true
}

// PublishBasic builds a successor snapshot from the current one (or an
// empty one before the first full cycle), lets the caller overlay the
// cheap-field refresh onto it, and swaps it in. The overlay must replace
// coin records wholesale; the snapshot it receives is private until the
// swap, the one it derives from is never touched.
func (s *SnapshotStore) PublishBasic(apply func(next *domain.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *domain.Snapshot
	if cur := s.current.Load(); cur != nil {
		next = cur.Clone()
	} else {
		next = &domain.Snapshot{
			Coins:   make(map[string]*domain.CoinAnalysis),
			Tickers: make(map[string]domain.MarketTick),
		}
	}
	apply(next)
	s.current.Store(next)
}
