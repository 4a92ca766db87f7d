package zonestore

import (
	"context"
	"sync"

	"github.com/yanqian/plant-care/internal/domain/zone"
)

// MemoryStore keeps the zone catalog in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	zones []zone.Zone
	saved bool
}

// NewMemoryStore constructs an empty catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements zone.Store.
func (s *MemoryStore) Load(_ context.Context) ([]zone.Zone, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, false, nil
	}
	return append([]zone.Zone(nil), s.zones...), true, nil
}

// Save implements zone.Store.
func (s *MemoryStore) Save(_ context.Context, zones []zone.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append([]zone.Zone(nil), zones...)
	s.saved = true
	return nil
}

var _ zone.Store = (*MemoryStore)(nil)
