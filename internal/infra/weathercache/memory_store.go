package weathercache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/plant-care/internal/domain/weather"
)

type entry struct {
	report    weather.Report
	expiresAt time.Time
}

// MemoryStore is an in-memory weather cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements weather.Cache.
func (s *MemoryStore) Get(_ context.Context, key string) (weather.Report, bool, error) {
	s.mu.RLock()
	item, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return weather.Report{}, false, nil
	}
	if s.hasExpired(item.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return weather.Report{}, false, nil
	}
	report := item.report
	report.Daily = append([]weather.DailyForecast(nil), item.report.Daily...)
	return report, true, nil
}

// Set stores the report with an optional TTL.
func (s *MemoryStore) Set(_ context.Context, key string, report weather.Report, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	report.Daily = append([]weather.DailyForecast(nil), report.Daily...)
	s.entries[key] = entry{report: report, expiresAt: exp}
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ weather.Cache = (*MemoryStore)(nil)
