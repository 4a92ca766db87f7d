package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Cache stores resolved reports keyed by rounded coordinates.
type Cache interface {
	Get(ctx context.Context, key string) (Report, bool, error)
	Set(ctx context.Context, key string, report Report, ttl time.Duration) error
}

type cachedService struct {
	next   Service
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedService decorates next with a read-through cache. Cache failures
// are logged and never surface to callers.
func NewCachedService(next Service, cache Cache, ttl time.Duration, logger *slog.Logger) Service {
	return &cachedService{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "weather.cache"),
	}
}

func (s *cachedService) CurrentWeather(ctx context.Context, q Query) (Report, error) {
	if err := validateQuery(q); err != nil {
		return Report{}, err
	}
	label := strings.TrimSpace(q.Label)
	key := CacheKey(q)
	report, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("weather cache read failed", "key", key, "error", err)
	}
	if ok {
		return withLabel(report, label), nil
	}

	// Entries are shared across callers, so they only ever carry the default label.
	unlabelled := q
	unlabelled.Label = ""
	report, err = s.next.CurrentWeather(ctx, unlabelled)
	if err != nil {
		return Report{}, err
	}
	if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
		s.logger.Warn("weather cache write failed", "key", key, "error", err)
	}
	return withLabel(report, label), nil
}

func withLabel(report Report, label string) Report {
	if label != "" {
		report.LocationLabel = label
	}
	return report
}

// CacheKey buckets coordinates to two decimals, roughly one kilometre.
func CacheKey(q Query) string {
	return fmt.Sprintf("%.2f:%.2f", q.Latitude, q.Longitude)
}
