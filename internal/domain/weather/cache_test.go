package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapCache struct {
	items   map[string]Report
	failSet bool
}

func (c *mapCache) Get(_ context.Context, key string) (Report, bool, error) {
	r, ok := c.items[key]
	return r, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, report Report, _ time.Duration) error {
	if c.failSet {
		return errors.New("cache down")
	}
	c.items[key] = report
	return nil
}

func TestCachedServiceServesRepeatsFromCache(t *testing.T) {
	strategy := &stubStrategy{name: "advanced", partials: []Partial{{Source: "s", Fields: FieldTemperature, Snapshot: Snapshot{TemperatureC: 12}}}}
	cache := &mapCache{items: map[string]Report{}}
	svc := NewCachedService(newTestService(strategy), cache, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	first, err := svc.CurrentWeather(ctx, Query{Latitude: 40.4168, Longitude: -3.7038, Label: "Home"})
	require.NoError(t, err)
	second, err := svc.CurrentWeather(ctx, Query{Latitude: 40.4171, Longitude: -3.7041, Label: "Office"})
	require.NoError(t, err)

	require.Equal(t, 1, strategy.calls)
	require.Equal(t, "Home", first.LocationLabel)
	require.Equal(t, "Office", second.LocationLabel)
	require.Equal(t, first.Current, second.Current)
	require.Contains(t, cache.items, "40.42:-3.70")
}

func TestCachedServiceIgnoresWriteFailures(t *testing.T) {
	strategy := &stubStrategy{name: "advanced", partials: []Partial{{Source: "s", Fields: FieldTemperature}}}
	cache := &mapCache{items: map[string]Report{}, failSet: true}
	svc := NewCachedService(newTestService(strategy), cache, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CurrentWeather(context.Background(), Query{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	_, err = svc.CurrentWeather(context.Background(), Query{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	require.Equal(t, 2, strategy.calls)
}

func TestCachedServiceDoesNotShareCallerLabels(t *testing.T) {
	strategy := &stubStrategy{name: "advanced", partials: []Partial{{Source: "s", Fields: FieldTemperature, Snapshot: Snapshot{TemperatureC: 18}}}}
	cache := &mapCache{items: map[string]Report{}}
	svc := NewCachedService(newTestService(strategy), cache, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	labelled, err := svc.CurrentWeather(ctx, Query{Latitude: 51.5, Longitude: -0.12, Label: "Alice's greenhouse"})
	require.NoError(t, err)
	require.Equal(t, "Alice's greenhouse", labelled.LocationLabel)
	require.Equal(t, "Current location", cache.items["51.50:-0.12"].LocationLabel)

	anonymous, err := svc.CurrentWeather(ctx, Query{Latitude: 51.5, Longitude: -0.12})
	require.NoError(t, err)
	require.Equal(t, "Current location", anonymous.LocationLabel)
	require.Equal(t, 1, strategy.calls)
}
