package insight

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

type stubPlants struct {
	plant plant.Plant
	err   error
}

func (s stubPlants) Get(context.Context, string, int64) (plant.Plant, error) {
	return s.plant, s.err
}

type stubTimeline struct {
	events []timeline.Event
}

func (s stubTimeline) List(context.Context, int64) ([]timeline.Event, error) {
	return s.events, nil
}

type stubWeather struct {
	report weather.Report
	err    error
	calls  int
}

func (s *stubWeather) CurrentWeather(context.Context, weather.Query) (weather.Report, error) {
	s.calls++
	return s.report, s.err
}

func newReportService(p stubPlants, w *stubWeather) Service {
	return NewService(p, stubTimeline{}, w, slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(func() time.Time { return now }))
}

func TestPlantReportIncludesWeatherWhenLocated(t *testing.T) {
	lat, lon := 40.4, -3.7
	p := plant.Plant{ID: 3, Location: plant.Location{Name: "Madrid", Latitude: &lat, Longitude: &lon}}
	w := &stubWeather{report: weather.Report{Current: weather.Snapshot{TemperatureC: 35}}}

	report, err := newReportService(stubPlants{plant: p}, w).PlantReport(context.Background(), "owner", 3)
	require.NoError(t, err)
	require.Equal(t, 1, w.calls)
	require.NotNil(t, report.Weather)
	require.Equal(t, "Intense heat", report.Insights[0].Title)
	require.Equal(t, "Sun protection", report.Recommendations[2].Title)
	require.Equal(t, now, report.GeneratedAt)
}

func TestPlantReportSkipsWeatherWithoutCoordinates(t *testing.T) {
	w := &stubWeather{}

	report, err := newReportService(stubPlants{plant: plant.Plant{ID: 1}}, w).PlantReport(context.Background(), "owner", 1)
	require.NoError(t, err)
	require.Zero(t, w.calls)
	require.Nil(t, report.Weather)
	require.Equal(t, "All clear", report.Insights[0].Title)
}

func TestPlantReportToleratesWeatherFailure(t *testing.T) {
	lat, lon := 1.0, 2.0
	p := plant.Plant{ID: 1, Location: plant.Location{Latitude: &lat, Longitude: &lon}}
	w := &stubWeather{err: apperrors.Wrap(apperrors.CodeWeatherUnavailable, "down", errors.New("boom"))}

	report, err := newReportService(stubPlants{plant: p}, w).PlantReport(context.Background(), "owner", 1)
	require.NoError(t, err)
	require.Nil(t, report.Weather)
	require.NotEmpty(t, report.Insights)
}

func TestPlantReportPropagatesNotFound(t *testing.T) {
	missing := apperrors.Wrap(apperrors.CodeNotFound, "plant not found", nil)

	_, err := newReportService(stubPlants{err: missing}, &stubWeather{}).PlantReport(context.Background(), "owner", 9)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestPlantReportUsesInjectedClock(t *testing.T) {
	p := plant.Plant{ID: 2, WateringFrequencyDays: intPtr(3)}
	events := stubTimeline{events: []timeline.Event{{ID: 1, Kind: timeline.KindWatering, CreatedAt: now.Add(-24 * time.Hour)}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fresh, err := NewService(stubPlants{plant: p}, events, &stubWeather{}, logger, WithClock(func() time.Time { return now })).
		PlantReport(context.Background(), "owner", 2)
	require.NoError(t, err)
	require.Equal(t, "All on track", fresh.TimelineInsights[0].Title)

	later := now.Add(5 * 24 * time.Hour)
	stale, err := NewService(stubPlants{plant: p}, events, &stubWeather{}, logger, WithClock(func() time.Time { return later })).
		PlantReport(context.Background(), "owner", 2)
	require.NoError(t, err)
	require.Equal(t, "Check soil moisture", stale.TimelineInsights[0].Title)
	require.Equal(t, later, stale.GeneratedAt)
}
