package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
)

// Report bundles everything the plant detail view shows next to the timeline.
type Report struct {
	PlantID          int64            `json:"plantId"`
	Insights         []Insight        `json:"insights"`
	TimelineInsights []Insight        `json:"timelineInsights"`
	Recommendations  []Recommendation `json:"recommendations"`
	Weather          *weather.Report  `json:"weather,omitempty"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// PlantReader loads a plant scoped to its owner.
type PlantReader interface {
	Get(ctx context.Context, ownerID string, id int64) (plant.Plant, error)
}

// TimelineReader lists a plant's events newest-first.
type TimelineReader interface {
	List(ctx context.Context, plantID int64) ([]timeline.Event, error)
}

// Service produces per-plant advisories.
type Service interface {
	PlantReport(ctx context.Context, ownerID string, plantID int64) (Report, error)
}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the time source used for report timestamps and staleness rules.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	plants   PlantReader
	timeline TimelineReader
	weather  weather.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the insight domain.
func NewService(plants PlantReader, events TimelineReader, weatherSvc weather.Service, logger *slog.Logger, opts ...Option) Service {
	svc := &service{
		plants:   plants,
		timeline: events,
		weather:  weatherSvc,
		logger:   logger.With("component", "insight.service"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) PlantReport(ctx context.Context, ownerID string, plantID int64) (Report, error) {
	p, err := s.plants.Get(ctx, ownerID, plantID)
	if err != nil {
		return Report{}, err
	}
	events, err := s.timeline.List(ctx, plantID)
	if err != nil {
		return Report{}, err
	}

	var (
		forecast *weather.Report
		current  *weather.Snapshot
	)
	if p.HasCoordinates() && s.weather != nil {
		report, err := s.weather.CurrentWeather(ctx, weather.Query{
			Latitude:  *p.Location.Latitude,
			Longitude: *p.Location.Longitude,
			Label:     p.Location.Name,
		})
		switch {
		case err == nil:
			forecast = &report
			current = &report.Current
		case ctx.Err() != nil:
			return Report{}, ctx.Err()
		default:
			s.logger.Warn("insight weather lookup failed", "plant_id", plantID, "error", err)
		}
	}

	now := s.now().UTC()
	return Report{
		PlantID:          plantID,
		Insights:         BuildInsights(p, current, events, now),
		TimelineInsights: TimelineInsights(p, events, now),
		Recommendations:  Recommendations(p, current),
		Weather:          forecast,
		GeneratedAt:      now,
	}, nil
}
