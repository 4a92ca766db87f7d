package weather

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

const unavailableMessage = "Weather data is unavailable right now. Please try again later."

// Service resolves normalized weather for a location.
type Service interface {
	CurrentWeather(ctx context.Context, q Query) (Report, error)
}

// Config holds the service level defaults.
type Config struct {
	DefaultLabel string
}

type service struct {
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the strategies in the order they should be attempted.
func NewService(cfg Config, strategies []Strategy, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultLabel) == "" {
		cfg.DefaultLabel = "Current location"
	}
	return &service{
		cfg:        cfg,
		strategies: strategies,
		logger:     logger.With("component", "weather.service"),
		now:        time.Now,
	}
}

func (s *service) CurrentWeather(ctx context.Context, q Query) (Report, error) {
	if err := validateQuery(q); err != nil {
		return Report{}, err
	}
	label := strings.TrimSpace(q.Label)
	if label == "" {
		label = s.cfg.DefaultLabel
	}

	var (
		failures []error
		fallback *Report
	)
	for _, strategy := range s.strategies {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		partials, err := strategy.Fetch(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Report{}, ctxErr
			}
			s.logger.Warn("weather strategy failed", "strategy", strategy.Name(), "code", apperrors.CodeOf(err), "error", err)
			failures = append(failures, err)
			continue
		}
		snapshot, daily, filled, source := Merge(partials)
		if !filled.Has(FieldTemperature) {
			s.logger.Warn("weather strategy returned no primary reading", "strategy", strategy.Name())
			failures = append(failures, apperrors.Wrap(apperrors.CodeUpstreamParse, strategy.Name()+" returned no temperature", nil))
			if fallback == nil && filled != 0 {
				report := s.buildReport(label, snapshot, daily, filled, source)
				fallback = &report
			}
			continue
		}
		s.logger.Info("weather resolved", "strategy", strategy.Name(), "source", source)
		return s.buildReport(label, snapshot, daily, filled, source), nil
	}
	if fallback != nil {
		// No tier produced a temperature; serve the first tier that produced anything.
		s.logger.Warn("weather resolved without temperature", "source", fallback.Source)
		return *fallback, nil
	}
	return Report{}, apperrors.Wrap(apperrors.CodeWeatherUnavailable, unavailableMessage, errors.Join(failures...))
}

func (s *service) buildReport(label string, snapshot Snapshot, daily []DailyForecast, filled Field, source string) Report {
	if !filled.Has(FieldFeelsLike) {
		snapshot.FeelsLikeC = snapshot.TemperatureC
	}
	if !filled.Has(FieldConditions) {
		snapshot.Conditions = ConditionLabel(snapshot.WeatherCode)
	}
	if snapshot.RetrievedAt.IsZero() {
		snapshot.RetrievedAt = s.now().UTC()
	}
	if daily == nil {
		daily = []DailyForecast{}
	}
	return Report{
		LocationLabel: label,
		Current:       snapshot,
		Daily:         daily,
		Source:        source,
	}
}

func validateQuery(q Query) error {
	if q.Latitude < -90 || q.Latitude > 90 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "latitude must be between -90 and 90", nil)
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "longitude must be between -180 and 180", nil)
	}
	return nil
}
