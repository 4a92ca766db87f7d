package openmeteo

import (
	"context"
	"math"

	"github.com/sony/gobreaker"

	"github.com/yanqian/plant-care/internal/domain/weather"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
	"github.com/yanqian/plant-care/pkg/util"
)

const (
	basicHourly       = "relative_humidity_2m,pressure_msl,dew_point_2m,cloud_cover,precipitation,apparent_temperature"
	basicSource       = "open-meteo-basic"
	basicHourlySource = "open-meteo-hourly"
)

// BasicStrategy is the fallback tier built on the legacy current_weather
// block, enriched from the hourly series returned by the same request.
type BasicStrategy struct {
	client  *Client
	circuit *gobreaker.CircuitBreaker
}

// NewBasicStrategy builds the fallback tier.
func NewBasicStrategy(client *Client, cfg BreakerConfig) *BasicStrategy {
	return &BasicStrategy{
		client:  client,
		circuit: newBreaker("openmeteo-basic", cfg),
	}
}

func (s *BasicStrategy) Name() string {
	return "openmeteo-basic"
}

func (s *BasicStrategy) Fetch(ctx context.Context, q weather.Query) ([]weather.Partial, error) {
	params := baseParams(q.Latitude, q.Longitude)
	params.Set("current_weather", "true")
	params.Set("hourly", basicHourly)

	payload, err := execute(s.circuit, func() (basicResponse, error) {
		var out basicResponse
		if err := s.client.forecast(ctx, params, &out); err != nil {
			return basicResponse{}, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return normalizeBasic(payload)
}

type basicResponse struct {
	UTCOffsetSeconds int                `json:"utc_offset_seconds"`
	CurrentWeather   *basicCurrentBlock `json:"current_weather"`
	Hourly           *basicHourlyBlock  `json:"hourly"`
}

type basicCurrentBlock struct {
	Time        string   `json:"time"`
	Temperature *float64 `json:"temperature"`
	WindSpeed   *float64 `json:"windspeed"`
	WeatherCode *float64 `json:"weathercode"`
}

type basicHourlyBlock struct {
	Time                []string   `json:"time"`
	RelativeHumidity    []*float64 `json:"relative_humidity_2m"`
	PressureMSL         []*float64 `json:"pressure_msl"`
	DewPoint            []*float64 `json:"dew_point_2m"`
	CloudCover          []*float64 `json:"cloud_cover"`
	Precipitation       []*float64 `json:"precipitation"`
	ApparentTemperature []*float64 `json:"apparent_temperature"`
}

func normalizeBasic(payload basicResponse) ([]weather.Partial, error) {
	current := payload.CurrentWeather
	if current == nil || current.Temperature == nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamParse, "forecast response has no current_weather block", nil)
	}

	primary := weather.Partial{
		Source: basicSource,
		Fields: weather.FieldTemperature | weather.FieldConditions,
	}
	primary.Snapshot.TemperatureC = util.Round(*current.Temperature, 1)
	if current.WeatherCode != nil {
		primary.Snapshot.WeatherCode = int(*current.WeatherCode)
	}
	primary.Snapshot.Conditions = weather.ConditionLabel(primary.Snapshot.WeatherCode)
	if current.WindSpeed != nil {
		primary.Snapshot.WindSpeedKph = util.Round(*current.WindSpeed, 1)
		primary.Fields |= weather.FieldWind
	}
	if ts := parseLocal(current.Time, payload.UTCOffsetSeconds); !ts.IsZero() {
		primary.Snapshot.RetrievedAt = ts.UTC()
		primary.Fields |= weather.FieldRetrievedAt
	}

	partials := []weather.Partial{primary}
	if enrichment, ok := hourlyEnrichment(payload.Hourly, current.Time); ok {
		partials = append(partials, enrichment)
	}
	return partials, nil
}

// hourlyEnrichment samples the hourly series at the entry matching the
// current_weather timestamp, or the last entry when none matches.
func hourlyEnrichment(block *basicHourlyBlock, at string) (weather.Partial, bool) {
	if block == nil || len(block.Time) == 0 {
		return weather.Partial{}, false
	}
	idx := len(block.Time) - 1
	for i, ts := range block.Time {
		if ts == at {
			idx = i
			break
		}
	}

	out := weather.Partial{Source: basicHourlySource}
	if v, ok := floatAt(block.RelativeHumidity, idx); ok {
		out.Snapshot.Humidity = int(math.Round(v))
		out.Fields |= weather.FieldHumidity
	}
	if v, ok := floatAt(block.PressureMSL, idx); ok {
		out.Snapshot.PressureHpa = util.Round(v, 0)
		out.Fields |= weather.FieldPressure
	}
	if v, ok := floatAt(block.DewPoint, idx); ok {
		out.Snapshot.DewPointC = util.Round(v, 1)
		out.Fields |= weather.FieldDewPoint
	}
	if v, ok := floatAt(block.CloudCover, idx); ok {
		out.Snapshot.CloudCoverPct = util.Round(v, 0)
		out.Fields |= weather.FieldCloudCover
	}
	if v, ok := floatAt(block.Precipitation, idx); ok {
		out.Snapshot.PrecipitationMm = util.Round(v, 1)
		out.Fields |= weather.FieldPrecipitation
	}
	if v, ok := floatAt(block.ApparentTemperature, idx); ok {
		out.Snapshot.FeelsLikeC = util.Round(v, 1)
		out.Fields |= weather.FieldFeelsLike
	}
	return out, out.Fields != 0
}

var _ weather.Strategy = (*BasicStrategy)(nil)
