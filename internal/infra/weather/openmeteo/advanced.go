package openmeteo

import (
	"context"
	"math"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/yanqian/plant-care/internal/domain/weather"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
	"github.com/yanqian/plant-care/pkg/util"
)

const (
	advancedCurrent = "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,apparent_temperature,pressure_msl,dew_point_2m,precipitation,cloud_cover"
	advancedDaily   = "temperature_2m_max,temperature_2m_min,sunrise,sunset,uv_index_max,precipitation_probability_max,weather_code,moon_phase"
	advancedSource  = "open-meteo"
)

// AdvancedStrategy requests the full current and daily blocks in one call.
type AdvancedStrategy struct {
	client  *Client
	circuit *gobreaker.CircuitBreaker
}

// NewAdvancedStrategy builds the primary tier.
func NewAdvancedStrategy(client *Client, cfg BreakerConfig) *AdvancedStrategy {
	return &AdvancedStrategy{
		client:  client,
		circuit: newBreaker("openmeteo-advanced", cfg),
	}
}

func (s *AdvancedStrategy) Name() string {
	return "openmeteo-advanced"
}

func (s *AdvancedStrategy) Fetch(ctx context.Context, q weather.Query) ([]weather.Partial, error) {
	params := baseParams(q.Latitude, q.Longitude)
	params.Set("current", advancedCurrent)
	params.Set("daily", advancedDaily)
	params.Set("wind_speed_unit", "ms")

	payload, err := execute(s.circuit, func() (advancedResponse, error) {
		var out advancedResponse
		if err := s.client.forecast(ctx, params, &out); err != nil {
			return advancedResponse{}, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return normalizeAdvanced(payload)
}

type advancedResponse struct {
	UTCOffsetSeconds int                   `json:"utc_offset_seconds"`
	Current          *advancedCurrentBlock `json:"current"`
	Daily            *advancedDailyBlock   `json:"daily"`
}

type advancedCurrentBlock struct {
	Time                string   `json:"time"`
	Temperature         *float64 `json:"temperature_2m"`
	RelativeHumidity    *float64 `json:"relative_humidity_2m"`
	WeatherCode         *float64 `json:"weather_code"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	PressureMSL         *float64 `json:"pressure_msl"`
	DewPoint            *float64 `json:"dew_point_2m"`
	Precipitation       *float64 `json:"precipitation"`
	CloudCover          *float64 `json:"cloud_cover"`
}

type advancedDailyBlock struct {
	Time                        []string   `json:"time"`
	TemperatureMax              []*float64 `json:"temperature_2m_max"`
	TemperatureMin              []*float64 `json:"temperature_2m_min"`
	Sunrise                     []string   `json:"sunrise"`
	Sunset                      []string   `json:"sunset"`
	UVIndexMax                  []*float64 `json:"uv_index_max"`
	PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	WeatherCode                 []*float64 `json:"weather_code"`
	MoonPhase                   []*float64 `json:"moon_phase"`
}

func normalizeAdvanced(payload advancedResponse) ([]weather.Partial, error) {
	current := payload.Current
	if current == nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamParse, "forecast response has no current block", nil)
	}

	var (
		snap   weather.Snapshot
		fields weather.Field
	)
	if current.Temperature != nil {
		snap.TemperatureC = util.Round(*current.Temperature, 1)
		fields |= weather.FieldTemperature
	}
	if current.ApparentTemperature != nil {
		snap.FeelsLikeC = util.Round(*current.ApparentTemperature, 1)
		fields |= weather.FieldFeelsLike
	}
	if current.RelativeHumidity != nil {
		snap.Humidity = int(math.Round(*current.RelativeHumidity))
		fields |= weather.FieldHumidity
	}
	if current.WindSpeed != nil {
		snap.WindSpeedKph = util.Round(*current.WindSpeed*3.6, 1)
		fields |= weather.FieldWind
	}
	if current.PressureMSL != nil {
		snap.PressureHpa = util.Round(*current.PressureMSL, 0)
		fields |= weather.FieldPressure
	}
	if current.DewPoint != nil {
		snap.DewPointC = util.Round(*current.DewPoint, 1)
		fields |= weather.FieldDewPoint
	}
	if current.CloudCover != nil {
		snap.CloudCoverPct = util.Round(*current.CloudCover, 0)
		fields |= weather.FieldCloudCover
	}
	if current.Precipitation != nil {
		snap.PrecipitationMm = util.Round(*current.Precipitation, 1)
		fields |= weather.FieldPrecipitation
	}
	if ts := parseLocal(current.Time, payload.UTCOffsetSeconds); !ts.IsZero() {
		snap.RetrievedAt = ts.UTC()
		fields |= weather.FieldRetrievedAt
	}

	daily := normalizeDaily(payload.Daily, payload.UTCOffsetSeconds)
	fields |= weather.FieldDaily

	code, hasCode := 0, false
	if current.WeatherCode != nil {
		code, hasCode = int(*current.WeatherCode), true
	}
	if block := payload.Daily; block != nil && len(block.Time) > 0 {
		snap.Sunrise = parseLocal(stringAt(block.Sunrise, 0), payload.UTCOffsetSeconds)
		snap.Sunset = parseLocal(stringAt(block.Sunset, 0), payload.UTCOffsetSeconds)
		fields |= weather.FieldSunTimes
		if uv, ok := floatAt(block.UVIndexMax, 0); ok {
			snap.UVIndex = util.Round(uv, 1)
			fields |= weather.FieldUV
		}
		if phase, ok := floatAt(block.MoonPhase, 0); ok {
			snap.MoonPhase = phase
			fields |= weather.FieldMoonPhase
		}
		if !hasCode {
			if dailyCode, ok := floatAt(block.WeatherCode, 0); ok {
				code, hasCode = int(dailyCode), true
			}
		}
	}
	snap.WeatherCode = code
	snap.Conditions = weather.ConditionLabel(code)
	fields |= weather.FieldConditions

	return []weather.Partial{{
		Source:   advancedSource,
		Fields:   fields,
		Snapshot: snap,
		Daily:    daily,
	}}, nil
}

func normalizeDaily(block *advancedDailyBlock, offset int) []weather.DailyForecast {
	if block == nil {
		return []weather.DailyForecast{}
	}
	out := make([]weather.DailyForecast, 0, len(block.Time))
	for i, day := range block.Time {
		if strings.TrimSpace(day) == "" {
			continue
		}
		entry := weather.DailyForecast{Date: parseLocal(day, offset)}
		if v, ok := floatAt(block.TemperatureMin, i); ok {
			entry.MinTempC = util.Round(v, 1)
		}
		if v, ok := floatAt(block.TemperatureMax, i); ok {
			entry.MaxTempC = util.Round(v, 1)
		}
		if v, ok := floatAt(block.WeatherCode, i); ok {
			entry.WeatherCode = int(v)
		}
		entry.Conditions = weather.ConditionLabel(entry.WeatherCode)
		if v, ok := floatAt(block.PrecipitationProbabilityMax, i); ok {
			entry.PrecipitationChance = int(math.Round(v))
		}
		if v, ok := floatAt(block.UVIndexMax, i); ok {
			entry.UVIndex = util.Round(v, 1)
		}
		out = append(out, entry)
	}
	return out
}

var _ weather.Strategy = (*AdvancedStrategy)(nil)
