package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/weather"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

const advancedPayload = `{
  "utc_offset_seconds": 7200,
  "current": {
    "time": "2024-05-01T14:00",
    "temperature_2m": 21.46,
    "relative_humidity_2m": 54.6,
    "weather_code": 2,
    "wind_speed_10m": 3.5,
    "apparent_temperature": 20.04,
    "pressure_msl": 1013.4,
    "dew_point_2m": 11.77,
    "precipitation": 0.04,
    "cloud_cover": 40.6
  },
  "daily": {
    "time": ["2024-05-01", "2024-05-02"],
    "temperature_2m_max": [24.36, 26.1],
    "temperature_2m_min": [12.04],
    "sunrise": ["2024-05-01T07:05", "2024-05-02T07:04"],
    "sunset": ["2024-05-01T21:15", "2024-05-02T21:16"],
    "uv_index_max": [6.37, null],
    "precipitation_probability_max": [10, 35],
    "weather_code": [3, 61],
    "moon_phase": [0.42, 0.45]
  }
}`

const basicPayload = `{
  "utc_offset_seconds": 0,
  "current_weather": {"time": "2024-05-01T14:00", "temperature": 18.24, "windspeed": 12.3, "weathercode": 80},
  "hourly": {
    "time": ["2024-05-01T13:00", "2024-05-01T14:00", "2024-05-01T15:00"],
    "relative_humidity_2m": [70, 72, 74],
    "pressure_msl": [1010.2, 1011.6, 1012],
    "dew_point_2m": [9.1, 9.26, 9.4],
    "cloud_cover": [90, 88, 85],
    "precipitation": [0.2, 0.44, 0],
    "apparent_temperature": [17, 17.51, 18]
  }
}`

func TestAdvancedStrategyNormalizesPayload(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_, _ = io.WriteString(w, advancedPayload)
	}))
	defer srv.Close()

	strategy := NewAdvancedStrategy(NewClient(srv.URL, time.Second), BreakerConfig{})
	partials, err := strategy.Fetch(context.Background(), weather.Query{Latitude: 40.4168, Longitude: -3.7038})
	require.NoError(t, err)
	require.Len(t, partials, 1)

	require.Equal(t, "ms", query["wind_speed_unit"])
	require.Equal(t, "auto", query["timezone"])
	require.Equal(t, "40.4168", query["latitude"])
	require.Equal(t, advancedCurrent, query["current"])

	snap := partials[0].Snapshot
	require.Equal(t, 21.5, snap.TemperatureC)
	require.Equal(t, 20.0, snap.FeelsLikeC)
	require.Equal(t, 55, snap.Humidity)
	require.Equal(t, 12.6, snap.WindSpeedKph)
	require.Equal(t, 1013.0, snap.PressureHpa)
	require.Equal(t, 11.8, snap.DewPointC)
	require.Equal(t, 41.0, snap.CloudCoverPct)
	require.Equal(t, 0.0, snap.PrecipitationMm)
	require.Equal(t, 6.4, snap.UVIndex)
	require.Equal(t, 0.42, snap.MoonPhase)
	require.Equal(t, 2, snap.WeatherCode)
	require.Equal(t, "Partly cloudy", snap.Conditions)
	require.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), snap.RetrievedAt)
	require.True(t, snap.Sunrise.Equal(time.Date(2024, 5, 1, 5, 5, 0, 0, time.UTC)))

	daily := partials[0].Daily
	require.Len(t, daily, 2)
	require.Equal(t, 12.0, daily[0].MinTempC)
	require.Equal(t, 24.4, daily[0].MaxTempC)
	require.Equal(t, "Cloudy", daily[0].Conditions)
	require.Zero(t, daily[1].MinTempC)
	require.Zero(t, daily[1].UVIndex)
	require.Equal(t, 35, daily[1].PrecipitationChance)
	require.Equal(t, "Rain", daily[1].Conditions)
}

func TestAdvancedStrategyWithoutDailyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"current":{"time":"garbage","temperature_2m":10,"weather_code":45}}`)
	}))
	defer srv.Close()

	partials, err := NewAdvancedStrategy(NewClient(srv.URL, time.Second), BreakerConfig{}).Fetch(context.Background(), weather.Query{})
	require.NoError(t, err)
	snap := partials[0].Snapshot
	require.True(t, snap.Sunrise.IsZero())
	require.True(t, snap.Sunset.IsZero())
	require.True(t, snap.RetrievedAt.IsZero())
	require.False(t, partials[0].Fields.Has(weather.FieldSunTimes))
	require.False(t, partials[0].Fields.Has(weather.FieldRetrievedAt))
	require.Equal(t, "Fog", snap.Conditions)
	require.NotNil(t, partials[0].Daily)
	require.Empty(t, partials[0].Daily)
}

func TestAdvancedStrategyMissingCurrentIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"daily":{}}`)
	}))
	defer srv.Close()

	_, err := NewAdvancedStrategy(NewClient(srv.URL, time.Second), BreakerConfig{}).Fetch(context.Background(), weather.Query{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamParse))
}

func TestBasicStrategyMatchesHourlySample(t *testing.T) {
	var currentWeather, hourly string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currentWeather = r.URL.Query().Get("current_weather")
		hourly = r.URL.Query().Get("hourly")
		_, _ = io.WriteString(w, basicPayload)
	}))
	defer srv.Close()

	partials, err := NewBasicStrategy(NewClient(srv.URL, time.Second), BreakerConfig{}).Fetch(context.Background(), weather.Query{})
	require.NoError(t, err)
	require.Len(t, partials, 2)
	require.Equal(t, "true", currentWeather)
	require.Equal(t, basicHourly, hourly)

	snap, _, _, source := weather.Merge(partials)
	require.Equal(t, "open-meteo-basic+open-meteo-hourly", source)
	require.Equal(t, 18.2, snap.TemperatureC)
	require.Equal(t, 12.3, snap.WindSpeedKph)
	require.Equal(t, "Showers", snap.Conditions)
	require.Equal(t, 72, snap.Humidity)
	require.Equal(t, 1012.0, snap.PressureHpa)
	require.Equal(t, 9.3, snap.DewPointC)
	require.Equal(t, 88.0, snap.CloudCoverPct)
	require.Equal(t, 0.4, snap.PrecipitationMm)
	require.Equal(t, 17.5, snap.FeelsLikeC)
}

func TestBasicStrategyFallsBackToLastHourlySample(t *testing.T) {
	block := &basicHourlyBlock{
		Time:             []string{"2024-05-01T10:00", "2024-05-01T11:00"},
		RelativeHumidity: []*float64{ptr(40), ptr(45)},
		PressureMSL:      []*float64{ptr(1000)},
	}

	partial, ok := hourlyEnrichment(block, "2024-05-01T14:00")
	require.True(t, ok)
	require.Equal(t, 45, partial.Snapshot.Humidity)
	require.False(t, partial.Fields.Has(weather.FieldPressure))
}

func TestServiceFallsBackWhenAdvancedTierFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("current_weather") == "" {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, basicPayload)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	svc := weather.NewService(weather.Config{}, []weather.Strategy{
		NewAdvancedStrategy(client, BreakerConfig{}),
		NewBasicStrategy(client, BreakerConfig{}),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	report, err := svc.CurrentWeather(context.Background(), weather.Query{Latitude: 1, Longitude: 2, Label: "Balcony"})
	require.NoError(t, err)
	require.Equal(t, "Balcony", report.LocationLabel)
	require.Equal(t, 18.2, report.Current.TemperatureC)
	require.Equal(t, 72, report.Current.Humidity)
	require.Empty(t, report.Daily)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestServiceKeepsAdvancedReadingWithoutTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("current_weather") != "" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"current":{"relative_humidity_2m":61,"weather_code":3},"daily":{"time":["2024-05-01"],"temperature_2m_max":[19.5],"temperature_2m_min":[9.1],"weather_code":[3]}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	svc := weather.NewService(weather.Config{}, []weather.Strategy{
		NewAdvancedStrategy(client, BreakerConfig{}),
		NewBasicStrategy(client, BreakerConfig{}),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	report, err := svc.CurrentWeather(context.Background(), weather.Query{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	require.Equal(t, 61, report.Current.Humidity)
	require.Equal(t, "Cloudy", report.Current.Conditions)
	require.Zero(t, report.Current.TemperatureC)
	require.Len(t, report.Daily, 1)
	require.Equal(t, 19.5, report.Daily[0].MaxTempC)
}

func TestServiceReportsUnavailableWhenBothTiersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	svc := weather.NewService(weather.Config{}, []weather.Strategy{
		NewAdvancedStrategy(client, BreakerConfig{}),
		NewBasicStrategy(client, BreakerConfig{}),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.CurrentWeather(context.Background(), weather.Query{Latitude: 1, Longitude: 2})
	require.True(t, apperrors.IsCode(err, apperrors.CodeWeatherUnavailable))
}

func TestOpenBreakerSkipsRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, "{not json")
	}))
	defer srv.Close()

	strategy := NewAdvancedStrategy(NewClient(srv.URL, time.Second), BreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_, err := strategy.Fetch(context.Background(), weather.Query{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamParse))

	_, err = strategy.Fetch(context.Background(), weather.Query{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestParseLocalRejectsGarbage(t *testing.T) {
	require.True(t, parseLocal("not a date", 0).IsZero())
	require.True(t, parseLocal("", 0).IsZero())
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), parseLocal("2024-05-01", 0).UTC())
}

func ptr(v float64) *float64 { return &v }
