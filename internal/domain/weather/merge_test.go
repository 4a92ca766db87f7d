package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMergeOnlyFillsMissingFields(t *testing.T) {
	sunrise := time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)
	partials := []Partial{
		{
			Source:   "primary",
			Fields:   FieldTemperature | FieldWind,
			Snapshot: Snapshot{TemperatureC: 20, WindSpeedKph: 0},
		},
		{
			Source:   "enrichment",
			Fields:   FieldTemperature | FieldWind | FieldPressure | FieldSunTimes,
			Snapshot: Snapshot{TemperatureC: 30, WindSpeedKph: 15, PressureHpa: 1012, Sunrise: sunrise},
		},
	}

	snapshot, daily, filled, source := Merge(partials)
	require.Equal(t, 20.0, snapshot.TemperatureC)
	require.Zero(t, snapshot.WindSpeedKph)
	require.Equal(t, 1012.0, snapshot.PressureHpa)
	require.Equal(t, sunrise, snapshot.Sunrise)
	require.Nil(t, daily)
	require.True(t, filled.Has(FieldTemperature|FieldWind|FieldPressure|FieldSunTimes))
	require.False(t, filled.Has(FieldHumidity))
	require.Equal(t, "primary+enrichment", source)
}

func TestMergeSkipsRedundantSources(t *testing.T) {
	partials := []Partial{
		{Source: "primary", Fields: FieldTemperature | FieldDaily, Daily: []DailyForecast{{MinTempC: 1}}},
		{Source: "duplicate", Fields: FieldTemperature | FieldDaily, Daily: []DailyForecast{{MinTempC: 5}, {MinTempC: 6}}},
	}

	_, daily, _, source := Merge(partials)
	require.Len(t, daily, 1)
	require.Equal(t, 1.0, daily[0].MinTempC)
	require.Equal(t, "primary", source)
}
