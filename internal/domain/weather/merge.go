package weather

import (
	"context"
	"strings"
)

// Field flags which Snapshot values a Partial carries.
type Field uint32

const (
	FieldTemperature Field = 1 << iota
	FieldFeelsLike
	FieldHumidity
	FieldConditions
	FieldWind
	FieldPressure
	FieldDewPoint
	FieldCloudCover
	FieldPrecipitation
	FieldUV
	FieldMoonPhase
	FieldSunTimes
	FieldRetrievedAt
	FieldDaily
)

// Has reports whether every bit of other is set.
func (f Field) Has(other Field) bool {
	return f&other == other
}

// Partial is one source's contribution to a report.
type Partial struct {
	Source   string
	Fields   Field
	Snapshot Snapshot
	Daily    []DailyForecast
}

// Strategy fetches partial readings for a query. The first partial is the
// primary reading; later partials only enrich it.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Partial, error)
}

// Merge folds partials into one report body. A field is taken from the first
// partial that flags it; later partials never override it.
func Merge(partials []Partial) (Snapshot, []DailyForecast, Field, string) {
	var (
		out     Snapshot
		daily   []DailyForecast
		filled  Field
		sources []string
	)
	for _, p := range partials {
		missing := p.Fields &^ filled
		if missing == 0 {
			continue
		}
		sources = append(sources, p.Source)
		s := p.Snapshot
		if missing.Has(FieldTemperature) {
			out.TemperatureC = s.TemperatureC
		}
		if missing.Has(FieldFeelsLike) {
			out.FeelsLikeC = s.FeelsLikeC
		}
		if missing.Has(FieldHumidity) {
			out.Humidity = s.Humidity
		}
		if missing.Has(FieldConditions) {
			out.Conditions = s.Conditions
			out.WeatherCode = s.WeatherCode
		}
		if missing.Has(FieldWind) {
			out.WindSpeedKph = s.WindSpeedKph
		}
		if missing.Has(FieldPressure) {
			out.PressureHpa = s.PressureHpa
		}
		if missing.Has(FieldDewPoint) {
			out.DewPointC = s.DewPointC
		}
		if missing.Has(FieldCloudCover) {
			out.CloudCoverPct = s.CloudCoverPct
		}
		if missing.Has(FieldPrecipitation) {
			out.PrecipitationMm = s.PrecipitationMm
		}
		if missing.Has(FieldUV) {
			out.UVIndex = s.UVIndex
		}
		if missing.Has(FieldMoonPhase) {
			out.MoonPhase = s.MoonPhase
		}
		if missing.Has(FieldSunTimes) {
			out.Sunrise = s.Sunrise
			out.Sunset = s.Sunset
		}
		if missing.Has(FieldRetrievedAt) {
			out.RetrievedAt = s.RetrievedAt
		}
		if missing.Has(FieldDaily) {
			daily = append([]DailyForecast(nil), p.Daily...)
		}
		filled |= missing
	}
	return out, daily, filled, strings.Join(sources, "+")
}
