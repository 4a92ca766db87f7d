package weather

import "time"

// Snapshot is the normalized current conditions for a location.
type Snapshot struct {
	TemperatureC    float64   `json:"temperatureC"`
	FeelsLikeC      float64   `json:"feelsLikeC"`
	Humidity        int       `json:"humidity"`
	Conditions      string    `json:"conditions"`
	WeatherCode     int       `json:"weatherCode"`
	WindSpeedKph    float64   `json:"windSpeedKph"`
	PressureHpa     float64   `json:"pressureHpa"`
	DewPointC       float64   `json:"dewPointC"`
	CloudCoverPct   float64   `json:"cloudCoverPct"`
	PrecipitationMm float64   `json:"precipitationMm"`
	UVIndex         float64   `json:"uvIndex"`
	MoonPhase       float64   `json:"moonPhase"`
	Sunrise         time.Time `json:"sunrise"`
	Sunset          time.Time `json:"sunset"`
	RetrievedAt     time.Time `json:"retrievedAt"`
}

// DailyForecast is one day of the forecast block.
type DailyForecast struct {
	Date                time.Time `json:"date"`
	MinTempC            float64   `json:"minTempC"`
	MaxTempC            float64   `json:"maxTempC"`
	Conditions          string    `json:"conditions"`
	WeatherCode         int       `json:"weatherCode"`
	PrecipitationChance int       `json:"precipitationChance"`
	UVIndex             float64   `json:"uvIndex"`
}

// Report is what callers receive from CurrentWeather.
type Report struct {
	LocationLabel string          `json:"locationLabel"`
	Current       Snapshot        `json:"current"`
	Daily         []DailyForecast `json:"daily"`
	Source        string          `json:"source"`
}

// Query identifies the location to fetch.
type Query struct {
	Latitude  float64
	Longitude float64
	Label     string
}

// ConditionLabel maps an Open-Meteo WMO weather code to a readable label.
func ConditionLabel(code int) string {
	switch code {
	case 0:
		return "Clear"
	case 1, 2:
		return "Partly cloudy"
	case 3:
		return "Cloudy"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing rain"
	case 71, 73, 75:
		return "Snow"
	case 80, 81, 82:
		return "Showers"
	case 95, 96, 99:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
