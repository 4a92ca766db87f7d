package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
	"github.com/yanqian/plant-care/pkg/util"
)

// Severity ranks how urgently an insight needs attention.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

const defaultFrequencyDays = 7

// Insight is a single advisory shown to the owner.
type Insight struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Icon        string   `json:"icon"`
}

// Recommendation is a static care plan item.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProductURL  string `json:"productUrl,omitempty"`
}

// BuildInsights evaluates the watering, photo and weather rules in that order.
// The result always holds at least one insight.
func BuildInsights(p plant.Plant, current *weather.Snapshot, events []timeline.Event, now time.Time) []Insight {
	var out []Insight

	if p.LastWateredAt != nil && p.WateringFrequencyDays != nil {
		freq := float64(*p.WateringFrequencyDays)
		since := util.DaysBetween(*p.LastWateredAt, now)
		switch {
		case since > freq+1:
			out = append(out, Insight{
				Title:       "Watering overdue",
				Description: fmt.Sprintf("%.0f days have passed since the last watering. Water it today.", since),
				Severity:    SeverityHigh,
				Icon:        "exclamation-triangle",
			})
		case since > freq-1:
			out = append(out, Insight{
				Title:       "Watering due soon",
				Description: "The plant is close to its usual watering interval. Check whether the soil is still moist.",
				Severity:    SeverityMedium,
				Icon:        "droplet-half",
			})
		}
	}

	if score, ok := latestHealthScore(events); ok {
		switch {
		case score < 0.5:
			out = append(out, Insight{
				Title:       "Possible stress",
				Description: "The latest photo suggests signs of stress. Check for pests and light levels.",
				Severity:    SeverityHigh,
				Icon:        "emoji-frown",
			})
		case score < 0.75:
			out = append(out, Insight{
				Title:       "Watch closely",
				Description: "The plant shows minor signs of stress. Keep an eye on new leaves and water moderately.",
				Severity:    SeverityMedium,
				Icon:        "activity",
			})
		}
	}

	if current != nil {
		switch {
		case current.TemperatureC > 30:
			out = append(out, Insight{
				Title:       "Intense heat",
				Description: "It is very hot right now. Consider moving the plant to partial shade and misting lightly.",
				Severity:    SeverityHigh,
				Icon:        "thermometer-high",
			})
		case current.Humidity < 30 && p.IsIndoors:
			out = append(out, Insight{
				Title:       "Low humidity",
				Description: "The air is dry. Use a pebble tray or a humidifier.",
				Severity:    SeverityMedium,
				Icon:        "moisture",
			})
		}
	}

	if len(out) == 0 {
		out = append(out, Insight{
			Title:       "All clear",
			Description: "No urgent actions detected. Keep the current plan and log your care.",
			Severity:    SeverityLow,
			Icon:        "check2-circle",
		})
	}
	return out
}

// TimelineInsights derives advisories from the event history alone. Unlike
// BuildInsights it may return an empty list.
func TimelineInsights(p plant.Plant, events []timeline.Event, now time.Time) []Insight {
	ordered := newestFirst(events)
	out := make([]Insight, 0, 2)

	freq := defaultFrequencyDays
	if p.WateringFrequencyDays != nil {
		freq = *p.WateringFrequencyDays
	}

	var lastWatering *timeline.Event
	for i := range ordered {
		if ordered[i].Kind == timeline.KindWatering {
			lastWatering = &ordered[i]
			break
		}
	}
	if lastWatering != nil && util.DaysBetween(lastWatering.CreatedAt, now) > float64(freq+1) {
		out = append(out, Insight{
			Title:       "Check soil moisture",
			Description: "More time than the usual watering interval has passed. Check whether the soil is still moist.",
			Severity:    SeverityMedium,
			Icon:        "droplet",
		})
	}

	if score, ok := latestHealthScore(ordered); ok && score < 0.6 {
		out = append(out, Insight{
			Title:       "Review the latest photo",
			Description: "The latest photo showed possible signs of stress. Inspect leaves and stems to rule out pests.",
			Severity:    SeverityMedium,
			Icon:        "image",
		})
	}

	if len(out) == 0 && lastWatering != nil {
		out = append(out, Insight{
			Title:       "All on track",
			Description: fmt.Sprintf("The last watering was logged on %s. Keep the current plan.", lastWatering.CreatedAt.UTC().Format("02 Jan")),
			Severity:    SeverityLow,
			Icon:        "check2-circle",
		})
	}
	return out
}

// Recommendations returns the static care plan for a plant.
func Recommendations(p plant.Plant, current *weather.Snapshot) []Recommendation {
	freq := defaultFrequencyDays
	if p.WateringFrequencyDays != nil {
		freq = *p.WateringFrequencyDays
	}
	out := []Recommendation{
		{Title: "Watering", Description: fmt.Sprintf("Water every %d day(s).", freq)},
		{Title: "Check-up", Description: "Look for yellow leaves or spots once a week."},
	}
	if current != nil && current.TemperatureC > 28 {
		out = append(out, Recommendation{Title: "Sun protection", Description: "Consider moving the plant to partial shade in the afternoon."})
	}
	out = append(out, Recommendation{
		Title:       "Suggested product",
		Description: "Balanced fertilizer every 2 months.",
		ProductURL:  "https://example.com/fertilizer",
	})
	return out
}

// latestHealthScore finds the newest photo event carrying a health score.
func latestHealthScore(events []timeline.Event) (float64, bool) {
	var (
		best  timeline.Event
		found bool
	)
	for _, e := range events {
		if e.Kind != timeline.KindPhoto || e.Photo == nil || e.Photo.HealthScore == nil {
			continue
		}
		if !found || timeline.Less(e, best) {
			best, found = e, true
		}
	}
	if !found {
		return 0, false
	}
	return *best.Photo.HealthScore, true
}

func newestFirst(events []timeline.Event) []timeline.Event {
	ordered := append([]timeline.Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return timeline.Less(ordered[i], ordered[j])
	})
	return ordered
}
