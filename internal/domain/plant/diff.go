package plant

import (
	"strconv"
	"strings"
)

const (
	diffSeparator = " · "
	notSet        = "not set"
)

// Diff summarizes the timeline-worthy changes between two plant states. It
// returns an empty string when none of the tracked fields changed.
func Diff(previous, updated Plant) string {
	var changes []string
	changes = appendText(changes, "Area", previous.Location.Area, updated.Location.Area)
	changes = appendText(changes, "Location",
		combineLocation(previous.Location.Name, previous.Location.Country),
		combineLocation(updated.Location.Name, updated.Location.Country))
	changes = appendInt(changes, "Watering frequency", previous.WateringFrequencyDays, updated.WateringFrequencyDays, " day(s)")
	changes = appendInt(changes, "Sun hours", previous.EstimatedSunHours, updated.EstimatedSunHours, "h")
	if previous.IsIndoors != updated.IsIndoors {
		env := "Outdoor"
		if updated.IsIndoors {
			env = "Indoor"
		}
		changes = append(changes, "Environment: "+env)
	}
	if previous.Notes != updated.Notes {
		changes = append(changes, "Notes updated")
	}
	return strings.Join(changes, diffSeparator)
}

func appendText(changes []string, label, before, after string) []string {
	if before == after {
		return changes
	}
	value := strings.TrimSpace(after)
	if value == "" {
		value = notSet
	}
	return append(changes, label+": "+value)
}

func appendInt(changes []string, label string, before, after *int, suffix string) []string {
	if equalInt(before, after) {
		return changes
	}
	value := notSet
	if after != nil {
		value = strconv.Itoa(*after) + suffix
	}
	return append(changes, label+": "+value)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func combineLocation(name, country string) string {
	segments := make([]string, 0, 2)
	for _, s := range []string{name, country} {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, ", ")
}
