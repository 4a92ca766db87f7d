package plant

import (
	"time"

	"github.com/yanqian/plant-care/pkg/util"
)

// ComputeNextWatering returns the calendar date of the next watering, or nil
// when the plant has no watering frequency.
func ComputeNextWatering(lastWateredAt *time.Time, frequencyDays *int, now time.Time) *time.Time {
	if frequencyDays == nil {
		return nil
	}
	reference := now
	if lastWateredAt != nil {
		reference = *lastWateredAt
	}
	next := util.DateOf(reference).AddDate(0, 0, *frequencyDays)
	return &next
}

func wateringDueDate(p Plant, now time.Time) (time.Time, bool) {
	if p.WateringFrequencyDays == nil {
		return time.Time{}, false
	}
	if p.NextWateringDate != nil {
		return util.DateOf(*p.NextWateringDate), true
	}
	return *ComputeNextWatering(p.LastWateredAt, p.WateringFrequencyDays, now), true
}
