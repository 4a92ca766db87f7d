package plant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffIdenticalIsEmpty(t *testing.T) {
	p := Plant{
		Location:              Location{Name: "Home", Country: "Chile", Area: "Living room"},
		WateringFrequencyDays: intPtr(7),
		EstimatedSunHours:     intPtr(4),
		IsIndoors:             true,
		Notes:                 "likes mist",
	}
	require.Empty(t, Diff(p, p))
}

func TestDiffAreaOnly(t *testing.T) {
	before := Plant{Location: Location{Area: "Living room"}}
	after := Plant{Location: Location{Area: "Balcony"}}

	summary := Diff(before, after)
	require.Equal(t, "Area: Balcony", summary)
	require.NotContains(t, summary, diffSeparator)
}

func TestDiffFixedOrder(t *testing.T) {
	before := Plant{
		Location:              Location{Name: "Flat", Country: "Spain", Area: "Kitchen"},
		WateringFrequencyDays: intPtr(7),
		EstimatedSunHours:     intPtr(2),
		IsIndoors:             true,
		Notes:                 "a",
	}
	after := Plant{
		Location:              Location{Name: "House", Country: "Spain"},
		WateringFrequencyDays: nil,
		EstimatedSunHours:     intPtr(6),
		IsIndoors:             false,
		Notes:                 "b",
	}

	clauses := strings.Split(Diff(before, after), diffSeparator)
	require.Equal(t, []string{
		"Area: not set",
		"Location: House, Spain",
		"Watering frequency: not set",
		"Sun hours: 6h",
		"Environment: Outdoor",
		"Notes updated",
	}, clauses)
}

func TestDiffFrequencyAndEnvironment(t *testing.T) {
	before := Plant{WateringFrequencyDays: intPtr(7)}
	after := Plant{WateringFrequencyDays: intPtr(3), IsIndoors: true}
	require.Equal(t, "Watering frequency: 3 day(s) · Environment: Indoor", Diff(before, after))
}
