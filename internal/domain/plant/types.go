package plant

import (
	"strings"
	"time"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

// Location describes where a plant lives.
type Location struct {
	Name      string   `json:"name,omitempty"`
	Country   string   `json:"country,omitempty"`
	Area      string   `json:"area,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Plant is a tracked houseplant.
type Plant struct {
	ID                    int64      `json:"id"`
	OwnerID               string     `json:"ownerId,omitempty"`
	Name                  string     `json:"name"`
	Species               string     `json:"species"`
	IsIndoors             bool       `json:"isIndoors"`
	Location              Location   `json:"location"`
	EstimatedSunHours     *int       `json:"estimatedSunHours,omitempty"`
	WateringFrequencyDays *int       `json:"wateringFrequencyDays,omitempty"`
	LastWateredAt         *time.Time `json:"lastWateredAt,omitempty"`
	NextWateringDate      *time.Time `json:"nextWateringDate,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	MainPhotoPath         string     `json:"mainPhotoPath,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p Plant) HasCoordinates() bool {
	return p.Location.Latitude != nil && p.Location.Longitude != nil
}

// ReminderType tags a reminder. Only watering reminders are reconciled.
type ReminderType string

const (
	ReminderWatering    ReminderType = "watering"
	ReminderFertilizing ReminderType = "fertilizing"
	ReminderPruning     ReminderType = "pruning"
)

// Valid reports whether t is a known reminder type.
func (t ReminderType) Valid() bool {
	switch t {
	case ReminderWatering, ReminderFertilizing, ReminderPruning:
		return true
	default:
		return false
	}
}

// Reminder is a scheduled care task.
type Reminder struct {
	ID          int64        `json:"id"`
	PlantID     int64        `json:"plantId"`
	Type        ReminderType `json:"type"`
	DueDate     time.Time    `json:"dueDate"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Plant       *Plant       `json:"plant,omitempty"`
}

// Open reports whether the reminder has not been completed.
func (r Reminder) Open() bool {
	return r.CompletedAt == nil
}

// Input carries the user editable plant fields.
type Input struct {
	Name                  string     `json:"name"`
	Species               string     `json:"species"`
	IsIndoors             bool       `json:"isIndoors"`
	Location              Location   `json:"location"`
	EstimatedSunHours     *int       `json:"estimatedSunHours"`
	WateringFrequencyDays *int       `json:"wateringFrequencyDays"`
	LastWateredAt         *time.Time `json:"lastWateredAt"`
	Notes                 string     `json:"notes"`
	MainPhotoPath         string     `json:"mainPhotoPath"`
}

const (
	maxNameLen     = 120
	maxSpeciesLen  = 160
	maxLocationLen = 120
	maxCountryLen  = 120
	maxAreaLen     = 80
	maxNotesLen    = 2048
	maxPhotoPath   = 256
)

// Validate trims the input and enforces field limits.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Location.Name = strings.TrimSpace(in.Location.Name)
	in.Location.Country = strings.TrimSpace(in.Location.Country)
	in.Location.Area = strings.TrimSpace(in.Location.Area)
	in.Notes = strings.TrimSpace(in.Notes)
	in.MainPhotoPath = strings.TrimSpace(in.MainPhotoPath)

	switch {
	case in.Name == "":
		return invalid("name is required")
	case len(in.Name) > maxNameLen:
		return invalid("name is too long")
	case in.Species == "":
		return invalid("species is required")
	case len(in.Species) > maxSpeciesLen:
		return invalid("species is too long")
	case len(in.Location.Name) > maxLocationLen:
		return invalid("location name is too long")
	case len(in.Location.Country) > maxCountryLen:
		return invalid("country is too long")
	case len(in.Location.Area) > maxAreaLen:
		return invalid("location area is too long")
	case len(in.Notes) > maxNotesLen:
		return invalid("notes are too long")
	case len(in.MainPhotoPath) > maxPhotoPath:
		return invalid("main photo path is too long")
	}
	if v := in.EstimatedSunHours; v != nil && (*v < 0 || *v > 24) {
		return invalid("estimated sun hours must be between 0 and 24")
	}
	if v := in.WateringFrequencyDays; v != nil && (*v < 1 || *v > 90) {
		return invalid("watering frequency must be between 1 and 90 days")
	}
	if lat := in.Location.Latitude; lat != nil && (*lat < -90 || *lat > 90) {
		return invalid("latitude must be between -90 and 90")
	}
	if lon := in.Location.Longitude; lon != nil && (*lon < -180 || *lon > 180) {
		return invalid("longitude must be between -180 and 180")
	}
	return nil
}

func invalid(message string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, message, nil)
}

func (in Input) apply(p *Plant) {
	p.Name = in.Name
	p.Species = in.Species
	p.IsIndoors = in.IsIndoors
	p.Location = in.Location
	p.EstimatedSunHours = in.EstimatedSunHours
	p.WateringFrequencyDays = in.WateringFrequencyDays
	p.LastWateredAt = in.LastWateredAt
	p.Notes = in.Notes
	p.MainPhotoPath = in.MainPhotoPath
}
