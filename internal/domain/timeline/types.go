package timeline

import "time"

// Kind tags a timeline event.
type Kind string

const (
	KindCreated     Kind = "created"
	KindWatering    Kind = "watering"
	KindFertilizing Kind = "fertilizing"
	KindPhoto       Kind = "photo"
	KindNote        Kind = "note"
	KindReminder    Kind = "reminder"
	KindUpdated     Kind = "updated"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, _, ok := k.presentation()
	return ok
}

// Presentation returns the display icon and accent for the kind.
func (k Kind) Presentation() (icon, accent string) {
	icon, accent, _ = k.presentation()
	return icon, accent
}

func (k Kind) presentation() (string, string, bool) {
	switch k {
	case KindCreated:
		return "sparkles", "success", true
	case KindWatering:
		return "droplet", "info", true
	case KindFertilizing:
		return "flower", "success", true
	case KindPhoto:
		return "image", "warning", true
	case KindNote:
		return "pencil", "neutral", true
	case KindReminder:
		return "alarm", "info", true
	case KindUpdated:
		return "arrow-repeat", "neutral", true
	default:
		return "", "", false
	}
}

// Photo is a stored plant image and its analysis.
type Photo struct {
	ID              int64     `json:"id"`
	PlantID         int64     `json:"plantId"`
	FilePath        string    `json:"filePath"`
	TakenAt         time.Time `json:"takenAt"`
	AnalysisSummary string    `json:"analysisSummary,omitempty"`
	HealthScore     *float64  `json:"healthScore,omitempty"`
}

// Event is an immutable entry of a plant's history.
type Event struct {
	ID          int64     `json:"id"`
	PlantID     int64     `json:"plantId"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	PhotoID     *int64    `json:"photoId,omitempty"`
	Photo       *Photo    `json:"photo,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Accent      string    `json:"accent,omitempty"`
}

// Upload carries a validated image payload.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
