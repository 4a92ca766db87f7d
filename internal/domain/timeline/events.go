package timeline

import (
	"fmt"
	"strings"
	"time"
)

const displayDate = "02 Jan 2006"

func newEvent(plantID int64, kind Kind, title, description string, at time.Time) Event {
	icon, accent := kind.Presentation()
	return Event{
		PlantID:     plantID,
		Kind:        kind,
		Title:       title,
		Description: description,
		CreatedAt:   at,
		Icon:        icon,
		Accent:      accent,
	}
}

// NewCreatedEvent records that a plant was registered.
func NewCreatedEvent(plantID int64, createdAt time.Time) Event {
	return newEvent(plantID, KindCreated, "Plant added", fmt.Sprintf("Registered on %s.", createdAt.Format(displayDate)), createdAt)
}

// NewWateringEvent records a completed watering.
func NewWateringEvent(plantID int64, plantName string, completedAt time.Time, note string) Event {
	title := "Watering logged"
	if name := strings.TrimSpace(plantName); name != "" {
		title = "Watered " + name
	}
	description := strings.TrimSpace(note)
	if description == "" {
		description = fmt.Sprintf("Last watering recorded on %s.", completedAt.Format(displayDate))
	}
	return newEvent(plantID, KindWatering, title, description, completedAt)
}

// NewReminderScheduledEvent records that a watering reminder was opened.
func NewReminderScheduledEvent(plantID int64, dueDate, at time.Time) Event {
	return newEvent(plantID, KindReminder, "Reminder scheduled", fmt.Sprintf("Next watering due on %s.", dueDate.Format(displayDate)), at)
}

// NewUpdatedEvent records a change summary. It returns false for a blank summary.
func NewUpdatedEvent(plantID int64, summary string, at time.Time) (Event, bool) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Event{}, false
	}
	return newEvent(plantID, KindUpdated, "Plant updated", summary, at), true
}

func newNoteEvent(plantID int64, note string, at time.Time) Event {
	return newEvent(plantID, KindNote, "Note added", note, at)
}

func newPhotoEvent(photo Photo, at time.Time) Event {
	description := strings.TrimSpace(photo.AnalysisSummary)
	if description == "" {
		description = "A photo was added to the history."
	}
	evt := newEvent(photo.PlantID, KindPhoto, "New photo", description, at)
	if photo.ID != 0 {
		id := photo.ID
		evt.PhotoID = &id
	}
	return evt
}

// LatestByPlant picks the first event per plant from a newest-first slice.
func LatestByPlant(events []Event) map[int64]Event {
	latest := make(map[int64]Event)
	for _, evt := range events {
		if _, seen := latest[evt.PlantID]; !seen {
			latest[evt.PlantID] = evt
		}
	}
	return latest
}

// Less orders events newest-first, breaking timestamp ties by id.
func Less(a, b Event) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
