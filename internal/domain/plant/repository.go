package plant

import (
	"context"
	"time"

	"github.com/yanqian/plant-care/internal/domain/timeline"
)

// PlantRepository persists plants.
type PlantRepository interface {
	Create(ctx context.Context, p Plant) (Plant, error)
	Update(ctx context.Context, p Plant) (Plant, error)
	Get(ctx context.Context, id int64) (Plant, bool, error)
	// GetForUpdate loads the plant and holds its row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (Plant, bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Plant, error)
	// Delete removes the plant with its reminders, events and photos.
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReminderRepository persists reminders.
type ReminderRepository interface {
	Create(ctx context.Context, r Reminder) (Reminder, error)
	Get(ctx context.Context, id int64) (Reminder, bool, error)
	OpenWatering(ctx context.Context, plantID int64) (Reminder, bool, error)
	UpdateDueDate(ctx context.Context, id int64, due time.Time) error
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByPlant(ctx context.Context, plantID int64) ([]Reminder, error)
	// Due returns open reminders due on or before through, oldest first, with the plant attached.
	Due(ctx context.Context, ownerID string, through time.Time) ([]Reminder, error)
}

// Repos groups the repositories taking part in a plant mutation.
type Repos interface {
	Plants() PlantRepository
	Reminders() ReminderRepository
	Events() timeline.EventRepository
	Photos() timeline.PhotoRepository
}

// Store runs a unit of work atomically. A non-nil error from fn rolls back every write made through tx.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
}
