package timeline

import (
	"context"
	"errors"
)

// ErrPlantMissing is wrapped by repositories when the referenced plant no longer exists.
var ErrPlantMissing = errors.New("plant does not exist")

// EventRepository persists timeline events. Reads are newest-first with the photo joined.
type EventRepository interface {
	Append(ctx context.Context, event Event) (Event, error)
	ListByPlant(ctx context.Context, plantID int64) ([]Event, error)
	ListByPlants(ctx context.Context, plantIDs []int64) ([]Event, error)
}

// PhotoRepository persists photos together with their timeline events.
type PhotoRepository interface {
	// CreateWithEvent stores the photo and links event to it in one unit.
	CreateWithEvent(ctx context.Context, photo Photo, event Event) (Photo, Event, error)
	Get(ctx context.Context, id int64) (Photo, bool, error)
	ListByPlant(ctx context.Context, plantID int64) ([]Photo, error)
	// DeleteWithEvents removes every event referencing the photo and then the photo.
	DeleteWithEvents(ctx context.Context, id int64) (Photo, bool, error)
}

// PlantChecker reports whether a plant exists.
type PlantChecker interface {
	Exists(ctx context.Context, plantID int64) (bool, error)
}

// ImageStorage stores photo payloads and returns their relative path.
type ImageStorage interface {
	Put(ctx context.Context, upload Upload) (string, error)
	Delete(ctx context.Context, path string) error
}

// PhotoAnalyzer annotates a photo with a summary and a health score in [0,1].
type PhotoAnalyzer interface {
	Analyze(ctx context.Context, photo Photo) (Photo, error)
}
