package plantrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
)

var (
	// ErrPlantMissing mirrors a foreign key violation on the plant reference.
	ErrPlantMissing = timeline.ErrPlantMissing
	// ErrOpenWateringExists mirrors the unique index on open watering reminders.
	ErrOpenWateringExists = errors.New("plant already has an open watering reminder")
)

type memoryState struct {
	plants    map[int64]plant.Plant
	reminders map[int64]plant.Reminder
	events    map[int64]timeline.Event
	photos    map[int64]timeline.Photo

	nextPlantID    int64
	nextReminderID int64
	nextEventID    int64
	nextPhotoID    int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		plants:         make(map[int64]plant.Plant),
		reminders:      make(map[int64]plant.Reminder),
		events:         make(map[int64]timeline.Event),
		photos:         make(map[int64]timeline.Photo),
		nextPlantID:    1,
		nextReminderID: 1,
		nextEventID:    1,
		nextPhotoID:    1,
	}
}

func (st *memoryState) clone() *memoryState {
	out := &memoryState{
		plants:         make(map[int64]plant.Plant, len(st.plants)),
		reminders:      make(map[int64]plant.Reminder, len(st.reminders)),
		events:         make(map[int64]timeline.Event, len(st.events)),
		photos:         make(map[int64]timeline.Photo, len(st.photos)),
		nextPlantID:    st.nextPlantID,
		nextReminderID: st.nextReminderID,
		nextEventID:    st.nextEventID,
		nextPhotoID:    st.nextPhotoID,
	}
	for id, p := range st.plants {
		out.plants[id] = p
	}
	for id, r := range st.reminders {
		out.reminders[id] = r
	}
	for id, e := range st.events {
		out.events[id] = e
	}
	for id, p := range st.photos {
		out.photos[id] = p
	}
	return out
}

// MemoryStore is an in-memory plant.Store used for tests/dev. Transactions
// take the store-wide write lock and restore a snapshot on failure.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// WithinTx implements plant.Store.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx plant.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, memoryRepos{store: s, inTx: true}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Plants implements plant.Repos.
func (s *MemoryStore) Plants() plant.PlantRepository { return memoryPlants{memoryRepos{store: s}} }

// Reminders implements plant.Repos.
func (s *MemoryStore) Reminders() plant.ReminderRepository {
	return memoryReminders{memoryRepos{store: s}}
}

// Events implements plant.Repos.
func (s *MemoryStore) Events() timeline.EventRepository { return memoryEvents{memoryRepos{store: s}} }

// Photos implements plant.Repos.
func (s *MemoryStore) Photos() timeline.PhotoRepository { return memoryPhotos{memoryRepos{store: s}} }

type memoryRepos struct {
	store *MemoryStore
	inTx  bool
}

func (r memoryRepos) Plants() plant.PlantRepository { return memoryPlants{r} }
func (r memoryRepos) Reminders() plant.ReminderRepository { return memoryReminders{r} }
func (r memoryRepos) Events() timeline.EventRepository { return memoryEvents{r} }
func (r memoryRepos) Photos() timeline.PhotoRepository { return memoryPhotos{r} }

func (r memoryRepos) read(ctx context.Context, fn func(st *memoryState)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.inTx {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}
	fn(r.store.state)
	return nil
}

func (r memoryRepos) write(ctx context.Context, fn func(st *memoryState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.inTx {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
	}
	return fn(r.store.state)
}

type memoryPlants struct{ memoryRepos }

func (r memoryPlants) Create(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	err := r.write(ctx, func(st *memoryState) error {
		p.ID = st.nextPlantID
		st.nextPlantID++
		st.plants[p.ID] = p
		return nil
	})
	return p, err
}

func (r memoryPlants) Update(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	err := r.write(ctx, func(st *memoryState) error {
		if _, ok := st.plants[p.ID]; !ok {
			return fmt.Errorf("update plant %d: %w", p.ID, ErrPlantMissing)
		}
		st.plants[p.ID] = p
		return nil
	})
	return p, err
}

func (r memoryPlants) Get(ctx context.Context, id int64) (plant.Plant, bool, error) {
	var (
		p     plant.Plant
		found bool
	)
	err := r.read(ctx, func(st *memoryState) {
		p, found = st.plants[id]
	})
	return p, found, err
}

func (r memoryPlants) GetForUpdate(ctx context.Context, id int64) (plant.Plant, bool, error) {
	return r.Get(ctx, id)
}

func (r memoryPlants) ListByOwner(ctx context.Context, ownerID string) ([]plant.Plant, error) {
	var out []plant.Plant
	err := r.read(ctx, func(st *memoryState) {
		for _, p := range st.plants {
			if p.OwnerID == ownerID {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r memoryPlants) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.write(ctx, func(st *memoryState) error {
		if _, ok := st.plants[id]; !ok {
			return nil
		}
		delete(st.plants, id)
		for rid, rem := range st.reminders {
			if rem.PlantID == id {
				delete(st.reminders, rid)
			}
		}
		for eid, evt := range st.events {
			if evt.PlantID == id {
				delete(st.events, eid)
			}
		}
		for pid, photo := range st.photos {
			if photo.PlantID == id {
				delete(st.photos, pid)
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r memoryPlants) Exists(ctx context.Context, id int64) (bool, error) {
	_, found, err := r.Get(ctx, id)
	return found, err
}

type memoryReminders struct{ memoryRepos }

func (r memoryReminders) Create(ctx context.Context, rem plant.Reminder) (plant.Reminder, error) {
	err := r.write(ctx, func(st *memoryState) error {
		if _, ok := st.plants[rem.PlantID]; !ok {
			return fmt.Errorf("create reminder for plant %d: %w", rem.PlantID, ErrPlantMissing)
		}
		if rem.Type == plant.ReminderWatering && rem.Open() {
			if _, exists := openWatering(st, rem.PlantID); exists {
				return fmt.Errorf("create reminder for plant %d: %w", rem.PlantID, ErrOpenWateringExists)
			}
		}
		rem.ID = st.nextReminderID
		st.nextReminderID++
		rem.Plant = nil
		st.reminders[rem.ID] = rem
		return nil
	})
	return rem, err
}

func (r memoryReminders) Get(ctx context.Context, id int64) (plant.Reminder, bool, error) {
	var (
		rem   plant.Reminder
		found bool
	)
	err := r.read(ctx, func(st *memoryState) {
		rem, found = st.reminders[id]
	})
	return rem, found, err
}

func (r memoryReminders) OpenWatering(ctx context.Context, plantID int64) (plant.Reminder, bool, error) {
	var (
		rem   plant.Reminder
		found bool
	)
	err := r.read(ctx, func(st *memoryState) {
		rem, found = openWatering(st, plantID)
	})
	return rem, found, err
}

func openWatering(st *memoryState, plantID int64) (plant.Reminder, bool) {
	var (
		best  plant.Reminder
		found bool
	)
	for _, rem := range st.reminders {
		if rem.PlantID != plantID || rem.Type != plant.ReminderWatering || !rem.Open() {
			continue
		}
		if !found || rem.ID < best.ID {
			best = rem
			found = true
		}
	}
	return best, found
}

func (r memoryReminders) UpdateDueDate(ctx context.Context, id int64, due time.Time) error {
	return r.write(ctx, func(st *memoryState) error {
		if rem, ok := st.reminders[id]; ok {
			rem.DueDate = due
			st.reminders[id] = rem
		}
		return nil
	})
}

func (r memoryReminders) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	return r.write(ctx, func(st *memoryState) error {
		if rem, ok := st.reminders[id]; ok {
			completed := at
			rem.CompletedAt = &completed
			st.reminders[id] = rem
		}
		return nil
	})
}

func (r memoryReminders) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *memoryState) error {
		delete(st.reminders, id)
		return nil
	})
}

func (r memoryReminders) ListByPlant(ctx context.Context, plantID int64) ([]plant.Reminder, error) {
	var out []plant.Reminder
	err := r.read(ctx, func(st *memoryState) {
		for _, rem := range st.reminders {
			if rem.PlantID == plantID {
				out = append(out, rem)
			}
		}
	})
	sortByDue(out)
	return out, err
}

func (r memoryReminders) Due(ctx context.Context, ownerID string, through time.Time) ([]plant.Reminder, error) {
	var out []plant.Reminder
	err := r.read(ctx, func(st *memoryState) {
		for _, rem := range st.reminders {
			if !rem.Open() || rem.DueDate.After(through) {
				continue
			}
			p, ok := st.plants[rem.PlantID]
			if !ok || p.OwnerID != ownerID {
				continue
			}
			attached := p
			rem.Plant = &attached
			out = append(out, rem)
		}
	})
	sortByDue(out)
	return out, err
}

func sortByDue(reminders []plant.Reminder) {
	sort.Slice(reminders, func(i, j int) bool {
		if !reminders[i].DueDate.Equal(reminders[j].DueDate) {
			return reminders[i].DueDate.Before(reminders[j].DueDate)
		}
		return reminders[i].ID < reminders[j].ID
	})
}

type memoryEvents struct{ memoryRepos }

func (r memoryEvents) Append(ctx context.Context, evt timeline.Event) (timeline.Event, error) {
	err := r.write(ctx, func(st *memoryState) error {
		return appendEvent(st, &evt)
	})
	return evt, err
}

func appendEvent(st *memoryState, evt *timeline.Event) error {
	if _, ok := st.plants[evt.PlantID]; !ok {
		return fmt.Errorf("append event for plant %d: %w", evt.PlantID, ErrPlantMissing)
	}
	evt.ID = st.nextEventID
	st.nextEventID++
	evt.Photo = nil
	st.events[evt.ID] = *evt
	return nil
}

func (r memoryEvents) ListByPlant(ctx context.Context, plantID int64) ([]timeline.Event, error) {
	return r.list(ctx, func(id int64) bool { return id == plantID })
}

func (r memoryEvents) ListByPlants(ctx context.Context, plantIDs []int64) ([]timeline.Event, error) {
	wanted := make(map[int64]struct{}, len(plantIDs))
	for _, id := range plantIDs {
		wanted[id] = struct{}{}
	}
	return r.list(ctx, func(id int64) bool {
		_, ok := wanted[id]
		return ok
	})
}

func (r memoryEvents) list(ctx context.Context, match func(plantID int64) bool) ([]timeline.Event, error) {
	var out []timeline.Event
	err := r.read(ctx, func(st *memoryState) {
		for _, evt := range st.events {
			if !match(evt.PlantID) {
				continue
			}
			if evt.PhotoID != nil {
				if photo, ok := st.photos[*evt.PhotoID]; ok {
					joined := photo
					evt.Photo = &joined
				}
			}
			out = append(out, evt)
		}
	})
	sort.Slice(out, func(i, j int) bool { return timeline.Less(out[i], out[j]) })
	return out, err
}

type memoryPhotos struct{ memoryRepos }

func (r memoryPhotos) CreateWithEvent(ctx context.Context, photo timeline.Photo, evt timeline.Event) (timeline.Photo, timeline.Event, error) {
	err := r.write(ctx, func(st *memoryState) error {
		if _, ok := st.plants[photo.PlantID]; !ok {
			return fmt.Errorf("create photo for plant %d: %w", photo.PlantID, ErrPlantMissing)
		}
		photo.ID = st.nextPhotoID
		st.nextPhotoID++
		st.photos[photo.ID] = photo

		photoID := photo.ID
		evt.PlantID = photo.PlantID
		evt.PhotoID = &photoID
		if err := appendEvent(st, &evt); err != nil {
			delete(st.photos, photo.ID)
			return err
		}
		return nil
	})
	return photo, evt, err
}

func (r memoryPhotos) Get(ctx context.Context, id int64) (timeline.Photo, bool, error) {
	var (
		photo timeline.Photo
		found bool
	)
	err := r.read(ctx, func(st *memoryState) {
		photo, found = st.photos[id]
	})
	return photo, found, err
}

func (r memoryPhotos) ListByPlant(ctx context.Context, plantID int64) ([]timeline.Photo, error) {
	var out []timeline.Photo
	err := r.read(ctx, func(st *memoryState) {
		for _, photo := range st.photos {
			if photo.PlantID == plantID {
				out = append(out, photo)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r memoryPhotos) DeleteWithEvents(ctx context.Context, id int64) (timeline.Photo, bool, error) {
	var (
		photo timeline.Photo
		found bool
	)
	err := r.write(ctx, func(st *memoryState) error {
		photo, found = st.photos[id]
		if !found {
			return nil
		}
		for eid, evt := range st.events {
			if evt.PhotoID != nil && *evt.PhotoID == id {
				delete(st.events, eid)
			}
		}
		delete(st.photos, id)
		return nil
	})
	return photo, found, err
}

var (
	_ plant.Store              = (*MemoryStore)(nil)
	_ plant.Repos              = memoryRepos{}
	_ timeline.PlantChecker    = memoryPlants{}
	_ timeline.EventRepository = memoryEvents{}
	_ timeline.PhotoRepository = memoryPhotos{}
)
