package plant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/plant-care/internal/domain/timeline"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
	"github.com/yanqian/plant-care/pkg/util"
)

const maxReminderNotesLen = 512

// Service exposes plant records and the watering reminder lifecycle.
type Service interface {
	Create(ctx context.Context, ownerID string, in Input) (Plant, error)
	Update(ctx context.Context, ownerID string, id int64, in Input) (Plant, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	Get(ctx context.Context, ownerID string, id int64) (Plant, error)
	List(ctx context.Context, ownerID string) ([]Plant, error)

	ReconcileWateringReminder(ctx context.Context, plantID int64) error
	CompleteReminder(ctx context.Context, ownerID string, reminderID int64) error
	DueReminders(ctx context.Context, ownerID string, reference time.Time) ([]Reminder, error)
	ScheduleReminder(ctx context.Context, ownerID string, plantID int64, reminderType ReminderType, due time.Time, notes string) (Reminder, error)
	ListReminders(ctx context.Context, ownerID string, plantID int64) ([]Reminder, error)
}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	store  Store
	images timeline.ImageStorage
	locks  *plantLocks
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires up the plant domain.
func NewService(store Store, images timeline.ImageStorage, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		store:  store,
		images: images,
		locks:  &plantLocks{},
		logger: logger.With("component", "plant.service"),
		now:    util.NowUTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, ownerID string, in Input) (Plant, error) {
	if err := in.Validate(); err != nil {
		return Plant{}, err
	}

	now := s.now()
	p := Plant{OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	p.NextWateringDate = ComputeNextWatering(p.LastWateredAt, p.WateringFrequencyDays, now)

	var created Plant
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		saved, err := tx.Plants().Create(ctx, p)
		if err != nil {
			return err
		}
		if err := s.reconcile(ctx, tx, saved, now); err != nil {
			return err
		}
		if _, err := tx.Events().Append(ctx, timeline.NewCreatedEvent(saved.ID, now)); err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		return Plant{}, storageError("failed to create plant", err)
	}
	s.logger.Info("plant created", "plant_id", created.ID, "owner_id", ownerID)
	return created, nil
}

func (s *service) Update(ctx context.Context, ownerID string, id int64, in Input) (Plant, error) {
	if err := in.Validate(); err != nil {
		return Plant{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	now := s.now()
	var (
		updated Plant
		summary string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		original, found, err := tx.Plants().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !found || original.OwnerID != ownerID {
			return apperrors.Wrap(apperrors.CodeNotFound, "plant not found", nil)
		}

		next := original
		in.apply(&next)
		next.UpdatedAt = now
		next.NextWateringDate = ComputeNextWatering(next.LastWateredAt, next.WateringFrequencyDays, now)
		summary = Diff(original, next)

		saved, err := tx.Plants().Update(ctx, next)
		if err != nil {
			return err
		}
		if err := s.reconcile(ctx, tx, saved, now); err != nil {
			return err
		}
		if evt, ok := timeline.NewUpdatedEvent(saved.ID, summary, now); ok {
			if _, err := tx.Events().Append(ctx, evt); err != nil {
				return err
			}
		}
		updated = saved
		return nil
	})
	if err != nil {
		return Plant{}, storageError("failed to update plant", err)
	}
	s.logger.Info("plant updated", "plant_id", id, "changes", summary)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()

	var photos []timeline.Photo
	deleted := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		p, found, err := tx.Plants().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !found || p.OwnerID != ownerID {
			return nil
		}
		photos, err = tx.Photos().ListByPlant(ctx, id)
		if err != nil {
			return err
		}
		deleted, err = tx.Plants().Delete(ctx, id)
		return err
	})
	if err != nil {
		return storageError("failed to delete plant", err)
	}
	if !deleted {
		return nil
	}
	for _, photo := range photos {
		if err := s.images.Delete(ctx, photo.FilePath); err != nil {
			s.logger.Warn("remove stored photo failed", "plant_id", id, "path", photo.FilePath, "error", err)
		}
	}
	s.logger.Info("plant deleted", "plant_id", id, "photos", len(photos))
	return nil
}

func (s *service) Get(ctx context.Context, ownerID string, id int64) (Plant, error) {
	p, found, err := s.store.Plants().Get(ctx, id)
	if err != nil {
		return Plant{}, storageError("failed to load plant", err)
	}
	if !found || p.OwnerID != ownerID {
		return Plant{}, apperrors.Wrap(apperrors.CodeNotFound, "plant not found", nil)
	}
	return p, nil
}

func (s *service) List(ctx context.Context, ownerID string) ([]Plant, error) {
	plants, err := s.store.Plants().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageError("failed to list plants", err)
	}
	return plants, nil
}

func (s *service) ReconcileWateringReminder(ctx context.Context, plantID int64) error {
	unlock := s.locks.lock(plantID)
	defer unlock()

	now := s.now()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		p, found, err := tx.Plants().GetForUpdate(ctx, plantID)
		if err != nil || !found {
			return err
		}
		return s.reconcile(ctx, tx, p, now)
	})
	if err != nil {
		return storageError("failed to reconcile reminder", err)
	}
	return nil
}

// reconcile keeps exactly one open watering reminder for a plant with a
// watering frequency and none otherwise. Callers hold the plant lock.
func (s *service) reconcile(ctx context.Context, tx Repos, p Plant, now time.Time) error {
	open, hasOpen, err := tx.Reminders().OpenWatering(ctx, p.ID)
	if err != nil {
		return err
	}

	due, tracked := wateringDueDate(p, now)
	if !tracked {
		if hasOpen {
			s.logger.Debug("watering reminder removed", "plant_id", p.ID, "reminder_id", open.ID)
			return tx.Reminders().Delete(ctx, open.ID)
		}
		return nil
	}

	if hasOpen {
		if open.DueDate.Equal(due) {
			return nil
		}
		return tx.Reminders().UpdateDueDate(ctx, open.ID, due)
	}

	if _, err := tx.Reminders().Create(ctx, Reminder{PlantID: p.ID, Type: ReminderWatering, DueDate: due}); err != nil {
		return err
	}
	_, err = tx.Events().Append(ctx, timeline.NewReminderScheduledEvent(p.ID, due, now))
	return err
}

func (s *service) CompleteReminder(ctx context.Context, ownerID string, reminderID int64) error {
	reminder, found, err := s.store.Reminders().Get(ctx, reminderID)
	if err != nil {
		return storageError("failed to load reminder", err)
	}
	if !found {
		return nil
	}

	unlock := s.locks.lock(reminder.PlantID)
	defer unlock()

	now := s.now()
	watered := false
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Repos) error {
		r, found, err := tx.Reminders().Get(ctx, reminderID)
		if err != nil {
			return err
		}
		if !found || !r.Open() {
			return nil
		}
		p, plantFound, err := tx.Plants().GetForUpdate(ctx, r.PlantID)
		if err != nil {
			return err
		}
		if plantFound && p.OwnerID != ownerID {
			return nil
		}
		if err := tx.Reminders().MarkCompleted(ctx, r.ID, now); err != nil {
			return err
		}
		if r.Type != ReminderWatering || !plantFound {
			return nil
		}

		completedAt := now
		p.LastWateredAt = &completedAt
		p.NextWateringDate = ComputeNextWatering(p.LastWateredAt, p.WateringFrequencyDays, now)
		p.UpdatedAt = now
		saved, err := tx.Plants().Update(ctx, p)
		if err != nil {
			return err
		}
		if err := s.reconcile(ctx, tx, saved, now); err != nil {
			return err
		}
		if _, err := tx.Events().Append(ctx, timeline.NewWateringEvent(saved.ID, saved.Name, now, "")); err != nil {
			return err
		}
		watered = true
		return nil
	})
	if err != nil {
		return storageError("failed to complete reminder", err)
	}
	s.logger.Info("reminder completed", "reminder_id", reminderID, "plant_id", reminder.PlantID, "watered", watered)
	return nil
}

func (s *service) DueReminders(ctx context.Context, ownerID string, reference time.Time) ([]Reminder, error) {
	reminders, err := s.store.Reminders().Due(ctx, ownerID, util.DateOf(reference))
	if err != nil {
		return nil, storageError("failed to load due reminders", err)
	}
	return reminders, nil
}

func (s *service) ScheduleReminder(ctx context.Context, ownerID string, plantID int64, reminderType ReminderType, due time.Time, notes string) (Reminder, error) {
	if !reminderType.Valid() {
		return Reminder{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown reminder type", nil)
	}
	if reminderType == ReminderWatering {
		return Reminder{}, apperrors.Wrap(apperrors.CodeInvalidInput, "watering reminders follow the plant's watering frequency", nil)
	}
	if due.IsZero() {
		return Reminder{}, apperrors.Wrap(apperrors.CodeInvalidInput, "due date is required", nil)
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > maxReminderNotesLen {
		return Reminder{}, apperrors.Wrap(apperrors.CodeInvalidInput, "notes are too long", nil)
	}
	if _, err := s.Get(ctx, ownerID, plantID); err != nil {
		return Reminder{}, err
	}

	created, err := s.store.Reminders().Create(ctx, Reminder{
		PlantID: plantID,
		Type:    reminderType,
		DueDate: util.DateOf(due),
		Notes:   notes,
	})
	if err != nil {
		return Reminder{}, storageError("failed to schedule reminder", err)
	}
	s.logger.Info("reminder scheduled", "plant_id", plantID, "reminder_id", created.ID, "type", reminderType)
	return created, nil
}

func (s *service) ListReminders(ctx context.Context, ownerID string, plantID int64) ([]Reminder, error) {
	if _, err := s.Get(ctx, ownerID, plantID); err != nil {
		return nil, err
	}
	reminders, err := s.store.Reminders().ListByPlant(ctx, plantID)
	if err != nil {
		return nil, storageError("failed to list reminders", err)
	}
	return reminders, nil
}

func storageError(message string, err error) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStorage, message, err)
}
