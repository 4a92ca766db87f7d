package timeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
	"github.com/yanqian/plant-care/pkg/util"
)

const maxNoteLen = 2048

// Service exposes the per-plant history.
type Service interface {
	List(ctx context.Context, plantID int64) ([]Event, error)
	Latest(ctx context.Context, plantIDs []int64) (map[int64]Event, error)
	AddNote(ctx context.Context, plantID int64, note string) (Event, error)
	AddPhoto(ctx context.Context, plantID int64, upload Upload, note string) (Event, error)
	Photo(ctx context.Context, photoID int64) (Photo, bool, error)
	DeletePhoto(ctx context.Context, photoID int64) error
}

type service struct {
	events   EventRepository
	photos   PhotoRepository
	plants   PlantChecker
	storage  ImageStorage
	analyzer PhotoAnalyzer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the timeline domain.
func NewService(events EventRepository, photos PhotoRepository, plants PlantChecker, storage ImageStorage, analyzer PhotoAnalyzer, logger *slog.Logger) Service {
	return &service{
		events:   events,
		photos:   photos,
		plants:   plants,
		storage:  storage,
		analyzer: analyzer,
		logger:   logger.With("component", "timeline.service"),
		now:      util.NowUTC,
	}
}

func (s *service) List(ctx context.Context, plantID int64) ([]Event, error) {
	events, err := s.events.ListByPlant(ctx, plantID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load timeline", err)
	}
	return events, nil
}

func (s *service) Latest(ctx context.Context, plantIDs []int64) (map[int64]Event, error) {
	ids := dedupe(plantIDs)
	if len(ids) == 0 {
		return map[int64]Event{}, nil
	}
	events, err := s.events.ListByPlants(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load latest events", err)
	}
	return LatestByPlant(events), nil
}

func (s *service) AddNote(ctx context.Context, plantID int64, note string) (Event, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "note cannot be empty", nil)
	}
	if len(note) > maxNoteLen {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "note is too long", nil)
	}
	if err := s.ensurePlant(ctx, plantID); err != nil {
		return Event{}, err
	}
	evt, err := s.events.Append(ctx, newNoteEvent(plantID, note, s.now()))
	if errors.Is(err, ErrPlantMissing) {
		return Event{}, apperrors.Wrap(apperrors.CodeNotFound, "plant not found", err)
	}
	if err != nil {
		return Event{}, apperrors.Wrap(apperrors.CodeStorage, "failed to save note", err)
	}
	return evt, nil
}

func (s *service) AddPhoto(ctx context.Context, plantID int64, upload Upload, note string) (Event, error) {
	if len(upload.Data) == 0 {
		return Event{}, apperrors.Wrap(apperrors.CodeInvalidInput, "photo cannot be empty", nil)
	}
	if err := s.ensurePlant(ctx, plantID); err != nil {
		return Event{}, err
	}

	path, err := s.storage.Put(ctx, upload)
	if err != nil {
		return Event{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store photo", err)
	}

	now := s.now()
	photo := Photo{
		PlantID:         plantID,
		FilePath:        path,
		TakenAt:         now,
		AnalysisSummary: strings.TrimSpace(note),
	}
	analyzed, err := s.analyzer.Analyze(ctx, photo)
	if err != nil {
		s.logger.Warn("photo analysis failed", "plant_id", plantID, "error", err)
	} else {
		photo = analyzed
	}

	saved, evt, err := s.photos.CreateWithEvent(ctx, photo, newPhotoEvent(photo, now))
	if err != nil {
		s.removeFile(ctx, path)
		if errors.Is(err, ErrPlantMissing) {
			return Event{}, apperrors.Wrap(apperrors.CodeNotFound, "plant not found", err)
		}
		return Event{}, apperrors.Wrap(apperrors.CodeStorage, "failed to save photo", err)
	}
	evt.Photo = &saved
	s.logger.Info("photo added", "plant_id", plantID, "photo_id", saved.ID)
	return evt, nil
}

func (s *service) Photo(ctx context.Context, photoID int64) (Photo, bool, error) {
	photo, found, err := s.photos.Get(ctx, photoID)
	if err != nil {
		return Photo{}, false, apperrors.Wrap(apperrors.CodeStorage, "failed to load photo", err)
	}
	return photo, found, nil
}

func (s *service) DeletePhoto(ctx context.Context, photoID int64) error {
	photo, found, err := s.photos.DeleteWithEvents(ctx, photoID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to delete photo", err)
	}
	if !found {
		return nil
	}
	s.removeFile(ctx, photo.FilePath)
	s.logger.Info("photo deleted", "plant_id", photo.PlantID, "photo_id", photoID)
	return nil
}

func (s *service) ensurePlant(ctx context.Context, plantID int64) error {
	exists, err := s.plants.Exists(ctx, plantID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to load plant", err)
	}
	if !exists {
		return apperrors.Wrap(apperrors.CodeNotFound, "plant not found", nil)
	}
	return nil
}

// removeFile is best effort; a dangling object never blocks the metadata change.
func (s *service) removeFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.storage.Delete(ctx, path); err != nil {
		s.logger.Warn("remove stored photo failed", "path", path, "error", err)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
