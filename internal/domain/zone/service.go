package zone

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

// Store persists the whole zone catalog as one document. Load reports
// ok=false when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (zones []Zone, ok bool, err error)
	Save(ctx context.Context, zones []Zone) error
}

// Service manages the home zone catalog.
type Service interface {
	List(ctx context.Context) ([]Zone, error)
	Add(ctx context.Context, in Input) (Zone, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (Zone, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store    Store
	defaults []Seed
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes read-modify-write cycles against the store.
	mu sync.Mutex
}

// NewService wires the zone domain. defaults seed an empty catalog.
func NewService(store Store, defaults []Seed, logger *slog.Logger) Service {
	return &service{
		store:    store,
		defaults: defaults,
		logger:   logger.With("component", "zone.service"),
		now:      time.Now,
	}
}

func (s *service) List(ctx context.Context) ([]Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	zones, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(zones, func(i, j int) bool {
		return strings.ToLower(zones[i].Name) < strings.ToLower(zones[j].Name)
	})
	return zones, nil
}

func (s *service) Add(ctx context.Context, in Input) (Zone, error) {
	if err := in.Validate(); err != nil {
		return Zone{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	zones, err := s.load(ctx)
	if err != nil {
		return Zone{}, err
	}
	for _, z := range zones {
		if strings.EqualFold(z.Name, in.Name) {
			return z, nil
		}
	}
	created := Zone{
		ID:        uuid.New(),
		Name:      in.Name,
		AreaType:  in.AreaType,
		Notes:     in.Notes,
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, append(zones, created)); err != nil {
		return Zone{}, err
	}
	s.logger.Info("zone added", "zone_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in Input) (Zone, error) {
	if err := in.Validate(); err != nil {
		return Zone{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	zones, err := s.load(ctx)
	if err != nil {
		return Zone{}, err
	}
	for i := range zones {
		if zones[i].ID != id {
			continue
		}
		zones[i].Name = in.Name
		zones[i].AreaType = in.AreaType
		zones[i].Notes = in.Notes
		if err := s.save(ctx, zones); err != nil {
			return Zone{}, err
		}
		return zones[i], nil
	}
	return Zone{}, apperrors.Wrap(apperrors.CodeNotFound, "zone not found", nil)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	zones, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := zones[:0]
	for _, z := range zones {
		if z.ID != id {
			kept = append(kept, z)
		}
	}
	if len(kept) == len(zones) {
		return nil
	}
	return s.save(ctx, kept)
}

// load returns the catalog, seeding defaults the first time it is read.
func (s *service) load(ctx context.Context) ([]Zone, error) {
	zones, ok, err := s.store.Load(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load zones", err)
	}
	if ok {
		return zones, nil
	}
	now := s.now().UTC()
	seeded := make([]Zone, 0, len(s.defaults))
	for _, d := range s.defaults {
		seeded = append(seeded, Zone{ID: uuid.New(), Name: d.Name, AreaType: d.AreaType, CreatedAt: now})
	}
	if err := s.save(ctx, seeded); err != nil {
		return nil, err
	}
	s.logger.Info("zone catalog seeded", "count", len(seeded))
	return seeded, nil
}

func (s *service) save(ctx context.Context, zones []Zone) error {
	if err := s.store.Save(ctx, zones); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to save zones", err)
	}
	return nil
}
