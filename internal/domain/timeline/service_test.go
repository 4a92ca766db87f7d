package timeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/infra/imagestore"
	"github.com/yanqian/plant-care/internal/infra/photoanalysis"
	"github.com/yanqian/plant-care/internal/infra/plantrepo"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0}

type fixture struct {
	svc    timeline.Service
	store  *plantrepo.MemoryStore
	images *imagestore.MemoryStorage
	plant  plant.Plant
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := plantrepo.NewMemoryStore()
	images := imagestore.NewMemoryStorage()
	p, err := store.Plants().Create(context.Background(), plant.Plant{Name: "Ficus", Species: "Ficus lyrata", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	svc := timeline.NewService(store.Events(), store.Photos(), store.Plants(), images, photoanalysis.NewStub(), newTestLogger())
	return fixture{svc: svc, store: store, images: images, plant: p}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddNoteAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddNote(ctx, f.plant.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, f.plant.ID, "second")
	require.NoError(t, err)

	events, err := f.svc.List(ctx, f.plant.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "second", events[0].Description)
	require.Equal(t, timeline.KindNote, events[0].Kind)
	require.Equal(t, "pencil", events[0].Icon)
}

func TestAddNoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddNote(ctx, f.plant.ID, "   ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = f.svc.AddNote(ctx, 404, "hello")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAddPhotoStoresAnalyzesAndLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	evt, err := f.svc.AddPhoto(ctx, f.plant.ID, timeline.Upload{ContentType: "image/jpeg", Data: jpeg}, "")
	require.NoError(t, err)
	require.Equal(t, timeline.KindPhoto, evt.Kind)
	require.NotNil(t, evt.PhotoID)
	require.NotNil(t, evt.Photo)
	require.NotNil(t, evt.Photo.HealthScore)
	require.InDelta(t, 0.8, *evt.Photo.HealthScore, 1e-9)
	require.Equal(t, "Analysis pending.", evt.Description)
	require.Equal(t, 1, f.images.Len())

	events, err := f.svc.List(ctx, f.plant.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Photo)
	require.Equal(t, evt.Photo.FilePath, events[0].Photo.FilePath)
}

func TestAddPhotoForMissingPlantStoresNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddPhoto(context.Background(), 404, timeline.Upload{ContentType: "image/jpeg", Data: jpeg}, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Equal(t, 0, f.images.Len())
}

type failingPhotos struct {
	timeline.PhotoRepository
}

func (failingPhotos) CreateWithEvent(context.Context, timeline.Photo, timeline.Event) (timeline.Photo, timeline.Event, error) {
	return timeline.Photo{}, timeline.Event{}, errors.New("db down")
}

func TestAddPhotoRemovesFileWhenPersistFails(t *testing.T) {
	f := newFixture(t)
	svc := timeline.NewService(f.store.Events(), failingPhotos{f.store.Photos()}, f.store.Plants(), f.images, photoanalysis.NewStub(), newTestLogger())

	_, err := svc.AddPhoto(context.Background(), f.plant.ID, timeline.Upload{ContentType: "image/jpeg", Data: jpeg}, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Equal(t, 0, f.images.Len())
}

// stalePlants reports every plant as present, as if it were deleted right after the check.
type stalePlants struct{}

func (stalePlants) Exists(context.Context, int64) (bool, error) { return true, nil }

func TestAppendForDeletedPlantIsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := timeline.NewService(f.store.Events(), f.store.Photos(), stalePlants{}, f.images, photoanalysis.NewStub(), newTestLogger())
	ctx := context.Background()

	_, err := svc.AddNote(ctx, 404, "hello")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.ErrorIs(t, err, timeline.ErrPlantMissing)

	_, err = svc.AddPhoto(ctx, 404, timeline.Upload{ContentType: "image/jpeg", Data: jpeg}, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Equal(t, 0, f.images.Len())
}

func TestDeletePhotoRemovesBothReferencingEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	evt, err := f.svc.AddPhoto(ctx, f.plant.ID, timeline.Upload{ContentType: "image/jpeg", Data: jpeg}, "new leaves")
	require.NoError(t, err)
	photoID := *evt.PhotoID
	_, err = f.store.Events().Append(ctx, timeline.Event{PlantID: f.plant.ID, Kind: timeline.KindNote, Title: "Follow-up", CreatedAt: time.Now().UTC(), PhotoID: &photoID})
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, f.plant.ID, "unrelated")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePhoto(ctx, photoID))

	events, err := f.svc.List(ctx, f.plant.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	for _, e := range events {
		require.Nil(t, e.PhotoID)
	}
	_, found, err := f.svc.Photo(ctx, photoID)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 0, f.images.Len())

	require.NoError(t, f.svc.DeletePhoto(ctx, photoID))
}

func TestLatestPerPlant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.store.Plants().Create(ctx, plant.Plant{Name: "Aloe", Species: "Aloe vera"})
	require.NoError(t, err)

	_, err = f.svc.AddNote(ctx, f.plant.ID, "old")
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, other.ID, "aloe")
	require.NoError(t, err)
	_, err = f.svc.AddNote(ctx, f.plant.ID, "new")
	require.NoError(t, err)

	latest, err := f.svc.Latest(ctx, []int64{f.plant.ID, other.ID, f.plant.ID, 999})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "new", latest[f.plant.ID].Description)
	require.Equal(t, "aloe", latest[other.ID].Description)

	empty, err := f.svc.Latest(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
