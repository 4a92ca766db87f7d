package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/auth"
	"github.com/yanqian/plant-care/internal/domain/insight"
	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
	"github.com/yanqian/plant-care/internal/domain/zone"
	"github.com/yanqian/plant-care/internal/infra/config"
	"github.com/yanqian/plant-care/internal/infra/imagestore"
	"github.com/yanqian/plant-care/internal/infra/photoanalysis"
	"github.com/yanqian/plant-care/internal/infra/plantrepo"
	"github.com/yanqian/plant-care/internal/infra/zonestore"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestRouter_CreateAndListPlants(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodPost, "/api/v1/plants", `{"name":"Monstera","species":"Monstera deliciosa","isIndoors":true,"wateringFrequencyDays":5}`, "", server)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created plant.Plant
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.NotNil(t, created.NextWateringDate)

	recorder = performRequest(http.MethodGet, "/api/v1/plants", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed struct {
		Plants []plant.Plant `json:"plants"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed.Plants, 1)

	recorder = performRequest(http.MethodGet, "/api/v1/reminders/due?through=2999-01-01", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var due struct {
		Reminders []plant.Reminder `json:"reminders"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &due))
	require.Len(t, due.Reminders, 1)
	require.Equal(t, plant.ReminderWatering, due.Reminders[0].Type)
}

func TestRouter_CreatePlantInvalidJSON(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodPost, "/api/v1/plants", `{"name":123}`, "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_CreatePlantInvalidInput(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodPost, "/api/v1/plants", `{"name":"  "}`, "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, apperrors.CodeInvalidInput, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_UnknownPlantIsNotFound(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodGet, "/api/v1/plants/42", "", "", server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, apperrors.CodeNotFound, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodGet, "/api/v1/plants/abc", "", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_CompleteReminderLogsWatering(t *testing.T) {
	server, f := newRouterUnderTest(t, routerOptions{})
	p := f.createPlant(t, "")
	reminders, err := f.plants.ListReminders(context.Background(), "", p.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)

	recorder := performRequest(http.MethodPost, "/api/v1/reminders/"+itoa(reminders[0].ID)+"/complete", "", "", server)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/plants/"+itoa(p.ID)+"/timeline", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Events []timeline.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, timeline.KindWatering, body.Events[0].Kind)

	recorder = performRequest(http.MethodPost, "/api/v1/reminders/999/complete", "", "", server)
	require.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestRouter_WeatherUnavailable(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{
		weatherErr: apperrors.Wrap(apperrors.CodeWeatherUnavailable, "Weather data is unavailable right now. Please try again later.", nil),
	})

	recorder := performRequest(http.MethodGet, "/api/v1/weather?lat=40.4&lon=-3.7", "", "", server)
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeWeatherUnavailable, errBody["error"]["code"])
	require.Equal(t, "Weather data is unavailable right now. Please try again later.", errBody["error"]["message"])

	recorder = performRequest(http.MethodGet, "/api/v1/weather?lat=north", "", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_WeatherSuccess(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodGet, "/api/v1/weather?lat=40.4&lon=-3.7&label=Madrid", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var report weather.Report
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	require.Equal(t, "Madrid", report.LocationLabel)
	require.Equal(t, 24.0, report.Current.TemperatureC)
}

func TestRouter_PhotoUploadServeAndDelete(t *testing.T) {
	server, f := newRouterUnderTest(t, routerOptions{})
	p := f.createPlant(t, "")

	recorder := performUpload(t, "/api/v1/plants/"+itoa(p.ID)+"/photos", "leaf.png", "image/png", pngHeader, server)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var event timeline.Event
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &event))
	require.Equal(t, timeline.KindPhoto, event.Kind)
	require.NotNil(t, event.PhotoID)
	require.Equal(t, 1, f.images.Len())

	recorder = performRequest(http.MethodGet, "/api/v1/photos/"+itoa(*event.PhotoID), "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "image/png", recorder.Header().Get("Content-Type"))
	require.Equal(t, pngHeader, recorder.Body.Bytes())

	recorder = performRequest(http.MethodDelete, "/api/v1/photos/"+itoa(*event.PhotoID), "", "", server)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Zero(t, f.images.Len())
}

func TestRouter_PhotoUploadRejectsUnsupportedType(t *testing.T) {
	server, f := newRouterUnderTest(t, routerOptions{})
	p := f.createPlant(t, "")

	recorder := performUpload(t, "/api/v1/plants/"+itoa(p.ID)+"/photos", "notes.txt", "text/plain", []byte("hello"), server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Zero(t, f.images.Len())
}

func TestRouter_InsightsReport(t *testing.T) {
	server, f := newRouterUnderTest(t, routerOptions{})
	p := f.createPlant(t, "")

	recorder := performRequest(http.MethodGet, "/api/v1/plants/"+itoa(p.ID)+"/insights", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var report insight.Report
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	require.NotEmpty(t, report.Insights)
	require.NotEmpty(t, report.Recommendations)
}

func TestRouter_ZonesSeededAndDeduped(t *testing.T) {
	server, _ := newRouterUnderTest(t, routerOptions{})

	recorder := performRequest(http.MethodPost, "/api/v1/zones", `{"name":"kitchen"}`, "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var existing zone.Zone
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &existing))
	require.Equal(t, "Kitchen", existing.Name)

	recorder = performRequest(http.MethodGet, "/api/v1/zones", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Zones []zone.Zone `json:"zones"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Zones, 2)

	recorder = performRequest(http.MethodDelete, "/api/v1/zones/not-a-uuid", "", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_AuthScopesPlantsToOwner(t *testing.T) {
	server, f := newRouterUnderTest(t, routerOptions{secret: "test-secret"})
	alice, err := f.auth.IssueToken(context.Background(), "alice")
	require.NoError(t, err)
	bob, err := f.auth.IssueToken(context.Background(), "bob")
	require.NoError(t, err)

	recorder := performRequest(http.MethodGet, "/api/v1/plants", "", "", server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/plants", "", "garbage", server)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, apperrors.CodeInvalidToken, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodPost, "/api/v1/plants", `{"name":"Fern","species":"Nephrolepis exaltata"}`, alice.Token, server)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created plant.Plant
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	recorder = performRequest(http.MethodGet, "/api/v1/plants/"+itoa(created.ID), "", bob.Token, server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	recorder = performRequest(http.MethodGet, "/api/v1/plants/"+itoa(created.ID)+"/timeline", "", bob.Token, server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	recorder = performRequest(http.MethodGet, "/api/v1/plants/"+itoa(created.ID), "", alice.Token, server)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = performRequest(http.MethodGet, "/healthz", "", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

type routerOptions struct {
	secret     string
	weatherErr error
}

type routerFixture struct {
	plants plant.Service
	images *imagestore.MemoryStorage
	auth   auth.Service
}

func (f routerFixture) createPlant(t *testing.T, owner string) plant.Plant {
	t.Helper()
	freq := 7
	p, err := f.plants.Create(context.Background(), owner, plant.Input{Name: "Pothos", Species: "Epipremnum aureum", WateringFrequencyDays: &freq})
	require.NoError(t, err)
	return p
}

type stubWeather struct {
	err error
}

func (s stubWeather) CurrentWeather(_ context.Context, q weather.Query) (weather.Report, error) {
	if s.err != nil {
		return weather.Report{}, s.err
	}
	return weather.Report{
		LocationLabel: q.Label,
		Current:       weather.Snapshot{TemperatureC: 24, Humidity: 50, Conditions: "Clear"},
		Daily:         []weather.DailyForecast{},
		Source:        "stub",
	}, nil
}

func newRouterUnderTest(t *testing.T, opts routerOptions) (*http.Server, routerFixture) {
	t.Helper()
	logger := newTestLogger()
	store := plantrepo.NewMemoryStore()
	images := imagestore.NewMemoryStorage()

	plantSvc := plant.NewService(store, images, logger)
	timelineSvc := timeline.NewService(store.Events(), store.Photos(), store.Plants(), images, photoanalysis.NewStub(), logger)
	weatherSvc := stubWeather{err: opts.weatherErr}
	insightSvc := insight.NewService(plantSvc, timelineSvc, weatherSvc, logger)
	zoneSvc := zone.NewService(zonestore.NewMemoryStore(), []zone.Seed{{Name: "Kitchen", AreaType: "Indoor"}, {Name: "Patio", AreaType: "Outdoor"}}, logger)
	authSvc := auth.NewService(auth.Config{Secret: opts.secret, TokenTTL: time.Hour}, logger)

	handler := NewHandler(plantSvc, timelineSvc, insightSvc, weatherSvc, zoneSvc, images, imagestore.DefaultMaxBytes, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, handler, authSvc), routerFixture{plants: plantSvc, images: images, auth: authSvc}
}

func performRequest(method, path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func performUpload(t *testing.T, path, filename, contentType string, data []byte, server *http.Server) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("note", "new leaf"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
