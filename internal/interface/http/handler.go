package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/plant-care/internal/domain/insight"
	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
	"github.com/yanqian/plant-care/internal/domain/zone"
	"github.com/yanqian/plant-care/internal/infra/imagestore"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	plantSvc    plant.Service
	timelineSvc timeline.Service
	insightSvc  insight.Service
	weatherSvc  weather.Service
	zoneSvc     zone.Service
	images      imagestore.Store
	maxUpload   int64
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	plantSvc plant.Service,
	timelineSvc timeline.Service,
	insightSvc insight.Service,
	weatherSvc weather.Service,
	zoneSvc zone.Service,
	images imagestore.Store,
	maxUpload int64,
	logger *slog.Logger,
) *Handler {
	if maxUpload <= 0 {
		maxUpload = imagestore.DefaultMaxBytes
	}
	return &Handler{
		plantSvc:    plantSvc,
		timelineSvc: timelineSvc,
		insightSvc:  insightSvc,
		weatherSvc:  weatherSvc,
		zoneSvc:     zoneSvc,
		images:      images,
		maxUpload:   maxUpload,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Weather returns normalized conditions for a coordinate pair.
func (h *Handler) Weather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "lat and lon query parameters are required", nil))
		return
	}
	report, err := h.weatherSvc.CurrentWeather(c.Request.Context(), weather.Query{
		Latitude:  lat,
		Longitude: lon,
		Label:     c.Query("label"),
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

// PlantInsights returns advisories, recommendations and weather for a plant.
func (h *Handler) PlantInsights(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.insightSvc.PlantReport(c.Request.Context(), ownerID(c), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", name+" must be a positive integer", err))
		return 0, false
	}
	return id, true
}

// parseReference accepts RFC3339 timestamps or plain dates.
func parseReference(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.CodeInvalidInput, "dates must be RFC3339 or YYYY-MM-DD", err)
	}
	return ts, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
