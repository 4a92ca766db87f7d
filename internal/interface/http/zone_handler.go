package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/plant-care/internal/domain/zone"
)

// ListZones returns the home zone catalog sorted by name.
func (h *Handler) ListZones(c *gin.Context) {
	zones, err := h.zoneSvc.List(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// AddZone creates a zone or returns the existing one with the same name.
func (h *Handler) AddZone(c *gin.Context) {
	var req zone.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	created, err := h.zoneSvc.Add(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, created)
}

// UpdateZone edits a zone in place.
func (h *Handler) UpdateZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}
	var req zone.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	updated, err := h.zoneSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteZone removes a zone.
func (h *Handler) DeleteZone(c *gin.Context) {
	id, ok := zoneID(c)
	if !ok {
		return
	}
	if err := h.zoneSvc.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func zoneID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid zone id", err))
		return uuid.Nil, false
	}
	return id, true
}
