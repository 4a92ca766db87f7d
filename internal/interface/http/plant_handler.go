package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/plant-care/internal/domain/plant"
)

// ListPlants returns the caller's plants.
func (h *Handler) ListPlants(c *gin.Context) {
	plants, err := h.plantSvc.List(c.Request.Context(), ownerID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"plants": plants})
}

// CreatePlant registers a plant and schedules its first watering.
func (h *Handler) CreatePlant(c *gin.Context) {
	var req plant.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	created, err := h.plantSvc.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetPlant returns one plant.
func (h *Handler) GetPlant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.plantSvc.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePlant applies an edit and logs the change summary.
func (h *Handler) UpdatePlant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req plant.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	updated, err := h.plantSvc.Update(c.Request.Context(), ownerID(c), id, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePlant removes a plant with its reminders, photos and timeline.
func (h *Handler) DeletePlant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.plantSvc.Delete(c.Request.Context(), ownerID(c), id); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReminders returns every reminder of a plant.
func (h *Handler) ListReminders(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reminders, err := h.plantSvc.ListReminders(c.Request.Context(), ownerID(c), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

type scheduleReminderRequest struct {
	Type    plant.ReminderType `json:"type"`
	DueDate string             `json:"dueDate"`
	Notes   string             `json:"notes"`
}

// ScheduleReminder creates a non-watering reminder.
func (h *Handler) ScheduleReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req scheduleReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	due, err := parseReference(req.DueDate, time.Time{})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	reminder, err := h.plantSvc.ScheduleReminder(c.Request.Context(), ownerID(c), id, req.Type, due, req.Notes)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

// CompleteReminder marks a reminder done. Unknown reminders are a no-op.
func (h *Handler) CompleteReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.plantSvc.CompleteReminder(c.Request.Context(), ownerID(c), id); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// DueReminders lists open reminders due on or before the "through" date.
func (h *Handler) DueReminders(c *gin.Context) {
	through, err := parseReference(c.Query("through"), time.Now().UTC())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	reminders, err := h.plantSvc.DueReminders(c.Request.Context(), ownerID(c), through)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}
