package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/infra/imagestore"
)

// ListTimeline returns a plant's events newest-first.
func (h *Handler) ListTimeline(c *gin.Context) {
	id, ok := h.ownedPlant(c)
	if !ok {
		return
	}
	events, err := h.timelineSvc.List(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// LatestTimeline returns the newest event of each of the caller's plants.
func (h *Handler) LatestTimeline(c *gin.Context) {
	plants, err := h.plantSvc.List(c.Request.Context(), ownerID(c))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	ids := make([]int64, 0, len(plants))
	for _, p := range plants {
		ids = append(ids, p.ID)
	}
	latest, err := h.timelineSvc.Latest(c.Request.Context(), ids)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"latest": latest})
}

type noteRequest struct {
	Note string `json:"note"`
}

// AddNote appends a free-text note to the timeline.
func (h *Handler) AddNote(c *gin.Context) {
	id, ok := h.ownedPlant(c)
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	event, err := h.timelineSvc.AddNote(c.Request.Context(), id, req.Note)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, event)
}

// UploadPhoto validates a multipart image and records it on the timeline.
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := h.ownedPlant(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err))
		return
	}

	upload := timeline.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := imagestore.Validate(&upload, h.maxUpload); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	event, err := h.timelineSvc.AddPhoto(c.Request.Context(), id, upload, c.PostForm("note"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, event)
}

// PhotoContent streams the stored image bytes.
func (h *Handler) PhotoContent(c *gin.Context) {
	photo, ok := h.ownedPhoto(c)
	if !ok {
		return
	}
	obj, err := h.images.Open(c.Request.Context(), photo.FilePath)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotFound) {
			abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "photo file not found", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to open photo", err))
		return
	}
	defer obj.Body.Close()
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// DeletePhoto removes a photo together with the events that reference it.
func (h *Handler) DeletePhoto(c *gin.Context) {
	photo, ok := h.ownedPhoto(c)
	if !ok {
		return
	}
	if err := h.timelineSvc.DeletePhoto(c.Request.Context(), photo.ID); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedPlant resolves the :id path parameter to a plant the caller owns.
func (h *Handler) ownedPlant(c *gin.Context) (int64, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return 0, false
	}
	if _, err := h.plantSvc.Get(c.Request.Context(), ownerID(c), id); err != nil {
		abortWithError(c, fromDomainError(err))
		return 0, false
	}
	return id, true
}

func (h *Handler) ownedPhoto(c *gin.Context) (timeline.Photo, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return timeline.Photo{}, false
	}
	photo, found, err := h.timelineSvc.Photo(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return timeline.Photo{}, false
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "photo not found", nil))
		return timeline.Photo{}, false
	}
	if _, err := h.plantSvc.Get(c.Request.Context(), ownerID(c), photo.PlantID); err != nil {
		abortWithError(c, fromDomainError(err))
		return timeline.Photo{}, false
	}
	return photo, true
}
