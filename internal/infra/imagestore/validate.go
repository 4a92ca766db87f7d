package imagestore

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/plant-care/internal/domain/timeline"
	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

// DefaultMaxBytes is the largest accepted photo.
const DefaultMaxBytes = 4 << 20

const keyPrefix = "images/plants/"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Validate checks the payload size and image type and normalizes the content type.
func Validate(upload *timeline.Upload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	size := int64(len(upload.Data))
	if size == 0 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "photo is empty", nil)
	}
	if size > maxBytes {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("photo exceeds %d bytes", maxBytes), nil)
	}

	contentType := normalizeType(upload.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeType(http.DetectContentType(upload.Data))
	}
	if _, ok := extensions[contentType]; !ok {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "only jpeg, png and webp photos are supported", nil)
	}
	upload.ContentType = contentType
	return nil
}

// NewKey returns a unique storage key for an image of the given type.
func NewKey(contentType string) string {
	ext, ok := extensions[normalizeType(contentType)]
	if !ok {
		ext = ".bin"
	}
	return keyPrefix + uuid.NewString() + ext
}

func normalizeType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType == "image/jpg" {
		return "image/jpeg"
	}
	return contentType
}
