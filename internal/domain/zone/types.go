package zone

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

// Zone is a named area of the home where plants can live.
type Zone struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AreaType  string    `json:"areaType,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input carries the editable zone fields.
type Input struct {
	Name     string `json:"name"`
	AreaType string `json:"areaType"`
	Notes    string `json:"notes"`
}

// Seed is a default zone installed into an empty catalog.
type Seed struct {
	Name     string
	AreaType string
}

// Validate trims the input and enforces field limits.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.AreaType = strings.TrimSpace(in.AreaType)
	in.Notes = strings.TrimSpace(in.Notes)
	switch {
	case in.Name == "":
		return apperrors.Wrap(apperrors.CodeInvalidInput, "zone name is required", nil)
	case len(in.Name) > 80:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "zone name must be at most 80 characters", nil)
	case len(in.AreaType) > 40:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "area type must be at most 40 characters", nil)
	case len(in.Notes) > 512:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "notes must be at most 512 characters", nil)
	}
	return nil
}
