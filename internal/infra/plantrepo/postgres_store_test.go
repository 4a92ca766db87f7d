package plantrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/timeline"
)

func TestPlantMissingMapsForeignKeyViolation(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "plant_timeline_events_plant_id_fkey"})
	require.ErrorIs(t, plantMissing(fk, 7), timeline.ErrPlantMissing)

	unique := &pgconn.PgError{Code: "23505"}
	require.Same(t, error(unique), plantMissing(unique, 7))

	other := errors.New("connection reset")
	require.Equal(t, other, plantMissing(other, 7))
	require.NoError(t, plantMissing(nil, 7))
}
