package photoanalysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/plant-care/internal/domain/timeline"
)

func TestStubAnalyze(t *testing.T) {
	got, err := NewStub().Analyze(context.Background(), timeline.Photo{PlantID: 1})
	require.NoError(t, err)
	require.Equal(t, "Analysis pending.", got.AnalysisSummary)
	require.NotNil(t, got.HealthScore)
	require.InDelta(t, 0.8, *got.HealthScore, 1e-9)

	kept, err := NewStub().Analyze(context.Background(), timeline.Photo{AnalysisSummary: "new leaf"})
	require.NoError(t, err)
	require.Equal(t, "new leaf", kept.AnalysisSummary)
}
