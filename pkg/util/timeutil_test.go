package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateOfNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	in := time.Date(2024, 3, 10, 22, 30, 0, 0, loc)

	require.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), DateOf(in))
}

func TestRound(t *testing.T) {
	require.Equal(t, 21.6, Round(21.55, 1))
	require.Equal(t, -3.2, Round(-3.24, 1))
	require.Equal(t, 1013.0, Round(1012.7, 0))
	require.Equal(t, 0.0, Round(0, 2))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 2.5, DaysBetween(a, a.Add(60*time.Hour)))
	require.Equal(t, -0.25, DaysBetween(a.Add(6*time.Hour), a))
}
