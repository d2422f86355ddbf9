package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		label string
		want  Range
	}{
		{"2024-01", Range{Start: "2024-01-01", End: "2024-02-01"}},
		{"2024-09", Range{Start: "2024-09-01", End: "2024-10-01"}},
		{"2024-12", Range{Start: "2024-12-01", End: "2025-01-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			got, err := Month(tc.label)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMonthRejectsMalformedLabels(t *testing.T) {
	for _, label := range []string{"", "2024", "2024-13", "2024-00", "24-01", "2024-1", "abcd-01", "2024-01-01"} {
		_, err := Month(label)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "label %q", label)
	}
}

func TestYearBounds(t *testing.T) {
	got, err := Year(2025)
	require.NoError(t, err)
	assert.Equal(t, Range{Start: "2025-01-01", End: "2026-01-01"}, got)

	_, err = Year(0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRangeIsHalfOpen(t *testing.T) {
	r, err := Month("2024-03")
	require.NoError(t, err)

	assert.True(t, r.Contains("2024-03-01"))
	assert.True(t, r.Contains("2024-03-31"))
	assert.False(t, r.Contains("2024-04-01"))
	assert.False(t, r.Contains("2024-02-29"))
}

func TestDefaultMonthIsPreviousCalendarMonth(t *testing.T) {
	assert.Equal(t, "2026-09", DefaultMonth(time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-12", DefaultMonth(time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)))
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-02-29"))
	assert.False(t, ValidDate("2023-02-29"))
	assert.False(t, ValidDate("2024-2-1"))
	assert.False(t, ValidDate(""))
}
