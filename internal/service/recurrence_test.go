package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

func TestGenerateOccurrencesAnchorMatchesPattern(t *testing.T) {
	// Monday anchor with a Mon/Wed pattern: the anchor itself is the first hit.
	anchor := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, anchor.Weekday())

	dates, err := GenerateOccurrences([]string{"monday", "wednesday"}, anchor, 3, "08:00")
	require.NoError(t, err)
	require.Len(t, dates, 3)

	assert.Equal(t, time.Date(2026, time.September, 7, 8, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, time.September, 9, 8, 0, 0, 0, time.UTC), dates[1])
	assert.Equal(t, time.Date(2026, time.September, 14, 8, 0, 0, 0, time.UTC), dates[2])
}

func TestGenerateOccurrencesAnchorOffPattern(t *testing.T) {
	// Tuesday anchor with a Mon/Wed pattern: first hit is the following Wednesday.
	anchor := time.Date(2026, time.September, 8, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Tuesday, anchor.Weekday())

	dates, err := GenerateOccurrences([]string{"monday", "wednesday"}, anchor, 2, "19:30")
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, time.Date(2026, time.September, 9, 19, 30, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, time.September, 14, 19, 30, 0, 0, time.UTC), dates[1])
}

func TestGenerateOccurrencesStrictlyIncreasing(t *testing.T) {
	anchor := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates, err := GenerateOccurrences([]string{"saturday", "sunday", "friday"}, anchor, 12, "10:15")
	require.NoError(t, err)
	require.Len(t, dates, 12)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "occurrence %d must come after %d", i, i-1)
	}
}

func TestGenerateOccurrencesDeterministic(t *testing.T) {
	anchor := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	first, err := GenerateOccurrences([]string{"Tuesday", "thursday"}, anchor, 8, "14:00")
	require.NoError(t, err)
	second, err := GenerateOccurrences([]string{"Tuesday", "thursday"}, anchor, 8, "14:00")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateOccurrencesSingleWeekday(t *testing.T) {
	// One weekday in the pattern spaces occurrences exactly seven days apart.
	anchor := time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)
	dates, err := GenerateOccurrences([]string{"friday"}, anchor, 4, "09:00")
	require.NoError(t, err)
	require.Len(t, dates, 4)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 7*24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestGenerateOccurrencesInvalidInput(t *testing.T) {
	anchor := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		weekdays  []string
		count     int
		timeOfDay string
	}{
		{"zero count", []string{"monday"}, 0, "08:00"},
		{"negative count", []string{"monday"}, -3, "08:00"},
		{"empty pattern", nil, 5, "08:00"},
		{"unknown weekday", []string{"funday"}, 5, "08:00"},
		{"bad time of day", []string{"monday"}, 5, "25:99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateOccurrences(tc.weekdays, anchor, tc.count, tc.timeOfDay)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestParseWeekdayCaseInsensitive(t *testing.T) {
	day, err := ParseWeekday("  WeDnEsDaY ")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, day)

	_, err = ParseWeekday("midweek")
	require.Error(t, err)
}
