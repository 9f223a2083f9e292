package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyClassifier_Classify(t *testing.T) {
	t.Parallel()

	classifier := NewUrgencyClassifier(time.UTC)
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		due  time.Time
		want Urgency
	}{
		{"due today", now, UrgencyOverdue},
		{"due earlier today", now.Add(-10 * time.Hour), UrgencyOverdue},
		{"due later today", time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC), UrgencyOverdue},
		{"overdue by a day", now.Add(-day), UrgencyOverdue},
		{"overdue by a year", now.AddDate(-1, 0, 0), UrgencyOverdue},
		{"tomorrow", now.Add(day), UrgencySoon},
		{"tomorrow at midnight", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), UrgencySoon},
		{"day after tomorrow", now.Add(2 * day), UrgencySoon},
		{"day after tomorrow late", time.Date(2024, 3, 12, 23, 59, 0, 0, time.UTC), UrgencySoon},
		{"in three days", now.Add(3 * day), UrgencyUpcoming},
		{"in four days", now.Add(4 * day), UrgencyUpcoming},
		{"in four days late", time.Date(2024, 3, 14, 23, 59, 0, 0, time.UTC), UrgencyUpcoming},
		{"in five days", now.Add(5 * day), UrgencyLater},
		{"in five days at midnight", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), UrgencyLater},
		{"far future", now.AddDate(10, 0, 0), UrgencyLater},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Classify(tc.due, now))
		})
	}
}

func TestUrgencyClassifier_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	classifier := NewUrgencyClassifier(time.UTC)
	lateNow := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	earlyDue := time.Date(2024, 3, 12, 0, 1, 0, 0, time.UTC)

	// Only 2 minutes over a day apart in wall time, but two calendar days out.
	assert.Equal(t, UrgencySoon, classifier.Classify(earlyDue, lateNow))
	assert.Equal(t, UrgencyUpcoming, classifier.Classify(earlyDue.AddDate(0, 0, 1), lateNow))
}

func TestUrgencyClassifier_UsesReferenceLocation(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on March 10 is already March 11 in Tokyo.
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, UrgencySoon, NewUrgencyClassifier(time.UTC).Classify(due, now))
	assert.Equal(t, UrgencyOverdue, NewUrgencyClassifier(tokyo).Classify(due, now))
}

func TestUrgencyClassifier_AcrossDSTTransition(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	classifier := NewUrgencyClassifier(ny)

	// Clocks spring forward on 2024-03-10 in New York; the day is 23 hours long.
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, ny)
	due := time.Date(2024, 3, 11, 0, 15, 0, 0, ny)

	assert.Equal(t, UrgencySoon, classifier.Classify(due, now))
	assert.Equal(t, UrgencyUpcoming, classifier.Classify(due.AddDate(0, 0, 1), now))
	assert.Equal(t, UrgencyLater, classifier.Classify(time.Date(2024, 3, 14, 0, 0, 0, 0, ny), now))
}

func TestNewUrgencyClassifier_NilLocationDefaultsToUTC(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.UTC, NewUrgencyClassifier(nil).Location())
	assert.Equal(t, time.UTC, UrgencyClassifier{}.Location())
}
