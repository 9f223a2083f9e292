package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskOrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort []TaskSort
		want string
	}{
		{
			name: "default",
			sort: nil,
			want: "urgency ASC, due_at ASC, id ASC",
		},
		{
			name: "id appended",
			sort: []TaskSort{{Field: SortByCreatedAt, Descending: true}},
			want: "created_at DESC, id ASC",
		},
		{
			name: "explicit id not duplicated",
			sort: []TaskSort{{Field: SortByID, Descending: true}},
			want: "id DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TaskOrderBy(tt.sort)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskOrderBy_UnknownField(t *testing.T) {
	_, err := TaskOrderBy([]TaskSort{{Field: "title; DROP TABLE tasks"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEntity))
}

func TestDueBeforeBound(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
		unit time.Duration
		want time.Time
	}{
		{"aligned", base, time.Millisecond, base},
		{"sub-millisecond rounds up", base.Add(800 * time.Microsecond), time.Millisecond, base.Add(time.Millisecond)},
		{"sub-microsecond rounds up", base.Add(1500 * time.Nanosecond), time.Microsecond, base.Add(2 * time.Microsecond)},
		{"aligned microsecond", base.Add(3 * time.Microsecond), time.Microsecond, base.Add(3 * time.Microsecond)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(DueBeforeBound(tt.in, tt.unit)))
		})
	}
}
