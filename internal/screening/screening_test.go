package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "screener/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

func TestNewQuery(t *testing.T) {
	dob := time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("scales min score to a percentage", func(t *testing.T) {
		q, err := NewQuery(QueryInput{Name: " John Smith ", MinScore: ptr(0.9)})
		require.NoError(t, err)
		assert.Equal(t, "John Smith", q.Name)
		assert.Equal(t, 90, q.MinScore)
		assert.Nil(t, q.DOB)
	})

	t.Run("rounds rather than truncates the percentage", func(t *testing.T) {
		q, err := NewQuery(QueryInput{Name: "X", MinScore: ptr(0.29)})
		require.NoError(t, err)
		assert.Equal(t, 29, q.MinScore)
	})

	t.Run("dob months range converts to days", func(t *testing.T) {
		q, err := NewQuery(QueryInput{Name: "X", MinScore: ptr(0.5), DOB: &dob, DOBMonthsRange: ptr(6)})
		require.NoError(t, err)
		assert.Equal(t, 180, q.DOBWindowDays)
	})

	t.Run("dob without range uses default window", func(t *testing.T) {
		q, err := NewQuery(QueryInput{Name: "X", MinScore: ptr(0.5), DOB: &dob})
		require.NoError(t, err)
		assert.Equal(t, DefaultDOBWindowDays, q.DOBWindowDays)
	})

	t.Run("range without dob is ignored", func(t *testing.T) {
		q, err := NewQuery(QueryInput{Name: "X", MinScore: ptr(0.5), DOBMonthsRange: ptr(6)})
		require.NoError(t, err)
		assert.Zero(t, q.DOBWindowDays)
		_, _, ok := q.DOBWindow()
		assert.False(t, ok)
	})

	invalid := []struct {
		name string
		in   QueryInput
	}{
		{"missing name", QueryInput{MinScore: ptr(0.5)}},
		{"blank name", QueryInput{Name: "   ", MinScore: ptr(0.5)}},
		{"missing min score", QueryInput{Name: "X"}},
		{"min score above one", QueryInput{Name: "X", MinScore: ptr(1.5)}},
		{"negative min score", QueryInput{Name: "X", MinScore: ptr(-0.1)}},
		{"negative range", QueryInput{Name: "X", MinScore: ptr(0.5), DOB: &dob, DOBMonthsRange: ptr(-1)}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestDOBWindow(t *testing.T) {
	dob := time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC)
	q := Query{Name: "X", DOB: &dob, DOBWindowDays: 180}

	start, end, ok := q.DOBWindow()
	require.True(t, ok)
	assert.Equal(t, time.Date(1979, 11, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(1980, 10, 28, 0, 0, 0, 0, time.UTC), end)
}
