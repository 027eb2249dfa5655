package timetable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridEnumeratesDayMajor(t *testing.T) {
	grid, err := NewGrid(2, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"MON", "TUE"}, grid.Days())
	assert.Equal(t, 6, grid.Size())
	assert.Equal(t, []Slot{
		{Day: "MON", Period: 1}, {Day: "MON", Period: 2}, {Day: "MON", Period: 3},
		{Day: "TUE", Period: 1}, {Day: "TUE", Period: 2}, {Day: "TUE", Period: 3},
	}, grid.Slots())
	assert.True(t, grid.Contains("TUE", 3))
	assert.False(t, grid.Contains("WED", 1))
	assert.False(t, grid.Contains("MON", 4))
}

func TestNewGridRejectsMalformedParameters(t *testing.T) {
	cases := []struct {
		name    string
		days    int
		periods int
		field   string
	}{
		{name: "zero days", days: 0, periods: 7, field: "days_per_week"},
		{name: "eight days", days: 8, periods: 7, field: "days_per_week"},
		{name: "negative periods", days: 5, periods: -1, field: "periods_per_day"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGrid(tc.days, tc.periods)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestNormalizeDay(t *testing.T) {
	assert.Equal(t, "MON", NormalizeDay(" monday "))
	assert.Equal(t, "FRI", NormalizeDay("fri"))
	assert.Equal(t, "XYZ", NormalizeDay("xyz"))
}
