package treasury

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tsfarb/internal/errors"
)

func TestParseContract(t *testing.T) {
	tests := []struct {
		code      string
		wantMonth time.Month
		wantYear  int
		wantErr   bool
	}{
		{"DEC 21", time.December, 2021, false},
		{"MAR 22", time.March, 2022, false},
		{"JUN 24", time.June, 2024, false},
		{"SEP 09", time.September, 2009, false},
		{"dec 21", time.December, 2021, false}, // case-insensitive
		{"TUH24", time.March, 2024, false},     // 2Y note future, March 2024
		{"FVM25", time.June, 2025, false},
		{"USZ23", time.December, 2023, false},
		{"", 0, 0, true},
		{"XXX 21", 0, 0, true}, // unknown month abbreviation
		{"TUA24", 0, 0, true},  // 'A' is not a delivery code
		{"DEC xx", 0, 0, true},
		{"TU", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			month, year, err := ParseContract(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonth, month)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestLastTradingDays_RejectsDuplicates(t *testing.T) {
	table := NewLastTradingDays()
	require.NoError(t, table.Add(time.March, 2024, 19))

	err := table.Add(time.March, 2024, 20)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	// The original entry is untouched.
	day, ok := table.Day(time.March, 2024)
	require.True(t, ok)
	assert.Equal(t, 19, day)
}

func TestLastTradingDays_RejectsBadDay(t *testing.T) {
	table := NewLastTradingDays()
	assert.Error(t, table.Add(time.March, 2024, 0))
	assert.Error(t, table.Add(time.March, 2024, 32))
}

func TestResolver_Resolve(t *testing.T) {
	table := NewLastTradingDays()
	require.NoError(t, table.Add(time.March, 2024, 19))
	require.NoError(t, table.Add(time.December, 2021, 20))
	resolver := NewResolver(table)

	t.Run("exchange code maps to table entry", func(t *testing.T) {
		// "TUH24" resolves through the row where Mat_Month=3, Mat_Year=2024.
		maturity, err := resolver.Resolve("TUH24")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC), maturity)
	})

	t.Run("override beats table entry", func(t *testing.T) {
		// DEC 21 has no recorded business day and settles on month end.
		maturity, err := resolver.Resolve("DEC 21")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), maturity)
	})

	t.Run("unresolved contract reports its key", func(t *testing.T) {
		_, err := resolver.Resolve("SEP 30")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeContract))
		assert.Contains(t, err.Error(), "SEP 30")
	})

	t.Run("unparseable contract is a contract error", func(t *testing.T) {
		_, err := resolver.Resolve("??")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeContract))
	})
}

func TestTTMDays(t *testing.T) {
	obs := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)
	mat := time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 60, TTMDays(obs, mat))
}
