package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without cause",
			err:      NewAppError(ErrTypeParsing, "bad row", nil),
			expected: "[PARSING] bad row",
		},
		{
			name:     "error with cause",
			err:      NewAppError(ErrTypeStorage, "write failed", fmt.Errorf("disk full")),
			expected: "[STORAGE] write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewAppError(ErrTypeConfig, "config load", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestIsType(t *testing.T) {
	err := NewMissingFileError("/data/ois_df.csv", nil)

	assert.True(t, IsType(err, ErrTypeNotFound))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeNotFound))

	// Wrapped AppError is still recognized.
	wrapped := fmt.Errorf("load inputs: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeNotFound))
}

func TestNewMalformedRowError_Context(t *testing.T) {
	err := NewMalformedRowError("treasury_df.csv", 17, "unparseable date", fmt.Errorf("bad month"))

	require.NotNil(t, err.Context)
	assert.Equal(t, "treasury_df.csv", err.Context["file"])
	assert.Equal(t, 17, err.Context["row"])
	assert.Contains(t, err.Error(), "row 17")
}

func TestNewUnresolvedContractError_IncludesKey(t *testing.T) {
	err := NewUnresolvedContractError("TUH24", time.March, 2024)

	assert.Contains(t, err.Error(), "TUH24")
	assert.Equal(t, 3, err.Context["month"])
	assert.Equal(t, 2024, err.Context["year"])
	assert.True(t, IsType(err, ErrTypeContract))
}

func TestNewOutOfRangeError(t *testing.T) {
	err := NewOutOfRangeError(400, 7, 360)

	assert.True(t, IsType(err, ErrTypeOutOfRange))
	assert.Contains(t, err.Error(), "400d")
}

func TestNewInsufficientWindowError(t *testing.T) {
	err := NewInsufficientWindowError(3, 10)

	assert.True(t, IsType(err, ErrTypeWindow))
	assert.Equal(t, 3, err.Context["have"])
	assert.Equal(t, 10, err.Context["need"])
}
