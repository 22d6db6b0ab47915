package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorMessage(t *testing.T) {
	err := New(CodeDimensionMismatch, "batch has wrong width")
	assert.Equal(t, "[DIMENSION_MISMATCH] batch has wrong width", err.Error())
}

func TestAppError_Wrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(CodeConfigError, "failed to load config", cause)

	assert.True(t, errors.Is(err, cause))
	assert.ErrorContains(t, err, "underlying")
}

func TestIsDimensionMismatch(t *testing.T) {
	err := New(CodeDimensionMismatch, "nope")
	assert.True(t, IsDimensionMismatch(err))
	assert.False(t, IsDtypeMismatch(err))
}

func TestGetErrorCode(t *testing.T) {
	err := New(CodeUnknownIndex, "missing")
	assert.Equal(t, CodeUnknownIndex, GetErrorCode(err))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
}
