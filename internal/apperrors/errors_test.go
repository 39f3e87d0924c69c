// internal/apperrors/errors_test.go
package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOfWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("verify price: %w", NotFound("recommendation", "recommendation not found"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("boom")))
	assert.True(t, IsValidation(Validationf("score %d out of range", 6)))
	assert.False(t, IsNotFound(nil))
}

func TestWithKey(t *testing.T) {
	err := Validation("unsupported image content type").WithKey("frame.invalid_type")
	assert.Equal(t, "frame.invalid_type", err.Key)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "VALIDATION: unsupported image content type", err.Error())
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to store detection", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL: failed to store detection")
}
