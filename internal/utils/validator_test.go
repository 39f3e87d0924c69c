// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ratingInput struct {
	SessionID string `validate:"session_id"`
	Score     int    `validate:"min=1,max=5"`
}

func TestRatingScoreBounds(t *testing.T) {
	for _, score := range []int{0, 6} {
		err := ValidateStruct(&ratingInput{Score: score})
		require.Error(t, err, "score %d", score)
		details := GetValidationErrors(err)
		require.Len(t, details, 1)
		assert.Equal(t, "score", details[0].Field)
	}
	for _, score := range []int{1, 5} {
		assert.NoError(t, ValidateStruct(&ratingInput{Score: score}), "score %d", score)
	}
}

func TestSessionIDValidation(t *testing.T) {
	assert.NoError(t, ValidateStruct(&ratingInput{SessionID: "", Score: 3}))
	assert.NoError(t, ValidateStruct(&ratingInput{SessionID: "kiosk-01:2026.10.16_a", Score: 3}))

	err := ValidateStruct(&ratingInput{SessionID: "bad id with spaces", Score: 3})
	require.Error(t, err)
	assert.Equal(t, "session_id", GetValidationErrors(err)[0].Tag)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, err := GenerateJWT(id, "operador", "operator", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.StaffID)
	assert.Equal(t, "operator", claims.Role)

	SetJWTSecret("other-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}
