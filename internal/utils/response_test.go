// internal/utils/response_test.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/i18n"
)

func TestClientError(t *testing.T) {
	require.NoError(t, i18n.Initialize("es"))

	status, apiErr := ClientError("en", fmt.Errorf("lookup: %w", apperrors.NotFound("shift", "no active shift")))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, i18n.T("en", i18n.KeyShiftNotFound), apiErr.Message)

	status, apiErr = ClientError("en", apperrors.Validation("unsupported image content type").WithKey(i18n.KeyFrameInvalidType))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, i18n.T("en", i18n.KeyFrameInvalidType), apiErr.Message)

	status, apiErr = ClientError("en", apperrors.Conflict("sku already exists"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "sku already exists", apiErr.Message)

	status, apiErr = ClientError("es", errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, i18n.T("es", i18n.KeyError), apiErr.Message)
	assert.NotContains(t, apiErr.Message, "pq")
}
