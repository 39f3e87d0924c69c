// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/testutil"
	"github.com/smartotem/totem-backend/internal/utils"
)

func newAuthService(t *testing.T) *AuthService {
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 2}}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return NewAuthService(testutil.NewDB(t), cfg)
}

func TestLoginFlow(t *testing.T) {
	svc := newAuthService(t)

	staff, err := svc.CreateStaff(&CreateStaffRequest{Username: "operadora", Password: "turno-manana", Role: models.StaffRoleOperator})
	require.NoError(t, err)

	resp, err := svc.Login(&LoginRequest{Username: "operadora", Password: "turno-manana"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 2*3600, resp.ExpiresIn)
	require.NotNil(t, resp.Staff.LastLoginAt)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, staff.ID.String(), claims.StaffID)
	assert.Equal(t, string(models.StaffRoleOperator), claims.Role)

	me, err := svc.Me(staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "operadora", me.Username)
	assert.NotNil(t, me.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.CreateStaff(&CreateStaffRequest{Username: "admin", Password: "supersecreto", Role: models.StaffRoleAdmin})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Username: "admin", Password: "incorrecta"})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.Login(&LoginRequest{Username: "nadie", Password: "x"})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.CreateStaff(&CreateStaffRequest{Username: "admin", Password: "otraclave1", Role: models.StaffRoleAdmin})
	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))

	_, err = svc.CreateStaff(&CreateStaffRequest{Username: "corto", Password: "123", Role: models.StaffRoleAdmin})
	assert.Error(t, err)

	_, err = svc.Me(uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
