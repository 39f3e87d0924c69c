// internal/services/session_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/models"
	"gorm.io/gorm"
)

func TestStartSession(t *testing.T) {
	f := newFixture(t, false)

	session, err := f.sessions.Start(&StartSessionRequest{Channel: models.SessionChannelVoice})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Active())
	assert.False(t, session.Placeholder)

	again, err := f.sessions.Start(&StartSessionRequest{ID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, models.SessionChannelVoice, again.Channel, "an open session is returned as is")

	_, err = f.sessions.Start(&StartSessionRequest{ID: "bad id!"})
	assert.Error(t, err)
}

func TestStartPromotesPlaceholder(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, database.WithTransaction(f.db, func(tx *gorm.DB) error {
		_, err := f.provisioner.Session(tx, "kiosk-9", models.SessionChannelTracking)
		return err
	}))

	session, err := f.sessions.Start(&StartSessionRequest{ID: "kiosk-9", Channel: models.SessionChannelVision})
	require.NoError(t, err)
	assert.False(t, session.Placeholder)
	assert.Equal(t, models.SessionChannelVision, session.Channel)

	stored, err := f.sessions.Get("kiosk-9")
	require.NoError(t, err)
	assert.False(t, stored.Placeholder)
}

func TestEndAndReset(t *testing.T) {
	f := newFixture(t, false)

	session, err := f.sessions.Start(&StartSessionRequest{ID: "kiosk-1", Channel: models.SessionChannelVision})
	require.NoError(t, err)

	ended, err := f.sessions.End(session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	again, err := f.sessions.End(session.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.EndedAt.Unix(), again.EndedAt.Unix())

	_, err = f.sessions.Start(&StartSessionRequest{ID: session.ID})
	assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))

	fresh, err := f.sessions.Reset(session.ID)
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, fresh.ID)
	assert.Equal(t, models.SessionChannelVision, fresh.Channel)
	assert.True(t, fresh.Active())

	_, err = f.sessions.End("missing")
	assert.True(t, apperrors.IsNotFound(err))

	reset, err := f.sessions.Reset("missing")
	require.NoError(t, err, "resetting an unknown session just starts a new one")
	assert.Equal(t, models.SessionChannelMixed, reset.Channel)
}

func TestProvisionerRequiresID(t *testing.T) {
	f := newFixture(t, false)

	err := database.WithTransaction(f.db, func(tx *gorm.DB) error {
		_, err := f.provisioner.Session(tx, "", models.SessionChannelMixed)
		return err
	})
	assert.True(t, apperrors.IsValidation(err))
}
