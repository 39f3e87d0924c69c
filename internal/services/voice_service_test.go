// internal/services/voice_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/nlu"
)

func newVoiceService(f *fixture) *VoiceService {
	return NewVoiceService(f.db, f.provisioner, f.tracking, f.search, f.recs)
}

func TestVoiceColorEntityUsesColorRecommendation(t *testing.T) {
	f := newFixture(t, false)
	svc := newVoiceService(f)

	result, err := svc.Process(&VoiceRequest{SessionID: "kiosk-voz", Transcript: "Busco una polera roja talla S"})
	require.NoError(t, err)

	assert.Equal(t, "rojo", result.Entities.Color)
	assert.Equal(t, "S", result.Entities.Talla)
	assert.Equal(t, string(models.RecommendationTypeColor), result.Source)
	assert.Equal(t, []string{"POL-003-RO-S"}, skus(result.Products))
	assert.NotNil(t, result.RecommendationID)
	require.NotNil(t, result.QueryID)

	var query models.VoiceQuery
	require.NoError(t, f.db.Where("id = ?", *result.QueryID).First(&query).Error)
	assert.Equal(t, string(result.Intent), query.Intent)

	var entities nlu.Entities
	require.NoError(t, models.FromJSON(query.Entities, &entities))
	assert.Equal(t, result.Entities, entities)

	var voice int64
	f.db.Model(&models.Interaction{}).Where("session_id = ? AND type = ?", "kiosk-voz", models.InteractionVoice).Count(&voice)
	assert.Equal(t, int64(1), voice)
}

func TestVoiceWithoutColorSearches(t *testing.T) {
	f := newFixture(t, false)
	svc := newVoiceService(f)

	result, err := svc.Process(&VoiceRequest{Transcript: "¿Cuánto cuesta la chaqueta denim?"})
	require.NoError(t, err)

	assert.Equal(t, nlu.IntentPrice, result.Intent)
	assert.Equal(t, string(models.RecommendationTypeSearch), result.Source)
	require.NotEmpty(t, result.Products)
	assert.Equal(t, "CHQ-001-AZ-M", result.Products[0].SKU)
	assert.Nil(t, result.QueryID, "anonymous queries are not stored")
}

func TestVoiceSearchFindsAccentedProducts(t *testing.T) {
	f := newFixture(t, false)
	svc := newVoiceService(f)

	result, err := svc.Process(&VoiceRequest{Transcript: "busco una gorra clásica"})
	require.NoError(t, err)
	assert.Equal(t, string(models.RecommendationTypeSearch), result.Source)
	require.NotEmpty(t, result.Products)
	assert.Equal(t, "ACC-001-VE-U", result.Products[0].SKU)

	result, err = svc.Process(&VoiceRequest{Transcript: "busco algo clásico"})
	require.NoError(t, err)
	assert.Contains(t, skus(result.Products), "ACC-001-VE-U")
}

func TestVoiceNoIntentReturnsNoProducts(t *testing.T) {
	f := newFixture(t, false)
	svc := newVoiceService(f)

	result, err := svc.Process(&VoiceRequest{SessionID: "kiosk-voz", Transcript: "hola buenas tardes"})
	require.NoError(t, err)
	assert.Equal(t, nlu.IntentNone, result.Intent)
	assert.Empty(t, result.Products)
	assert.NotNil(t, result.QueryID, "the query is still logged")
}

func TestVoiceRequiresTranscript(t *testing.T) {
	f := newFixture(t, false)

	_, err := newVoiceService(f).Process(&VoiceRequest{SessionID: "kiosk-voz"})
	assert.Error(t, err)
}
