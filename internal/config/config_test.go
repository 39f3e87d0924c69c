// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 800, cfg.Vision.MaxDimension)
	assert.Equal(t, 0.5, cfg.Vision.MinFaceConfidence)
	assert.Equal(t, 10, cfg.Tracking.DefaultLimit)
	assert.False(t, cfg.Tracking.StrictProvisioning)
	assert.Equal(t, "es", cfg.I18n.DefaultLocale)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigin)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRACKING_STRICT_PROVISIONING", "TRUE")
	t.Setenv("VISION_MIN_POSE_CONFIDENCE", "0.65")
	t.Setenv("VISION_MAX_DIMENSION", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://kiosk.local, ,https://admin.local")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Tracking.StrictProvisioning)
	assert.Equal(t, 0.65, cfg.Vision.MinPoseConfidence)
	assert.Equal(t, 800, cfg.Vision.MaxDimension, "malformed values fall back to the default")
	assert.Equal(t, []string{"https://kiosk.local", "https://admin.local"}, cfg.Server.AllowedOrigin)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{
		Environment: "production",
		JWT:         JWTConfig{SecretKey: "your-secret-key-change-in-production"},
		Database:    DatabaseConfig{Password: "x"},
		Vision:      VisionConfig{MaxDimension: 800},
		Tracking:    TrackingConfig{DefaultLimit: 10, MaxLimit: 50},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.SecretKey = "rotated"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Password = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Password = "x"
	cfg.Tracking.MaxLimit = 5
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "totem", Password: "pw", Database: "smart_totem", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=totem password=pw dbname=smart_totem sslmode=disable TimeZone=UTC", d.DSN())
}
