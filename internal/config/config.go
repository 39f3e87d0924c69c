// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	AWS         AWSConfig
	Vision      VisionConfig
	Tracking    TrackingConfig
	Staff       StaffConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port          string
	Host          string
	ReadTimeout   int
	WriteTimeout  int
	IdleTimeout   int
	AllowedOrigin []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	Enabled    bool
	DefaultTTL int // in seconds
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	ReportsPrefix   string
	LocalReportsDir string
}

type VisionConfig struct {
	Downscale         bool
	MaxDimension      int
	MaxUploadMB       int
	MinFaceConfidence float64
	MinPoseConfidence float64
	CascadePath       string
	SidecarURL        string
	SidecarTimeoutMs  int
	StreamMaxClients  int
}

type TrackingConfig struct {
	// StrictProvisioning turns off get-or-create of sessions and
	// recommendation placeholders.
	StrictProvisioning bool
	DefaultLimit       int
	MaxLimit           int
}

type StaffConfig struct {
	AdminUsername string
	AdminPassword string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Host:          getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:   getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:  getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:   getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			AllowedOrigin: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "smart_totem"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 12),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			Enabled:    getEnvAsBool("REDIS_ENABLED", false),
			DefaultTTL: getEnvAsInt("REDIS_DEFAULT_TTL", 300),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "smart-totem-reports"),
			ReportsPrefix:   getEnv("AWS_REPORTS_PREFIX", "shift-summaries"),
			LocalReportsDir: getEnv("LOCAL_REPORTS_DIR", "./reports"),
		},
		Vision: VisionConfig{
			Downscale:         getEnvAsBool("VISION_DOWNSCALE", true),
			MaxDimension:      getEnvAsInt("VISION_MAX_DIMENSION", 800),
			MaxUploadMB:       getEnvAsInt("VISION_MAX_UPLOAD_MB", 8),
			MinFaceConfidence: getEnvAsFloat("VISION_MIN_FACE_CONFIDENCE", 0.5),
			MinPoseConfidence: getEnvAsFloat("VISION_MIN_POSE_CONFIDENCE", 0.5),
			CascadePath:       getEnv("VISION_CASCADE_PATH", "./data/haarcascade_frontalface_default.xml"),
			SidecarURL:        getEnv("VISION_SIDECAR_URL", ""),
			SidecarTimeoutMs:  getEnvAsInt("VISION_SIDECAR_TIMEOUT_MS", 2000),
			StreamMaxClients:  getEnvAsInt("VISION_STREAM_MAX_CLIENTS", 8),
		},
		Tracking: TrackingConfig{
			StrictProvisioning: getEnvAsBool("TRACKING_STRICT_PROVISIONING", false),
			DefaultLimit:       getEnvAsInt("RECOMMENDATION_DEFAULT_LIMIT", 10),
			MaxLimit:           getEnvAsInt("RECOMMENDATION_MAX_LIMIT", 50),
		},
		Staff: StaffConfig{
			AdminUsername: getEnv("STAFF_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("STAFF_ADMIN_PASSWORD", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "es"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Vision.MaxDimension <= 0 {
		return fmt.Errorf("VISION_MAX_DIMENSION must be positive")
	}

	if c.Tracking.DefaultLimit <= 0 || c.Tracking.MaxLimit < c.Tracking.DefaultLimit {
		return fmt.Errorf("recommendation limits are inconsistent: default=%d max=%d",
			c.Tracking.DefaultLimit, c.Tracking.MaxLimit)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
