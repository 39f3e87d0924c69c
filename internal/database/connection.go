// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/models"
)

var DB *gorm.DB

// GormConfig is shared by the postgres connection and the sqlite test store.
func GormConfig(logLevel string) *gorm.Config {
	level := logger.Warn
	switch logLevel {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}

	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Staff{},
		&models.AuditLog{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Session{},
		&models.Detection{},
		&models.VoiceQuery{},
		&models.RecommendationBatch{},
		&models.RecommendationItem{},
		&models.Interaction{},
		&models.SessionMetrics{},
		&models.Rating{},
		&models.GroupRating{},
		&models.Shift{},
		&models.ShiftPointer{},
		&models.DetectionBuffer{},
		&models.ShiftSummary{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := ensureShiftPointer(db); err != nil {
		return fmt.Errorf("failed to create shift pointer: %w", err)
	}

	if err := backfillSearchColumns(db); err != nil {
		return fmt.Errorf("failed to backfill search columns: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// At most one active shift, enforced by the store
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_single_active ON shifts(is_active) WHERE is_active",

		// Per-session recency reads
		"CREATE INDEX IF NOT EXISTS idx_detections_session_recent ON detections(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_interactions_session_recent ON interactions(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_rec_batches_session_recent ON recommendation_batches(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_detections_item_created ON detections(clothing_item, created_at)",

		// Catalog lookups
		"CREATE INDEX IF NOT EXISTS idx_products_category_name ON products(category_id, name)",
		"CREATE INDEX IF NOT EXISTS idx_variants_product_sku ON product_variants(product_id, sku)",

		// Analytics
		"CREATE INDEX IF NOT EXISTS idx_rec_items_clicked ON recommendation_items(batch_id, clicked)",
		"CREATE INDEX IF NOT EXISTS idx_shifts_started ON shifts(started_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_staff_action ON audit_logs(staff_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
	}

	if db.Dialector.Name() == "postgres" {
		indexes = append(indexes,
			// Full-text search indexes
			"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('spanish', name || ' ' || brand))",
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

func ensureShiftPointer(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ShiftPointer{ID: models.ShiftPointerID}).Error
}

// backfillSearchColumns fills the accent-free columns on catalog rows written
// before those columns existed. Saving a row runs its BeforeSave hook.
func backfillSearchColumns(db *gorm.DB) error {
	var categories []models.Category
	if err := db.Where("search_name = '' OR search_name IS NULL").Find(&categories).Error; err != nil {
		return err
	}
	for i := range categories {
		if err := db.Save(&categories[i]).Error; err != nil {
			return err
		}
	}

	var products []models.Product
	if err := db.Where("search_name = '' OR search_name IS NULL").Find(&products).Error; err != nil {
		return err
	}
	for i := range products {
		if err := db.Omit("Category", "Variants").Save(&products[i]).Error; err != nil {
			return err
		}
	}

	var variants []models.ProductVariant
	if err := db.Where("search_color = '' OR search_color IS NULL").Where("color <> ''").Find(&variants).Error; err != nil {
		return err
	}
	for i := range variants {
		if err := db.Omit("Product").Save(&variants[i]).Error; err != nil {
			return err
		}
	}

	if len(categories)+len(products)+len(variants) > 0 {
		logrus.WithFields(logrus.Fields{
			"categories": len(categories),
			"products":   len(products),
			"variants":   len(variants),
		}).Info("Backfilled catalog search columns")
	}
	return nil
}

// SeedInitialData creates the configured admin account and the base categories.
func SeedInitialData(db *gorm.DB, staff config.StaffConfig) error {
	logrus.Info("Seeding initial data...")

	var adminCount int64
	db.Model(&models.Staff{}).Where("role = ?", models.StaffRoleAdmin).Count(&adminCount)

	if adminCount == 0 && staff.AdminPassword != "" {
		admin := &models.Staff{
			Username:    staff.AdminUsername,
			DisplayName: "Administrador",
			Role:        models.StaffRoleAdmin,
			Active:      true,
		}

		if err := admin.SetPassword(staff.AdminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.WithField("username", admin.Username).Info("Default admin user created successfully")
	} else if adminCount == 0 {
		logrus.Warn("STAFF_ADMIN_PASSWORD not set, skipping admin seed")
	}

	for _, name := range DefaultCategories {
		category := models.Category{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&category).Error; err != nil {
			logrus.WithError(err).WithField("category", name).Warn("Failed to seed category")
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// DefaultCategories are the categories the recommendation tables refer to.
var DefaultCategories = []string{
	"Poleras",
	"Polerones",
	"Chaquetas",
	"Camisas",
	"Pantalones",
	"Shorts",
	"Zapatillas",
	"Accesorios",
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
