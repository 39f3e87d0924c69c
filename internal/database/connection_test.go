// internal/database/connection_test.go
package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/models"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestRunMigrationsCreatesPointerRow(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db))

	var pointers []models.ShiftPointer
	require.NoError(t, db.Find(&pointers).Error)
	require.Len(t, pointers, 1)
	assert.Equal(t, models.ShiftPointerID, pointers[0].ID)
	assert.Nil(t, pointers[0].ActiveShiftID)
}

func TestSingleActiveShiftIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(db))

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.Shift{Name: models.ShiftMorning, StartedAt: now, IsActive: true}).Error)
	err := db.Create(&models.Shift{Name: models.ShiftAfternoon, StartedAt: now, IsActive: true}).Error
	assert.Error(t, err)

	require.NoError(t, db.Create(&models.Shift{Name: models.ShiftNight, StartedAt: now}).Error)
	require.NoError(t, db.Create(&models.Shift{Name: models.ShiftAdHoc, StartedAt: now}).Error)
}

func TestRunMigrationsBackfillsSearchColumns(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(db))

	category := models.Category{Name: "Polerones"}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{Name: "Polerón Capucha", Brand: "Adidas", CategoryID: category.ID}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Exec("UPDATE products SET search_name = '', search_brand = ''").Error)

	require.NoError(t, RunMigrations(db))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, "poleron capucha", got.SearchName)
	assert.Equal(t, "adidas", got.SearchBrand)
	assert.Equal(t, "Polerón Capucha", got.Name)
}

func TestSeedInitialData(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(db))

	staff := config.StaffConfig{AdminUsername: "admin", AdminPassword: "kiosk-admin-1"}
	require.NoError(t, SeedInitialData(db, staff))
	require.NoError(t, SeedInitialData(db, staff))

	var admins []models.Staff
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.NoError(t, admins[0].CheckPassword("kiosk-admin-1"))

	var categories int64
	db.Model(&models.Category{}).Count(&categories)
	assert.Equal(t, int64(len(DefaultCategories)), categories)
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RunMigrations(db))

	boom := errors.New("boom")
	err := WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Category{Name: "Temporal"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.Category{}).Where("name = ?", "Temporal").Count(&count)
	assert.Zero(t, count)
}
