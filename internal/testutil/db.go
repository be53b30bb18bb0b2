package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gradebook/internal/database"
	"gradebook/internal/model"
)

// PrepareDB returns a fresh in-memory sqlite database with the grades table
// migrated. A single connection keeps every query on the same memory DB.
func PrepareDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("PrepareDB() open failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("PrepareDB() handle failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() migrate failed: %v", err)
	}
	return db
}

// Seed inserts records and returns them with their assigned ids.
func Seed(t *testing.T, db *gorm.DB, records ...model.Record) []model.Record {
	t.Helper()
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("Seed() failed: %v", err)
		}
	}
	return records
}

// CountRecords returns the number of rows in the grades table.
func CountRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&model.Record{}).Count(&count).Error; err != nil {
		t.Fatalf("CountRecords() failed: %v", err)
	}
	return count
}
