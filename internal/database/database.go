package database

import (
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gradebook/internal/config"
	"gradebook/internal/model"
)

// Open connects to the configured database and migrates the grades table.
func Open(conf config.Database, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch conf.Driver {
	case "postgres":
		dialector = postgres.Open(conf.DSN())
	case "sqlite":
		dialector = sqlite.Open(conf.Path)
	default:
		return nil, errors.Errorf("unsupported database driver %q", conf.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewLogger(logLevel)})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to the database")
	}
	if conf.Driver == "sqlite" {
		// sqlite allows a single writer; funnel everything through one connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "getting sqlite handle")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate auto-migrates the grades table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Record{}); err != nil {
		return errors.Wrap(err, "migrating the database")
	}
	return nil
}

// NewLogger maps LOG_LEVEL onto gorm's SQL logger.
func NewLogger(level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info", "debug":
		lvl = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "SQL : ", log.LstdFlags|log.Lmicroseconds),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
		},
	)
}
