// Package datastore opens the configured database and runs migrations.
package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moneshrallapalli/sentinel/internal/conf"
	"github.com/moneshrallapalli/sentinel/internal/datastore/entities"
)

// Open connects to the configured database and migrates the schema.
// Returns (nil, nil) when persistence is disabled (type "none").
func Open(cfg conf.DatastoreSettings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "none":
		return nil, nil
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = "sentinel.db"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported datastore type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s datastore: %w", cfg.Type, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Event{},
		&entities.Detection{},
		&entities.Alert{},
		&entities.MonitorTask{},
		&entities.BaselineState{},
		&entities.SystemLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
