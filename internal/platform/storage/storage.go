package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// KVEntry is the persistence model backing the SQLite key-value driver.
type KVEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// Open initialises the SQLite database at the given DSN and migrates the
// key-value table. The parent directory is created if missing.
func Open(dsn string) (*gorm.DB, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
