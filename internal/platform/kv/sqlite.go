package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"portfolio-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a SQLite-backed key-value store.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, error) {
	var entry storage.KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", key).Delete(&storage.KVEntry{}).Error; err != nil {
			return err
		}
		entry := &storage.KVEntry{
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now(),
		}
		return tx.Create(entry).Error
	})
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&storage.KVEntry{}).Error
}

func (s *sqliteStore) Has(ctx context.Context, key string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&storage.KVEntry{}).
		Where("key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.KVEntry{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "sqlite",
		"total": total,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}
