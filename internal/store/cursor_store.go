package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving block height checkpoints
//
//go:generate mockgen -source=cursor_store.go -destination=../mocks/cursor_store.go -package=mocks -mock_names=CursorStore=MockCursorStore
type CursorStore interface {
	// GetCheckpoint retrieves a checkpoint, reporting whether it exists
	GetCheckpoint(ctx context.Context, key string) (uint64, bool, error)
	// InitCheckpoint stores value when the checkpoint is absent and returns the stored value
	InitCheckpoint(ctx context.Context, key string, value uint64) (uint64, error)
	// AdvanceCheckpoint moves a checkpoint forward, returning false when the stored value is not lower
	AdvanceCheckpoint(ctx context.Context, key string, value uint64) (bool, error)
	// SetCheckpoint overwrites a checkpoint, allowing it to move backwards
	SetCheckpoint(ctx context.Context, key string, value uint64) error
}

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

func getCheckpoint(db *gorm.DB, key string) (uint64, bool, error) {
	var kv schema.KeyValueStore
	err := db.Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	value, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	return value, true, nil
}

// GetCheckpoint retrieves a checkpoint, reporting whether it exists
func (s *cursorStore) GetCheckpoint(ctx context.Context, key string) (uint64, bool, error) {
	return getCheckpoint(s.db.WithContext(ctx), key)
}

// InitCheckpoint stores value when the checkpoint is absent and returns the stored value
func (s *cursorStore) InitCheckpoint(ctx context.Context, key string, value uint64) (uint64, error) {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: strconv.FormatUint(value, 10),
	}

	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&kv).Error; err != nil {
		return 0, fmt.Errorf("failed to init checkpoint: %w", err)
	}

	stored, _, err := getCheckpoint(db, key)
	return stored, err
}

// AdvanceCheckpoint moves a checkpoint forward.
// The value is stored as text, so the comparison happens in Go and the write is a
// compare-and-swap on the previously read value.
func (s *cursorStore) AdvanceCheckpoint(ctx context.Context, key string, value uint64) (bool, error) {
	advanced := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, found, err := getCheckpoint(tx, key)
		if err != nil {
			return err
		}

		if !found {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoNothing: true,
			}).Create(&schema.KeyValueStore{Key: key, Value: strconv.FormatUint(value, 10)})
			if result.Error != nil {
				return fmt.Errorf("failed to create checkpoint: %w", result.Error)
			}
			advanced = result.RowsAffected > 0
			return nil
		}

		if value <= current {
			return nil
		}

		result := tx.Model(&schema.KeyValueStore{}).
			Where("key = ? AND value = ?", key, strconv.FormatUint(current, 10)).
			Update("value", strconv.FormatUint(value, 10))
		if result.Error != nil {
			return fmt.Errorf("failed to advance checkpoint: %w", result.Error)
		}
		advanced = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}

// SetCheckpoint overwrites a checkpoint
func (s *cursorStore) SetCheckpoint(ctx context.Context, key string, value uint64) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: strconv.FormatUint(value, 10),
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set checkpoint: %w", err)
	}

	return nil
}
