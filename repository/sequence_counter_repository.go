// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/samiwater/samiwater-backend/models"
	"gorm.io/gorm"
)

// SequenceCounterRepositoryImpl implements SequenceCounterRepository interface
type SequenceCounterRepositoryImpl struct {
	*BaseRepository[models.SequenceCounter, models.SequenceCounterFilter]
}

// NewSequenceCounterRepository creates a new sequence counter repository
func NewSequenceCounterRepository(db *gorm.DB) SequenceCounterRepository {
	return &SequenceCounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SequenceCounter, models.SequenceCounterFilter](db),
	}
}

// NextSequence atomically increments and returns the sequence for the given
// year-month key. The upsert guarantees two concurrent allocations in the
// same month never observe the same value; a missing counter starts at 1.
func (r *SequenceCounterRepositoryImpl) NextSequence(ctx context.Context, ymKey string) (int64, error) {
	db := r.getDB(ctx)

	var seq int64
	err := db.Raw(`
		INSERT INTO sequence_counters (ym_key, seq, created_at, updated_at)
		VALUES (?, 1, NOW(), NOW())
		ON CONFLICT (ym_key)
		DO UPDATE SET seq = sequence_counters.seq + 1, updated_at = NOW()
		RETURNING seq`, ymKey).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence for key %s: %w", ymKey, err)
	}

	return seq, nil
}

// Current retrieves the counter row for a key without incrementing it.
// Returns nil when no allocation happened for the key yet.
func (r *SequenceCounterRepositoryImpl) Current(ctx context.Context, ymKey string) (*models.SequenceCounter, error) {
	db := r.getDB(ctx)

	var counter models.SequenceCounter
	err := db.Where("ym_key = ?", ymKey).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sequence counter: %w", err)
	}

	return &counter, nil
}
