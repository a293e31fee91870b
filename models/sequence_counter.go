// Package models contains domain entities and business models for the service backend
package models

import (
	"time"
)

// SequenceCounter is the per-Jalali-month invoice sequence. YmKey is the
// invoice prefix (last digit of the Jalali year plus the two-digit month,
// e.g. "405"); Seq only ever moves forward, incremented atomically by the
// repository on each allocation.
type SequenceCounter struct {
	YmKey     string    `gorm:"primaryKey;size:8" json:"ym_key"`
	Seq       int64     `gorm:"not null;default:0" json:"seq"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

// SequenceCounterFilter represents filter criteria for counter queries
type SequenceCounterFilter struct {
	YmKey *string
}
