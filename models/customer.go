// Package models contains domain entities and business models for the service backend
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a registered water-filter service customer.
// Phone is the natural identity key; JoinedAt is set once at registration
// and never overwritten by later profile edits.
type Customer struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	FullName        string    `gorm:"size:255;not null" json:"fullName"`
	Phone           string    `gorm:"size:11;not null;uniqueIndex:uk_customers_phone" json:"phone"`
	AltPhone        *string   `gorm:"size:11" json:"altPhone,omitempty"`
	Address         string    `gorm:"type:text;not null" json:"address"`
	City            string    `gorm:"size:100;not null;default:Isfahan" json:"city"`
	BirthYear       *int      `json:"birthYear,omitempty"`
	BirthMonth      *int      `json:"birthMonth,omitempty"`
	BirthDay        *int      `json:"birthDay,omitempty"`
	DiscountPercent *int      `gorm:"check:discount_percent >= 0 AND discount_percent <= 100" json:"discountPercent,omitempty"`
	JoinedAt        time.Time `gorm:"not null" json:"joinedAt"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate fills identity and join fields on first insert
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.JoinedAt.IsZero() {
		c.JoinedAt = time.Now().UTC()
	}
	if c.City == "" {
		c.City = "Isfahan"
	}
	return nil
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Phone         *string
	City          *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
