// Package models contains domain entities and business models for the service backend
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTP status constants
const (
	OTPStatusPending = "pending"
	OTPStatusUsed    = "used"
	OTPStatusExpired = "expired"
	OTPStatusFailed  = "failed"
)

// OTP purpose constants
const (
	OTPPurposeLogin = "login"
)

// OTPVerification is a single issued login code. Codes are single-use:
// a successful verification marks the row used, issuing a new code expires
// all prior pending rows for the phone.
type OTPVerification struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_otp_correlation_id" json:"correlation_id"`
	Phone         string     `gorm:"size:11;not null;index:idx_otp_phone" json:"phone"`
	CustomerID    *uint      `gorm:"index:idx_otp_customer_id" json:"customer_id,omitempty"`
	OTPCode       string     `gorm:"size:6;not null" json:"-"`
	Purpose       string     `gorm:"size:32;not null;default:login" json:"purpose"`
	Status        string     `gorm:"size:32;not null;default:pending;index:idx_otp_status" json:"status"`
	AttemptsCount int        `gorm:"default:0" json:"attempts_count"`
	MaxAttempts   int        `gorm:"default:5" json:"max_attempts"`
	ExpiresAt     time.Time  `gorm:"not null;index:idx_otp_expires_at" json:"expires_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	IPAddress     *string    `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent     *string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OTPVerification) TableName() string {
	return "otp_verifications"
}

// BeforeCreate fills identity fields on insert
func (o *OTPVerification) BeforeCreate(tx *gorm.DB) error {
	if o.CorrelationID == uuid.Nil {
		o.CorrelationID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OTPStatusPending
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 5
	}
	return nil
}

// IsExpired checks whether the code validity window has passed
func (o *OTPVerification) IsExpired() bool {
	return time.Now().UTC().After(o.ExpiresAt)
}

// IsPending checks whether the code is still awaiting verification
func (o *OTPVerification) IsPending() bool {
	return o.Status == OTPStatusPending && !o.IsExpired()
}

// CanAttempt checks whether another verification attempt is allowed
func (o *OTPVerification) CanAttempt() bool {
	return o.AttemptsCount < o.MaxAttempts
}

// OTPVerificationFilter represents filter criteria for OTP queries
type OTPVerificationFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	Phone         *string
	Purpose       *string
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
