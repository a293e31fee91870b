// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/samiwater/samiwater-backend/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// ServiceRequestRepository defines operations for service requests
type ServiceRequestRepository interface {
	Repository[models.ServiceRequest, models.ServiceRequestFilter]
	ByInvoiceCode(ctx context.Context, invoiceCode string) (*models.ServiceRequest, error)
	ActiveByPhone(ctx context.Context, phone string) (*models.ServiceRequest, error)
	ListByPhone(ctx context.Context, phone string, limit, offset int) ([]*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uint, status string, resultNote *string) error
}

// SequenceCounterRepository defines operations for invoice sequence counters
type SequenceCounterRepository interface {
	// NextSequence atomically increments and returns the sequence for the
	// given year-month key, creating the counter at 1 when absent.
	NextSequence(ctx context.Context, ymKey string) (int64, error)
	Current(ctx context.Context, ymKey string) (*models.SequenceCounter, error)
}

// OTPVerificationRepository defines operations for OTP verifications
type OTPVerificationRepository interface {
	Repository[models.OTPVerification, models.OTPVerificationFilter]
	LatestByPhone(ctx context.Context, phone, purpose string) (*models.OTPVerification, error)
	ExpirePending(ctx context.Context, phone, purpose string) error
	Update(ctx context.Context, otp *models.OTPVerification) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
