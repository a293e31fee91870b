// Package testing provides in-memory repository implementations for flow tests
package testing

import (
	"time"

	"github.com/google/uuid"
	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/utils"
)

// NewTestCustomer builds a registered customer with sensible defaults
func NewTestCustomer(phone string) *models.Customer {
	return &models.Customer{
		UUID:     uuid.New(),
		FullName: "Test Customer",
		Phone:    phone,
		Address:  "Test Street 1",
		City:     utils.DefaultCity,
		JoinedAt: time.Now().UTC(),
	}
}

// NewTestServiceRequest builds a request for the customer in the given status
func NewTestServiceRequest(customer *models.Customer, invoiceCode, status string) *models.ServiceRequest {
	return &models.ServiceRequest{
		UUID:          uuid.New(),
		CustomerID:    customer.ID,
		CustomerPhone: customer.Phone,
		Snapshot: models.CustomerSnapshot{
			FullName: customer.FullName,
			Phone:    customer.Phone,
			AltPhone: customer.AltPhone,
			Address:  customer.Address,
			City:     customer.City,
		},
		InvoiceCode: invoiceCode,
		SourcePath:  models.SourcePathWebForm,
		IssueType:   models.IssueTypeMaintenance,
		Status:      status,
	}
}

// NewTestOTP builds a pending login code expiring in the standard window
func NewTestOTP(phone, code string) *models.OTPVerification {
	return &models.OTPVerification{
		CorrelationID: uuid.New(),
		Phone:         phone,
		OTPCode:       code,
		Purpose:       models.OTPPurposeLogin,
		Status:        models.OTPStatusPending,
		MaxAttempts:   utils.OTPMaxAttempts,
		ExpiresAt:     time.Now().UTC().Add(utils.OTPExpiry),
	}
}
