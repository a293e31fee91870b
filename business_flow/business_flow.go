// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToCustomerDTO converts a customer model to its API representation
func ToCustomerDTO(customer models.Customer) dto.CustomerDTO {
	return dto.CustomerDTO{
		UUID:            customer.UUID.String(),
		FullName:        customer.FullName,
		Phone:           customer.Phone,
		AltPhone:        customer.AltPhone,
		Address:         customer.Address,
		City:            customer.City,
		BirthYear:       customer.BirthYear,
		BirthMonth:      customer.BirthMonth,
		BirthDay:        customer.BirthDay,
		DiscountPercent: customer.DiscountPercent,
		JoinedAt:        customer.JoinedAt.Format(time.RFC3339),
	}
}

// ToServiceRequestDTO converts a service request model to its API representation
func ToServiceRequestDTO(request models.ServiceRequest) dto.ServiceRequestDTO {
	return dto.ServiceRequestDTO{
		InvoiceCode:      request.InvoiceCode,
		Status:           request.Status,
		SourcePath:       request.SourcePath,
		IssueType:        request.IssueType,
		RelatedToInvoice: request.RelatedInvoiceCode,
		ScheduledAt:      formatTimePtr(request.ScheduledAt),
		ResultNote:       request.ResultNote,
		CreatedAt:        request.CreatedAt.Format(time.RFC3339),
		Snapshot: dto.CustomerSnapshotDTO{
			FullName: request.Snapshot.FullName,
			Phone:    request.Snapshot.Phone,
			AltPhone: request.Snapshot.AltPhone,
			Address:  request.Snapshot.Address,
			City:     request.Snapshot.City,
		},
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
