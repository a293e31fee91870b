// Package models contains domain entities and business models for the service backend
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service request lifecycle status constants.
// The machine is pending -> scheduled -> in_progress -> done, with canceled
// reachable from any non-terminal state.
const (
	RequestStatusPending    = "pending"
	RequestStatusScheduled  = "scheduled"
	RequestStatusInProgress = "in_progress"
	RequestStatusDone       = "done"
	RequestStatusCanceled   = "canceled"
)

// Source channel constants
const (
	SourcePathWebForm    = "web_form"
	SourcePathPhoneCall  = "phone_call"
	SourcePathWhatsApp   = "whatsapp"
	SourcePathTechnician = "technician"
	SourcePathOther      = "other"
)

// Issue type constants
const (
	IssueTypeInstall     = "install"
	IssueTypeMaintenance = "maintenance"
	IssueTypeRepair      = "repair"
	IssueTypeConnect     = "connect"
	IssueTypeVisit       = "visit"
	IssueTypeOther       = "other"
)

// ActiveRequestStatuses are the non-terminal statuses that block a new
// request for the same phone.
var ActiveRequestStatuses = []string{
	RequestStatusPending,
	RequestStatusScheduled,
	RequestStatusInProgress,
}

var requestStatusTransitions = map[string][]string{
	RequestStatusPending:    {RequestStatusScheduled, RequestStatusInProgress, RequestStatusCanceled},
	RequestStatusScheduled:  {RequestStatusInProgress, RequestStatusDone, RequestStatusCanceled},
	RequestStatusInProgress: {RequestStatusDone, RequestStatusCanceled},
}

// IsValidRequestStatus reports whether s is a known lifecycle status
func IsValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusScheduled, RequestStatusInProgress, RequestStatusDone, RequestStatusCanceled:
		return true
	}
	return false
}

// IsValidSourcePath reports whether s is a known source channel
func IsValidSourcePath(s string) bool {
	switch s {
	case SourcePathWebForm, SourcePathPhoneCall, SourcePathWhatsApp, SourcePathTechnician, SourcePathOther:
		return true
	}
	return false
}

// IsValidIssueType reports whether s is a known issue type
func IsValidIssueType(s string) bool {
	switch s {
	case IssueTypeInstall, IssueTypeMaintenance, IssueTypeRepair, IssueTypeConnect, IssueTypeVisit, IssueTypeOther:
		return true
	}
	return false
}

// CanTransitionRequestStatus reports whether a request may move from one
// status to another. Terminal statuses have no outgoing transitions.
func CanTransitionRequestStatus(from, to string) bool {
	for _, next := range requestStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CustomerSnapshot is the customer contact data frozen into a request at
// creation time, so the ticket stays readable even after profile edits.
type CustomerSnapshot struct {
	FullName string  `gorm:"size:255;not null" json:"fullName"`
	Phone    string  `gorm:"size:11;not null" json:"phone"`
	AltPhone *string `gorm:"size:11" json:"altPhone,omitempty"`
	Address  string  `gorm:"type:text;not null" json:"address"`
	City     string  `gorm:"size:100;not null" json:"city"`
}

// ServiceRequest is one service engagement ticket. InvoiceCode is minted by
// the invoice sequencer and is immutable after creation.
type ServiceRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_service_requests_uuid" json:"uuid"`
	CustomerID    uint      `gorm:"not null;index:idx_service_requests_customer_id" json:"customer_id"`
	Customer      *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	CustomerPhone string    `gorm:"size:11;not null;index:idx_service_requests_customer_phone" json:"customerPhone"`

	Snapshot CustomerSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"snapshot"`

	InvoiceCode        string     `gorm:"size:16;not null;uniqueIndex:uk_service_requests_invoice_code" json:"invoiceCode"`
	SourcePath         string     `gorm:"size:32;not null;default:web_form" json:"sourcePath"`
	IssueType          string     `gorm:"size:32;not null" json:"issueType"`
	Status             string     `gorm:"size:32;not null;default:pending;index:idx_service_requests_status" json:"status"`
	RelatedInvoiceCode *string    `gorm:"size:16;index:idx_service_requests_related_invoice_code" json:"relatedToInvoice,omitempty"`
	ScheduledAt        *time.Time `json:"scheduledAt,omitempty"`
	ResultNote         *string    `gorm:"type:text" json:"resultNote,omitempty"`
	CreatedAt          time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_service_requests_created_at" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

// BeforeCreate fills identity fields on insert
func (s *ServiceRequest) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.Status == "" {
		s.Status = RequestStatusPending
	}
	if s.SourcePath == "" {
		s.SourcePath = SourcePathWebForm
	}
	return nil
}

// IsActive reports whether the request still blocks new ones for its phone
func (s *ServiceRequest) IsActive() bool {
	for _, st := range ActiveRequestStatuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request reached a final status
func (s *ServiceRequest) IsTerminal() bool {
	return s.Status == RequestStatusDone || s.Status == RequestStatusCanceled
}

// ServiceRequestFilter represents filter criteria for service request queries
type ServiceRequestFilter struct {
	ID                 *uint
	CustomerID         *uint
	CustomerPhone      *string
	InvoiceCode        *string
	Status             *string
	SourcePath         *string
	IssueType          *string
	RelatedInvoiceCode *string
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time
}
