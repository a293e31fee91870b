// Package businessflow contains the core business logic and use cases for service request workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/repository"
	"github.com/samiwater/samiwater-backend/utils"
	"gorm.io/gorm"
)

// Pagination bounds for request history and admin listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RequestFlow handles service request creation and lifecycle management
type RequestFlow interface {
	Create(ctx context.Context, request *dto.CreateServiceRequestRequest, metadata *ClientMetadata) (*dto.ServiceRequestDTO, error)
	ActiveByPhone(ctx context.Context, phone string) (*dto.ActiveRequestResponse, error)
	History(ctx context.Context, phone string, page, pageSize int) (*dto.RequestHistoryResponse, error)
	UpdateStatus(ctx context.Context, invoiceCode string, request *dto.UpdateRequestStatusRequest, metadata *ClientMetadata) (*dto.ServiceRequestDTO, error)
	List(ctx context.Context, status *string, page, pageSize int) (*dto.RequestHistoryResponse, error)
}

// RequestFlowImpl implements the service request business flow
type RequestFlowImpl struct {
	requestRepo  repository.ServiceRequestRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	sequencer    InvoiceSequencer
	db           *gorm.DB
}

// NewRequestFlow creates a new request flow instance
func NewRequestFlow(
	requestRepo repository.ServiceRequestRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	sequencer InvoiceSequencer,
	db *gorm.DB,
) RequestFlow {
	return &RequestFlowImpl{
		requestRepo:  requestRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		sequencer:    sequencer,
		db:           db,
	}
}

// Create opens a new service request for a registered customer. The customer
// must exist, the phone must not already have an open request (unless this is
// a follow-up referencing a prior invoice), and the invoice code is minted
// inside the same transaction as the insert so a failed insert never burns
// a visible code gap across months.
func (rf *RequestFlowImpl) Create(ctx context.Context, request *dto.CreateServiceRequestRequest, metadata *ClientMetadata) (*dto.ServiceRequestDTO, error) {
	if err := rf.validateCreateRequest(request); err != nil {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", err)
	}

	scheduledAt, err := parseScheduledAt(request.ScheduledAt)
	if err != nil {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", err)
	}

	var customer *models.Customer
	var serviceRequest *models.ServiceRequest

	resp, err := rf.WithRequestTransaction(ctx, func(ctx context.Context) (*dto.ServiceRequestDTO, error) {
		var err error
		customer, err = rf.customerRepo.ByPhone(ctx, request.Phone)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}

		if err := rf.checkLifecycle(ctx, request); err != nil {
			return nil, err
		}

		invoiceCode, err := rf.sequencer.NextCode(ctx)
		if err != nil {
			return nil, err
		}

		sourcePath := models.SourcePathWebForm
		if request.SourcePath != nil {
			sourcePath = *request.SourcePath
		}

		serviceRequest = &models.ServiceRequest{
			CustomerID:    customer.ID,
			CustomerPhone: customer.Phone,
			Snapshot: models.CustomerSnapshot{
				FullName: customer.FullName,
				Phone:    customer.Phone,
				AltPhone: customer.AltPhone,
				Address:  customer.Address,
				City:     customer.City,
			},
			InvoiceCode:        invoiceCode,
			SourcePath:         sourcePath,
			IssueType:          request.IssueType,
			Status:             models.RequestStatusPending,
			RelatedInvoiceCode: relatedInvoiceOf(request),
			ScheduledAt:        scheduledAt,
		}

		if err := rf.requestRepo.Save(ctx, serviceRequest); err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, ErrDuplicateInvoiceCode
			}
			return nil, err
		}

		result := ToServiceRequestDTO(*serviceRequest)
		return &result, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Service request creation failed: %s", err.Error())
		action := models.AuditActionRequestRejected
		_ = rf.LogRequestEvent(ctx, customer, action, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REQUEST_CREATION_FAILED", "Service request creation failed", err)
	}

	msg := fmt.Sprintf("Service request created: %s", resp.InvoiceCode)
	_ = rf.LogRequestEvent(ctx, customer, models.AuditActionRequestCreated, msg, true, nil, metadata)

	return resp, nil
}

// ActiveByPhone returns the phone's open request, or a null payload when
// nothing is blocking.
func (rf *RequestFlowImpl) ActiveByPhone(ctx context.Context, phone string) (*dto.ActiveRequestResponse, error) {
	active, err := rf.requestRepo.ActiveByPhone(ctx, phone)
	if err != nil {
		return nil, NewBusinessError("REQUEST_LOOKUP_FAILED", "Active request lookup failed", err)
	}

	if active == nil {
		return &dto.ActiveRequestResponse{Active: nil}, nil
	}

	return &dto.ActiveRequestResponse{
		Active: &dto.ActiveRequestDTO{
			InvoiceCode: active.InvoiceCode,
			Status:      active.Status,
			SourcePath:  active.SourcePath,
			IssueType:   active.IssueType,
			CreatedAt:   active.CreatedAt.Format(time.RFC3339),
		},
	}, nil
}

// History returns the phone's past requests, newest first
func (rf *RequestFlowImpl) History(ctx context.Context, phone string, page, pageSize int) (*dto.RequestHistoryResponse, error) {
	page, pageSize, err := normalizePagination(page, pageSize)
	if err != nil {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", err)
	}

	offset := (page - 1) * pageSize
	requests, err := rf.requestRepo.ListByPhone(ctx, phone, pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("REQUEST_LOOKUP_FAILED", "Request history lookup failed", err)
	}

	total, err := rf.requestRepo.Count(ctx, models.ServiceRequestFilter{CustomerPhone: &phone})
	if err != nil {
		return nil, NewBusinessError("REQUEST_LOOKUP_FAILED", "Request history lookup failed", err)
	}

	items := make([]dto.ServiceRequestDTO, 0, len(requests))
	for _, r := range requests {
		items = append(items, ToServiceRequestDTO(*r))
	}

	return &dto.RequestHistoryResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// UpdateStatus moves a request through its lifecycle. Transitions outside
// the machine (including any move out of done or canceled) are rejected.
func (rf *RequestFlowImpl) UpdateStatus(ctx context.Context, invoiceCode string, request *dto.UpdateRequestStatusRequest, metadata *ClientMetadata) (*dto.ServiceRequestDTO, error) {
	if !models.IsValidRequestStatus(request.Status) {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", ErrInvalidRequestStatus)
	}

	var serviceRequest *models.ServiceRequest

	resp, err := rf.WithRequestTransaction(ctx, func(ctx context.Context) (*dto.ServiceRequestDTO, error) {
		var err error
		serviceRequest, err = rf.requestRepo.ByInvoiceCode(ctx, invoiceCode)
		if err != nil {
			return nil, err
		}
		if serviceRequest == nil {
			return nil, ErrInvoiceNotFound
		}

		if !models.CanTransitionRequestStatus(serviceRequest.Status, request.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, serviceRequest.Status, request.Status)
		}

		if err := rf.requestRepo.UpdateStatus(ctx, serviceRequest.ID, request.Status, request.ResultNote); err != nil {
			return nil, err
		}

		serviceRequest.Status = request.Status
		if request.ResultNote != nil {
			serviceRequest.ResultNote = request.ResultNote
		}

		result := ToServiceRequestDTO(*serviceRequest)
		return &result, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Status update failed for %s: %s", invoiceCode, err.Error())
		_ = rf.LogRequestEvent(ctx, nil, models.AuditActionRequestStatusChanged, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REQUEST_STATUS_UPDATE_FAILED", "Request status update failed", err)
	}

	msg := fmt.Sprintf("Request %s moved to %s", invoiceCode, resp.Status)
	_ = rf.LogRequestEvent(ctx, nil, models.AuditActionRequestStatusChanged, msg, true, nil, metadata)

	return resp, nil
}

// List returns requests across all customers, newest first, optionally
// narrowed to one status. Used by the admin listing and export surfaces.
func (rf *RequestFlowImpl) List(ctx context.Context, status *string, page, pageSize int) (*dto.RequestHistoryResponse, error) {
	if status != nil && !models.IsValidRequestStatus(*status) {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", ErrInvalidRequestStatus)
	}

	page, pageSize, err := normalizePagination(page, pageSize)
	if err != nil {
		return nil, NewBusinessError("REQUEST_VALIDATION_FAILED", "Request validation failed", err)
	}

	filter := models.ServiceRequestFilter{Status: status}
	offset := (page - 1) * pageSize

	requests, err := rf.requestRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("REQUEST_LOOKUP_FAILED", "Request listing failed", err)
	}

	total, err := rf.requestRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("REQUEST_LOOKUP_FAILED", "Request listing failed", err)
	}

	items := make([]dto.ServiceRequestDTO, 0, len(requests))
	for _, r := range requests {
		items = append(items, ToServiceRequestDTO(*r))
	}

	return &dto.RequestHistoryResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Private helper methods

// checkLifecycle enforces the one-active-request rule. Follow-ups that name
// an existing prior invoice skip the active check; everything else is blocked
// while the phone has a request in a non-terminal status.
func (rf *RequestFlowImpl) checkLifecycle(ctx context.Context, request *dto.CreateServiceRequestRequest) error {
	if request.IsFollowUp && request.RelatedToInvoice != nil && *request.RelatedToInvoice != "" {
		related, err := rf.requestRepo.ByInvoiceCode(ctx, *request.RelatedToInvoice)
		if err != nil {
			return err
		}
		if related == nil {
			return ErrRelatedInvoiceNotFound
		}
		return nil
	}

	active, err := rf.requestRepo.ActiveByPhone(ctx, request.Phone)
	if err != nil {
		return err
	}
	if active != nil {
		return &ActiveRequestConflict{
			InvoiceCode: active.InvoiceCode,
			Status:      active.Status,
		}
	}

	return nil
}

func (rf *RequestFlowImpl) validateCreateRequest(request *dto.CreateServiceRequestRequest) error {
	if !models.IsValidIssueType(request.IssueType) {
		return ErrInvalidIssueType
	}

	if request.SourcePath != nil && !models.IsValidSourcePath(*request.SourcePath) {
		return ErrInvalidSourcePath
	}

	return nil
}

func relatedInvoiceOf(request *dto.CreateServiceRequestRequest) *string {
	if request.IsFollowUp && request.RelatedToInvoice != nil && *request.RelatedToInvoice != "" {
		return request.RelatedToInvoice
	}
	return nil
}

func parseScheduledAt(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("scheduledAt must be RFC3339: %w", err)
	}
	return &t, nil
}

func normalizePagination(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, ErrInvalidPageSize
	}
	return page, pageSize, nil
}

func (rf *RequestFlowImpl) LogRequestEvent(ctx context.Context, customer *models.Customer, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var customerID *uint
	if customer != nil && customer.ID != 0 {
		customerID = &customer.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return rf.auditRepo.Save(ctx, audit)
}

func (rf *RequestFlowImpl) WithRequestTransaction(ctx context.Context, fn func(context.Context) (*dto.ServiceRequestDTO, error)) (*dto.ServiceRequestDTO, error) {
	var result *dto.ServiceRequestDTO
	var fnErr error

	err := repository.WithTransaction(ctx, rf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
