// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/app/middleware"
	businessflow "github.com/samiwater/samiwater-backend/business_flow"
)

// RequestHandlerInterface defines the contract for service request handlers
type RequestHandlerInterface interface {
	Create(c fiber.Ctx) error
	ActiveByPhone(c fiber.Ctx) error
	History(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
}

// RequestHandler handles service-request-related HTTP requests
type RequestHandler struct {
	requestFlow businessflow.RequestFlow
	validator   *validator.Validate
}

// NewRequestHandler creates a new service request handler
func NewRequestHandler(requestFlow businessflow.RequestFlow) *RequestHandler {
	handler := &RequestHandler{
		requestFlow: requestFlow,
		validator:   validator.New(),
	}

	setupCustomValidations(handler.validator)

	return handler
}

func (h *RequestHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RequestHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create handles service request creation
func (h *RequestHandler) Create(c fiber.Ctx) error {
	var req dto.CreateServiceRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	ipAddress := c.IP()
	userAgent := c.Get("User-Agent")
	metadata := businessflow.NewClientMetadata(ipAddress, userAgent)

	// Call business logic with proper context
	result, err := h.requestFlow.Create(h.createRequestContext(c, "/api/v1/requests"), &req, metadata)
	if err != nil {
		// Handle specific business errors
		var conflict *businessflow.ActiveRequestConflict
		if errors.As(err, &conflict) {
			return h.ErrorResponse(c, fiber.StatusConflict, "An active service request already exists", "ACTIVE_REQUEST_EXISTS", fiber.Map{
				"invoiceCode": conflict.InvoiceCode,
				"status":      conflict.Status,
			})
		}
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsRelatedInvoiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Related invoice not found", "RELATED_INVOICE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidIssueType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid issue type", "INVALID_ISSUE_TYPE", nil)
		}
		if businessflow.IsInvalidSourcePath(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid source path", "INVALID_SOURCE_PATH", nil)
		}
		if businessflow.IsDuplicateInvoiceCode(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Duplicate invoice code", "DUPLICATE_INVOICE_CODE", nil)
		}

		log.Println("Service request creation failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Service request creation failed", "REQUEST_CREATION_FAILED", nil)
	}

	if len(result.InvoiceCode) >= 3 {
		middleware.RecordInvoiceMinted(result.InvoiceCode[:3])
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Service request created successfully", result)
}

// ActiveByPhone handles the open-request lookup for a phone number
func (h *RequestHandler) ActiveByPhone(c fiber.Ctx) error {
	phone := c.Params("phone")
	if err := h.validator.Var(phone, "required,mobile_format"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	}

	result, err := h.requestFlow.ActiveByPhone(h.createRequestContext(c, "/api/v1/requests/active/:phone"), phone)
	if err != nil {
		log.Println("Active request lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Active request lookup failed", "REQUEST_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Active request retrieved successfully", result)
}

// History handles the paginated request history lookup for a phone number
func (h *RequestHandler) History(c fiber.Ctx) error {
	phone := c.Params("phone")
	if err := h.validator.Var(phone, "required,mobile_format"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	}

	page := fiber.Query(c, "page", 1)
	pageSize := fiber.Query(c, "pageSize", businessflow.DefaultPageSize)

	result, err := h.requestFlow.History(h.createRequestContext(c, "/api/v1/requests/history/:phone"), phone, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Request history lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request history lookup failed", "REQUEST_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Request history retrieved successfully", result)
}

// UpdateStatus handles lifecycle transitions for a service request
func (h *RequestHandler) UpdateStatus(c fiber.Ctx) error {
	invoiceCode := c.Params("invoiceCode")
	if invoiceCode == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invoice code is required", "INVALID_INVOICE_CODE", nil)
	}

	var req dto.UpdateRequestStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	ipAddress := c.IP()
	userAgent := c.Get("User-Agent")
	metadata := businessflow.NewClientMetadata(ipAddress, userAgent)

	result, err := h.requestFlow.UpdateStatus(h.createRequestContext(c, "/api/v1/requests/:invoiceCode/status"), invoiceCode, &req, metadata)
	if err != nil {
		if businessflow.IsInvoiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Invoice not found", "INVOICE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidRequestStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request status", "INVALID_STATUS", nil)
		}
		if businessflow.IsInvalidStatusTransition(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status transition", "INVALID_STATUS_TRANSITION", nil)
		}

		log.Println("Request status update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request status update failed", "REQUEST_STATUS_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Request status updated successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *RequestHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
