// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samiwater/samiwater-backend/app/dto"
	businessflow "github.com/samiwater/samiwater-backend/business_flow"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	ListRequests(c fiber.Ctx) error
	ExportRequests(c fiber.Ctx) error
}

// AdminHandler handles back-office HTTP requests
type AdminHandler struct {
	requestFlow businessflow.RequestFlow
	exportFlow  businessflow.AdminExportFlow
	validator   *validator.Validate
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(requestFlow businessflow.RequestFlow, exportFlow businessflow.AdminExportFlow) *AdminHandler {
	handler := &AdminHandler{
		requestFlow: requestFlow,
		exportFlow:  exportFlow,
		validator:   validator.New(),
	}

	setupCustomValidations(handler.validator)

	return handler
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListRequests returns requests across all customers, optionally filtered
// by status.
func (h *AdminHandler) ListRequests(c fiber.Ctx) error {
	var status *string
	if s := fiber.Query[string](c, "status"); s != "" {
		status = &s
	}

	page := fiber.Query(c, "page", 1)
	pageSize := fiber.Query(c, "pageSize", businessflow.DefaultPageSize)

	result, err := h.requestFlow.List(h.createRequestContext(c, "/api/v1/admin/requests"), status, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidRequestStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request status", "INVALID_STATUS", nil)
		}
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Admin request listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request listing failed", "REQUEST_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Requests retrieved successfully", result)
}

// ExportRequests streams an xlsx workbook of service requests
func (h *AdminHandler) ExportRequests(c fiber.Ctx) error {
	var status *string
	if s := fiber.Query[string](c, "status"); s != "" {
		status = &s
	}

	ipAddress := c.IP()
	userAgent := c.Get("User-Agent")
	metadata := businessflow.NewClientMetadata(ipAddress, userAgent)

	filename, payload, err := h.exportFlow.DownloadRequestsExcel(h.createRequestContext(c, "/api/v1/admin/requests/export"), status, metadata)
	if err != nil {
		if businessflow.IsInvalidRequestStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request status", "INVALID_STATUS", nil)
		}

		log.Println("Request export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Request export failed", "REQUEST_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(payload)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 60*time.Second)
}
