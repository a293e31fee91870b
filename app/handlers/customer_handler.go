// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samiwater/samiwater-backend/app/dto"
	businessflow "github.com/samiwater/samiwater-backend/business_flow"
)

// CustomerHandlerInterface defines the contract for customer handlers
type CustomerHandlerInterface interface {
	Create(c fiber.Ctx) error
	GetByPhone(c fiber.Ctx) error
	UpdateByPhone(c fiber.Ctx) error
}

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerFlow businessflow.CustomerFlow
	validator    *validator.Validate
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerFlow businessflow.CustomerFlow) *CustomerHandler {
	handler := &CustomerHandler{
		customerFlow: customerFlow,
		validator:    validator.New(),
	}

	setupCustomValidations(handler.validator)

	return handler
}

func (h *CustomerHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CustomerHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create handles customer registration
func (h *CustomerHandler) Create(c fiber.Ctx) error {
	var req dto.CreateCustomerRequest
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
	result, err := h.customerFlow.Register(h.createRequestContext(c, "/api/v1/customers"), &req, metadata)
	if err != nil {
		// Handle specific business errors
		if businessflow.IsPhoneAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Phone number already exists", "PHONE_EXISTS", nil)
		}
		if businessflow.IsInvalidBirthdate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Birthdate fields are invalid", "INVALID_BIRTHDATE", nil)
		}
		if businessflow.IsDiscountOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Discount percent must be between 0 and 100", "DISCOUNT_OUT_OF_RANGE", nil)
		}

		log.Println("Customer registration failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Customer registration failed", "CUSTOMER_REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Customer registered successfully", result)
}

// GetByPhone handles customer lookup by phone number
func (h *CustomerHandler) GetByPhone(c fiber.Ctx) error {
	phone := c.Params("phone")
	if err := h.validator.Var(phone, "required,mobile_format"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	}

	result, err := h.customerFlow.GetByPhone(h.createRequestContext(c, "/api/v1/customers/phone/:phone"), phone)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}

		log.Println("Customer lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Customer lookup failed", "CUSTOMER_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer retrieved successfully", result)
}

// UpdateByPhone handles customer profile edits. Phone and join timestamp
// are not editable through this endpoint.
func (h *CustomerHandler) UpdateByPhone(c fiber.Ctx) error {
	phone := c.Params("phone")
	if err := h.validator.Var(phone, "required,mobile_format"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	}

	var req dto.UpdateCustomerRequest
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

	result, err := h.customerFlow.UpdateByPhone(h.createRequestContext(c, "/api/v1/customers/phone/:phone"), phone, &req, metadata)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsCustomerUpdateEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "EMPTY_UPDATE", nil)
		}
		if businessflow.IsInvalidBirthdate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Birthdate fields are invalid", "INVALID_BIRTHDATE", nil)
		}
		if businessflow.IsDiscountOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Discount percent must be between 0 and 100", "DISCOUNT_OUT_OF_RANGE", nil)
		}

		log.Println("Customer update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Customer update failed", "CUSTOMER_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer updated successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CustomerHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
