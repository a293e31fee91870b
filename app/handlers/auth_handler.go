// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/app/middleware"
	businessflow "github.com/samiwater/samiwater-backend/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	RequestOTP(c fiber.Ctx) error
	VerifyOTP(c fiber.Ctx) error
	Me(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authFlow     businessflow.AuthFlow
	customerFlow businessflow.CustomerFlow
	validator    *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow, customerFlow businessflow.CustomerFlow) *AuthHandler {
	handler := &AuthHandler{
		authFlow:     authFlow,
		customerFlow: customerFlow,
		validator:    validator.New(),
	}

	setupCustomValidations(handler.validator)

	return handler
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RequestOTP handles issuing a login code to a phone number
func (h *AuthHandler) RequestOTP(c fiber.Ctx) error {
	var req dto.RequestOTPRequest
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
	result, err := h.authFlow.RequestOTP(h.createRequestContext(c, "/api/v1/auth/request-otp"), &req, metadata)
	if err != nil {
		// Handle specific business errors
		if businessflow.IsOTPCooldown(err) {
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "OTP was requested too recently", "OTP_COOLDOWN", nil)
		}
		if businessflow.IsSMSSendFailed(err) {
			log.Println("OTP SMS delivery failed", err)
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send OTP", "SMS_SEND_FAILED", nil)
		}

		log.Println("OTP request failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "OTP request failed", "OTP_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "OTP sent successfully", result)
}

// VerifyOTP handles login code verification. The endpoint accepts both a
// JSON body (POST) and query parameters (GET) for legacy clients.
func (h *AuthHandler) VerifyOTP(c fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if c.Method() == fiber.MethodGet {
		req.Phone = fiber.Query[string](c, "phone")
		req.Code = fiber.Query[string](c, "code")
		if pin := fiber.Query[string](c, "pin"); pin != "" {
			req.PIN = &pin
		}
	} else {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
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
	result, err := h.authFlow.VerifyOTP(h.createRequestContext(c, "/api/v1/auth/verify-otp"), &req, metadata)
	if err != nil {
		middleware.RecordOTPVerification("failure")

		// Handle specific business errors
		if businessflow.IsNoValidOTPFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "No valid OTP found", "NO_VALID_OTP", nil)
		}
		if businessflow.IsInvalidOTPCode(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid OTP code", "INVALID_OTP_CODE", nil)
		}
		if businessflow.IsOTPExpired(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "OTP expired", "OTP_EXPIRED", nil)
		}
		if businessflow.IsOTPAttemptsExceeded(err) {
			return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many OTP attempts", "OTP_ATTEMPTS_EXCEEDED", nil)
		}
		if businessflow.IsInvalidAdminPIN(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Invalid admin PIN", "INVALID_ADMIN_PIN", nil)
		}

		log.Println("OTP verification failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "OTP verification failed", "OTP_VERIFICATION_FAILED", nil)
	}

	middleware.RecordOTPVerification("success")

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Me returns the identity behind the presented token
func (h *AuthHandler) Me(c fiber.Ctx) error {
	phone := middleware.PhoneFromContext(c)
	role := middleware.RoleFromContext(c)
	if phone == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	data := fiber.Map{
		"phone": phone,
		"role":  role,
	}

	customer, err := h.customerFlow.GetByPhone(h.createRequestContext(c, "/api/v1/auth/me"), phone)
	if err == nil {
		data["customer"] = customer
	} else if !businessflow.IsCustomerNotFound(err) {
		log.Println("Identity lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Identity lookup failed", "IDENTITY_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Identity retrieved successfully", data)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AuthHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
