// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/app/services"
	"github.com/samiwater/samiwater-backend/utils"
)

// SMSHandlerInterface defines the contract for SMS diagnostics handlers
type SMSHandlerInterface interface {
	TestSMS(c fiber.Ctx) error
}

// SMSHandler exposes the provider connectivity check
type SMSHandler struct {
	smsService services.SMSService
	validator  *validator.Validate
}

// NewSMSHandler creates a new SMS diagnostics handler
func NewSMSHandler(smsService services.SMSService) *SMSHandler {
	handler := &SMSHandler{
		smsService: smsService,
		validator:  validator.New(),
	}

	setupCustomValidations(handler.validator)

	return handler
}

func (h *SMSHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SMSHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// TestSMS sends a fixed diagnostic message to the given phone to verify the
// SMS provider wiring end to end.
func (h *SMSHandler) TestSMS(c fiber.Ctx) error {
	to := fiber.Query[string](c, "to")
	if err := h.validator.Var(to, "required,mobile_format"); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid phone number", "INVALID_PHONE", nil)
	}

	message := fiber.Query[string](c, "message", "سامی واتر: پیامک آزمایشی")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := h.smsService.SendSMS(ctx, to, message); err != nil {
		log.Println("Test SMS failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send test SMS", "SMS_SEND_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Test SMS sent successfully", fiber.Map{
		"to":     utils.MaskPhone(to),
		"sentAt": time.Now().UTC().Format(time.RFC3339),
	})
}
