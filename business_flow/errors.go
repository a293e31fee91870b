// Package businessflow contains the core business logic and use cases for the service backend
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrPhoneAlreadyExists  = errors.New("phone number already exists")
	ErrInvalidBirthdate    = errors.New("birthdate fields are invalid")
	ErrDiscountOutOfRange  = errors.New("discount percent must be between 0 and 100")
	ErrCustomerUpdateEmpty = errors.New("at least one field must be provided for update")

	// Service request errors
	ErrActiveRequestExists     = errors.New("an active service request already exists for this phone")
	ErrRelatedInvoiceNotFound  = errors.New("related invoice not found")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrInvalidRequestStatus    = errors.New("invalid request status")
	ErrInvalidStatusTransition = errors.New("invalid request status transition")
	ErrInvalidIssueType        = errors.New("invalid issue type")
	ErrInvalidSourcePath       = errors.New("invalid source path")
	ErrDuplicateInvoiceCode    = errors.New("duplicate invoice code")

	// OTP-related errors
	ErrNoValidOTPFound     = errors.New("no valid OTP found")
	ErrInvalidOTPCode      = errors.New("invalid OTP code")
	ErrOTPExpired          = errors.New("OTP has expired")
	ErrOTPAttemptsExceeded = errors.New("too many OTP attempts")
	ErrOTPCooldown         = errors.New("OTP was requested too recently")
	ErrInvalidAdminPIN     = errors.New("invalid admin PIN")

	// SMS errors
	ErrSMSSendFailed = errors.New("failed to send SMS")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

// ActiveRequestConflict carries the blocking request's identity so the
// caller can tell the client which ticket is still open.
type ActiveRequestConflict struct {
	InvoiceCode string
	Status      string
}

func (e *ActiveRequestConflict) Error() string {
	return fmt.Sprintf("an active service request already exists: invoice %s (%s)", e.InvoiceCode, e.Status)
}

func (e *ActiveRequestConflict) Unwrap() error {
	return ErrActiveRequestExists
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsPhoneAlreadyExists(err error) bool {
	return errors.Is(err, ErrPhoneAlreadyExists)
}

func IsInvalidBirthdate(err error) bool {
	return errors.Is(err, ErrInvalidBirthdate)
}

func IsDiscountOutOfRange(err error) bool {
	return errors.Is(err, ErrDiscountOutOfRange)
}

func IsCustomerUpdateEmpty(err error) bool {
	return errors.Is(err, ErrCustomerUpdateEmpty)
}

func IsActiveRequestExists(err error) bool {
	return errors.Is(err, ErrActiveRequestExists)
}

func IsRelatedInvoiceNotFound(err error) bool {
	return errors.Is(err, ErrRelatedInvoiceNotFound)
}

func IsInvoiceNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound)
}

func IsInvalidRequestStatus(err error) bool {
	return errors.Is(err, ErrInvalidRequestStatus)
}

func IsInvalidStatusTransition(err error) bool {
	return errors.Is(err, ErrInvalidStatusTransition)
}

func IsInvalidIssueType(err error) bool {
	return errors.Is(err, ErrInvalidIssueType)
}

func IsInvalidSourcePath(err error) bool {
	return errors.Is(err, ErrInvalidSourcePath)
}

func IsDuplicateInvoiceCode(err error) bool {
	return errors.Is(err, ErrDuplicateInvoiceCode)
}

func IsNoValidOTPFound(err error) bool {
	return errors.Is(err, ErrNoValidOTPFound)
}

func IsInvalidOTPCode(err error) bool {
	return errors.Is(err, ErrInvalidOTPCode)
}

func IsOTPExpired(err error) bool {
	return errors.Is(err, ErrOTPExpired)
}

func IsOTPAttemptsExceeded(err error) bool {
	return errors.Is(err, ErrOTPAttemptsExceeded)
}

func IsOTPCooldown(err error) bool {
	return errors.Is(err, ErrOTPCooldown)
}

func IsInvalidAdminPIN(err error) bool {
	return errors.Is(err, ErrInvalidAdminPIN)
}

func IsSMSSendFailed(err error) bool {
	return errors.Is(err, ErrSMSSendFailed)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
