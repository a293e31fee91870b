// Package businessflow contains the core business logic and use cases for customer management
package businessflow

import (
	"context"
	"fmt"

	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/repository"
	"github.com/samiwater/samiwater-backend/utils"
	"gorm.io/gorm"
)

// CustomerFlow handles customer registration and profile management
type CustomerFlow interface {
	Register(ctx context.Context, request *dto.CreateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error)
	GetByPhone(ctx context.Context, phone string) (*dto.CustomerDTO, error)
	UpdateByPhone(ctx context.Context, phone string, request *dto.UpdateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error)
}

// CustomerFlowImpl implements the customer business flow
type CustomerFlowImpl struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewCustomerFlow creates a new customer flow instance
func NewCustomerFlow(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CustomerFlow {
	return &CustomerFlowImpl{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// Register creates a new customer. The phone number is the identity key and
// must not already exist; city defaults to Isfahan and the join timestamp is
// set once here.
func (cf *CustomerFlowImpl) Register(ctx context.Context, request *dto.CreateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error) {
	if err := cf.validateRegisterRequest(request); err != nil {
		return nil, NewBusinessError("CUSTOMER_VALIDATION_FAILED", "Customer validation failed", err)
	}

	var customer *models.Customer

	resp, err := cf.WithRegisterTransaction(ctx, func(ctx context.Context) (*dto.CustomerDTO, error) {
		existing, err := cf.customerRepo.ByPhone(ctx, request.Phone)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrPhoneAlreadyExists
		}

		city := utils.DefaultCity
		if request.City != nil && *request.City != "" {
			city = *request.City
		}

		customer = &models.Customer{
			FullName:        request.FullName,
			Phone:           request.Phone,
			AltPhone:        request.AltPhone,
			Address:         request.Address,
			City:            city,
			BirthYear:       request.BirthYear,
			BirthMonth:      request.BirthMonth,
			BirthDay:        request.BirthDay,
			DiscountPercent: request.DiscountPercent,
			JoinedAt:        utils.UTCNow(),
		}

		if err := cf.customerRepo.Save(ctx, customer); err != nil {
			// Concurrent registration with the same phone loses the race
			// at the unique index rather than at the existence check.
			if repository.IsUniqueViolation(err) {
				return nil, ErrPhoneAlreadyExists
			}
			return nil, err
		}

		result := ToCustomerDTO(*customer)
		return &result, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Customer registration failed: %s", err.Error())
		_ = cf.LogCustomerEvent(ctx, customer, models.AuditActionCustomerRegistered, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CUSTOMER_REGISTRATION_FAILED", "Customer registration failed", err)
	}

	msg := fmt.Sprintf("Customer registered successfully: %s", utils.MaskPhone(resp.Phone))
	_ = cf.LogCustomerEvent(ctx, customer, models.AuditActionCustomerRegistered, msg, true, nil, metadata)

	return resp, nil
}

// GetByPhone looks up a customer by phone number
func (cf *CustomerFlowImpl) GetByPhone(ctx context.Context, phone string) (*dto.CustomerDTO, error) {
	customer, err := cf.customerRepo.ByPhone(ctx, phone)
	if err != nil {
		return nil, NewBusinessError("CUSTOMER_LOOKUP_FAILED", "Customer lookup failed", err)
	}
	if customer == nil {
		return nil, NewBusinessError("CUSTOMER_NOT_FOUND", "Customer not found", ErrCustomerNotFound)
	}

	result := ToCustomerDTO(*customer)
	return &result, nil
}

// UpdateByPhone edits an existing customer's profile. Phone and the join
// timestamp never change through this path.
func (cf *CustomerFlowImpl) UpdateByPhone(ctx context.Context, phone string, request *dto.UpdateCustomerRequest, metadata *ClientMetadata) (*dto.CustomerDTO, error) {
	if err := cf.validateUpdateRequest(request); err != nil {
		return nil, NewBusinessError("CUSTOMER_VALIDATION_FAILED", "Customer validation failed", err)
	}

	var customer *models.Customer

	resp, err := cf.WithRegisterTransaction(ctx, func(ctx context.Context) (*dto.CustomerDTO, error) {
		var err error
		customer, err = cf.customerRepo.ByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, ErrCustomerNotFound
		}

		if request.FullName != nil {
			customer.FullName = *request.FullName
		}
		if request.Address != nil {
			customer.Address = *request.Address
		}
		if request.AltPhone != nil {
			customer.AltPhone = request.AltPhone
		}
		if request.City != nil && *request.City != "" {
			customer.City = *request.City
		}
		if request.BirthYear != nil {
			customer.BirthYear = request.BirthYear
		}
		if request.BirthMonth != nil {
			customer.BirthMonth = request.BirthMonth
		}
		if request.BirthDay != nil {
			customer.BirthDay = request.BirthDay
		}
		if request.DiscountPercent != nil {
			customer.DiscountPercent = request.DiscountPercent
		}

		if err := cf.customerRepo.Update(ctx, customer); err != nil {
			return nil, err
		}

		result := ToCustomerDTO(*customer)
		return &result, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Customer update failed: %s", err.Error())
		_ = cf.LogCustomerEvent(ctx, customer, models.AuditActionCustomerUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CUSTOMER_UPDATE_FAILED", "Customer update failed", err)
	}

	msg := fmt.Sprintf("Customer updated successfully: %s", utils.MaskPhone(phone))
	_ = cf.LogCustomerEvent(ctx, customer, models.AuditActionCustomerUpdated, msg, true, nil, metadata)

	return resp, nil
}

// Private helper methods

func (cf *CustomerFlowImpl) validateRegisterRequest(request *dto.CreateCustomerRequest) error {
	if err := validateBirthdate(request.BirthYear, request.BirthMonth, request.BirthDay); err != nil {
		return err
	}

	if request.DiscountPercent != nil && (*request.DiscountPercent < 0 || *request.DiscountPercent > 100) {
		return ErrDiscountOutOfRange
	}

	return nil
}

func (cf *CustomerFlowImpl) validateUpdateRequest(request *dto.UpdateCustomerRequest) error {
	if request.FullName == nil && request.Address == nil && request.AltPhone == nil &&
		request.City == nil && request.BirthYear == nil && request.BirthMonth == nil &&
		request.BirthDay == nil && request.DiscountPercent == nil {
		return ErrCustomerUpdateEmpty
	}

	if err := validateBirthdate(request.BirthYear, request.BirthMonth, request.BirthDay); err != nil {
		return err
	}

	if request.DiscountPercent != nil && (*request.DiscountPercent < 0 || *request.DiscountPercent > 100) {
		return ErrDiscountOutOfRange
	}

	return nil
}

// validateBirthdate checks the optional Jalali birthdate fields. Each field
// may be omitted independently, but a present field must be in range.
func validateBirthdate(year, month, day *int) error {
	if year != nil && (*year < 1300 || *year > 1450) {
		return ErrInvalidBirthdate
	}
	if month != nil && (*month < 1 || *month > 12) {
		return ErrInvalidBirthdate
	}
	if day != nil && (*day < 1 || *day > 31) {
		return ErrInvalidBirthdate
	}
	return nil
}

func (cf *CustomerFlowImpl) LogCustomerEvent(ctx context.Context, customer *models.Customer, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return cf.auditRepo.Save(ctx, audit)
}

func (cf *CustomerFlowImpl) WithRegisterTransaction(ctx context.Context, fn func(context.Context) (*dto.CustomerDTO, error)) (*dto.CustomerDTO, error) {
	var result *dto.CustomerDTO
	var fnErr error

	err := repository.WithTransaction(ctx, cf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
