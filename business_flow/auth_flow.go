// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/redis/go-redis/v9"
	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/app/services"
	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/repository"
	"github.com/samiwater/samiwater-backend/utils"
	"gorm.io/gorm"
)

// AuthFlow handles OTP-based login
type AuthFlow interface {
	RequestOTP(ctx context.Context, request *dto.RequestOTPRequest, metadata *ClientMetadata) (*dto.RequestOTPResponse, error)
	VerifyOTP(ctx context.Context, request *dto.VerifyOTPRequest, metadata *ClientMetadata) (*dto.VerifyOTPResponse, error)
}

// AuthFlowImpl implements the OTP login business flow
type AuthFlowImpl struct {
	otpRepo      repository.OTPVerificationRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditLogRepository
	smsService   services.SMSService
	tokenService services.TokenService
	roleResolver services.RoleResolver
	rc           *redis.Client
	db           *gorm.DB
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	otpRepo repository.OTPVerificationRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditLogRepository,
	smsService services.SMSService,
	tokenService services.TokenService,
	roleResolver services.RoleResolver,
	rc *redis.Client,
	db *gorm.DB,
) AuthFlow {
	return &AuthFlowImpl{
		otpRepo:      otpRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		smsService:   smsService,
		tokenService: tokenService,
		roleResolver: roleResolver,
		rc:           rc,
		db:           db,
	}
}

// RequestOTP issues a fresh login code for the phone and sends it via SMS.
// A resend cooldown is enforced through Redis; issuing a new code expires
// any prior pending codes so only the latest one can succeed.
func (af *AuthFlowImpl) RequestOTP(ctx context.Context, request *dto.RequestOTPRequest, metadata *ClientMetadata) (*dto.RequestOTPResponse, error) {
	if err := af.checkResendCooldown(ctx, request.Phone); err != nil {
		return nil, NewBusinessError("OTP_COOLDOWN", "OTP was requested too recently", err)
	}

	var otp *models.OTPVerification

	resp, err := af.WithRequestOTPTransaction(ctx, func(ctx context.Context) (*dto.RequestOTPResponse, error) {
		if err := af.otpRepo.ExpirePending(ctx, request.Phone, models.OTPPurposeLogin); err != nil {
			return nil, err
		}

		otpCode, err := GenerateOTP()
		if err != nil {
			return nil, err
		}

		// Known customers get their ID attached for auditability; unknown
		// phones may still log in and receive the user role.
		var customerID *uint
		customer, err := af.customerRepo.ByPhone(ctx, request.Phone)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			customerID = &customer.ID
		}

		ipAddress := "127.0.0.1"
		userAgent := ""
		if metadata != nil {
			ipAddress = metadata.IPAddress
			userAgent = metadata.UserAgent
		}

		otp = &models.OTPVerification{
			Phone:         request.Phone,
			CustomerID:    customerID,
			OTPCode:       otpCode,
			Purpose:       models.OTPPurposeLogin,
			Status:        models.OTPStatusPending,
			AttemptsCount: 0,
			MaxAttempts:   utils.OTPMaxAttempts,
			ExpiresAt:     utils.UTCNowAdd(utils.OTPExpiry),
			IPAddress:     &ipAddress,
			UserAgent:     &userAgent,
		}

		if err := af.otpRepo.Save(ctx, otp); err != nil {
			return nil, err
		}

		if err := af.smsService.SendOTP(ctx, request.Phone, otpCode); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSMSSendFailed, err)
		}

		return &dto.RequestOTPResponse{
			OTPSent:     true,
			MaskedPhone: utils.MaskPhone(request.Phone),
			ExpiresIn:   utils.OTPExpirySeconds,
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("OTP issuance failed: %s", err.Error())
		_ = af.LogAuthEvent(ctx, request.Phone, models.AuditActionOTPFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("OTP_REQUEST_FAILED", "OTP request failed", err)
	}

	msg := fmt.Sprintf("OTP issued for %s", utils.MaskPhone(request.Phone))
	_ = af.LogAuthEvent(ctx, request.Phone, models.AuditActionOTPGenerated, msg, true, nil, metadata)

	return resp, nil
}

// VerifyOTP checks the submitted code against the latest pending code for
// the phone. The code is single-use: success marks it used, exhausting the
// attempt budget marks it failed. An admin phone with a configured PIN must
// also pass the PIN check, and a wrong PIN does not consume the code.
func (af *AuthFlowImpl) VerifyOTP(ctx context.Context, request *dto.VerifyOTPRequest, metadata *ClientMetadata) (*dto.VerifyOTPResponse, error) {
	var role services.Role

	resp, err := af.WithVerifyOTPTransaction(ctx, func(ctx context.Context) (*dto.VerifyOTPResponse, error) {
		otp, err := af.otpRepo.LatestByPhone(ctx, request.Phone, models.OTPPurposeLogin)
		if err != nil {
			return nil, err
		}
		if otp == nil || otp.Status != models.OTPStatusPending {
			return nil, ErrNoValidOTPFound
		}

		if otp.IsExpired() {
			otp.Status = models.OTPStatusExpired
			_ = af.otpRepo.Update(ctx, otp)
			return nil, ErrOTPExpired
		}

		if !otp.CanAttempt() {
			otp.Status = models.OTPStatusFailed
			_ = af.otpRepo.Update(ctx, otp)
			return nil, ErrOTPAttemptsExceeded
		}

		if otp.OTPCode != request.Code {
			otp.AttemptsCount++
			if !otp.CanAttempt() {
				otp.Status = models.OTPStatusFailed
			}
			if err := af.otpRepo.Update(ctx, otp); err != nil {
				return nil, err
			}
			return nil, ErrInvalidOTPCode
		}

		role = af.roleResolver.Resolve(request.Phone)

		// The PIN gate runs before the code is consumed so a typo in the
		// PIN leaves the code retryable until it expires.
		if af.roleResolver.RequiresPIN(role) {
			pin := ""
			if request.PIN != nil {
				pin = *request.PIN
			}
			if err := af.roleResolver.VerifyPIN(pin); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidAdminPIN, err)
			}
		}

		otp.Status = models.OTPStatusUsed
		otp.UsedAt = utils.UTCNowPtr()
		if err := af.otpRepo.Update(ctx, otp); err != nil {
			return nil, err
		}

		var customerDTO *dto.CustomerDTO
		var customerID *uint
		customer, err := af.customerRepo.ByPhone(ctx, request.Phone)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			customerID = &customer.ID
			d := ToCustomerDTO(*customer)
			customerDTO = &d
		}

		token, err := af.tokenService.GenerateToken(customerID, request.Phone, role)
		if err != nil {
			return nil, err
		}

		return &dto.VerifyOTPResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresIn: utils.AccessTokenTTLSeconds,
			Role:      string(role),
			Customer:  customerDTO,
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("OTP verification failed: %s", err.Error())
		_ = af.LogAuthEvent(ctx, request.Phone, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("OTP_VERIFICATION_FAILED", "OTP verification failed", err)
	}

	msg := fmt.Sprintf("Login successful for %s as %s", utils.MaskPhone(request.Phone), resp.Role)
	_ = af.LogAuthEvent(ctx, request.Phone, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return resp, nil
}

// Private helper methods

// checkResendCooldown takes a short-lived Redis lock per phone. When Redis
// is unreachable the cooldown fails open: losing rate limiting briefly is
// preferable to blocking all logins.
func (af *AuthFlowImpl) checkResendCooldown(ctx context.Context, phone string) error {
	if af.rc == nil {
		return nil
	}

	key := fmt.Sprintf("otp:cooldown:%s", phone)
	ok, err := af.rc.SetNX(ctx, key, "1", utils.OTPResendCooldown).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil
	}
	if !ok {
		return ErrOTPCooldown
	}
	return nil
}

// GenerateOTP generates a secure 6-digit login code
func GenerateOTP() (string, error) {
	max := big.NewInt(999999)
	min := big.NewInt(100000)

	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", new(big.Int).Add(n, min).Int64()), nil
}

func (af *AuthFlowImpl) LogAuthEvent(ctx context.Context, phone string, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
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

	return af.auditRepo.Save(ctx, audit)
}

func (af *AuthFlowImpl) WithRequestOTPTransaction(ctx context.Context, fn func(context.Context) (*dto.RequestOTPResponse, error)) (*dto.RequestOTPResponse, error) {
	var result *dto.RequestOTPResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (af *AuthFlowImpl) WithVerifyOTPTransaction(ctx context.Context, fn func(context.Context) (*dto.VerifyOTPResponse, error)) (*dto.VerifyOTPResponse, error) {
	var result *dto.VerifyOTPResponse
	var fnErr error

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
