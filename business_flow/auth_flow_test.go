package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/app/services"
	"github.com/samiwater/samiwater-backend/models"
	testingutil "github.com/samiwater/samiwater-backend/testing"
	"github.com/samiwater/samiwater-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminPhone = "09120000000"
	testAdminPIN   = "492817"
)

type authFlowFixture struct {
	flow         AuthFlow
	otpRepo      *testingutil.MemoryOTPVerificationRepository
	customerRepo *testingutil.MemoryCustomerRepository
	smsService   *services.MockSMSService
}

func newAuthFlowUnderTest(t *testing.T, withAdminPIN bool) *authFlowFixture {
	t.Helper()

	otpRepo := testingutil.NewMemoryOTPVerificationRepository()
	customerRepo := testingutil.NewMemoryCustomerRepository()
	auditRepo := testingutil.NewMemoryAuditLogRepository()
	smsService := services.NewMockSMSService()

	tokenService, err := services.NewTokenService(
		time.Hour,
		"samiwater-test",
		"samiwater-test-api",
		"test-secret-key-0123456789abcdef0123456789abcdef",
	)
	require.NoError(t, err)

	pinHash := ""
	if withAdminPIN {
		hashed, err := bcrypt.GenerateFromPassword([]byte(testAdminPIN), bcrypt.MinCost)
		require.NoError(t, err)
		pinHash = string(hashed)
	}
	roleResolver := services.NewRoleResolver(testAdminPhone, pinHash)

	flow := NewAuthFlow(otpRepo, customerRepo, auditRepo, smsService, tokenService, roleResolver, nil, nil)

	return &authFlowFixture{
		flow:         flow,
		otpRepo:      otpRepo,
		customerRepo: customerRepo,
		smsService:   smsService,
	}
}

func (f *authFlowFixture) latestCode(t *testing.T, phone string) string {
	t.Helper()

	otp, err := f.otpRepo.LatestByPhone(context.Background(), phone, models.OTPPurposeLogin)
	require.NoError(t, err)
	require.NotNil(t, otp)
	return otp.OTPCode
}

func TestRequestOTP(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("CodeIssuedAndSent", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)

		result, err := f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: "09131234567"}, metadata)
		require.NoError(t, err)

		assert.True(t, result.OTPSent)
		assert.Equal(t, utils.MaskPhone("09131234567"), result.MaskedPhone)
		assert.Equal(t, utils.OTPExpirySeconds, result.ExpiresIn)

		require.Len(t, f.smsService.SentMessages, 1)
		assert.Equal(t, "09131234567", f.smsService.SentMessages[0].Recipient)
		assert.Contains(t, f.smsService.SentMessages[0].Message, f.latestCode(t, "09131234567"))
	})

	t.Run("NewCodeExpiresPriorOne", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)

		_, err := f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: "09131234567"}, metadata)
		require.NoError(t, err)
		firstCode := f.latestCode(t, "09131234567")

		_, err = f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: "09131234567"}, metadata)
		require.NoError(t, err)

		_, err = f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  firstCode,
		}, metadata)
		require.Error(t, err)
	})

	t.Run("SMSFailureSurfaces", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		f.smsService.FailNext = true

		_, err := f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: "09131234567"}, metadata)
		require.Error(t, err)
		assert.True(t, IsSMSSendFailed(err))
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	requestCode := func(t *testing.T, f *authFlowFixture, phone string) string {
		t.Helper()
		_, err := f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: phone}, metadata)
		require.NoError(t, err)
		return f.latestCode(t, phone)
	}

	t.Run("SuccessfulLoginAsUser", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		code := requestCode(t, f, "09131234567")

		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.NoError(t, err)

		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, string(services.RoleUser), result.Role)
		assert.Nil(t, result.Customer)
	})

	t.Run("KnownCustomerAttachedToLogin", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		customer := testingutil.NewTestCustomer("09131234567")
		require.NoError(t, f.customerRepo.Save(ctx, customer))

		code := requestCode(t, f, "09131234567")

		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.NoError(t, err)

		require.NotNil(t, result.Customer)
		assert.Equal(t, customer.Phone, result.Customer.Phone)
	})

	t.Run("CodeIsSingleUse", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		code := requestCode(t, f, "09131234567")

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.NoError(t, err)

		_, err = f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsNoValidOTPFound(err))
	})

	t.Run("ExpiredCodeRejected", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)

		otp := testingutil.NewTestOTP("09131234567", "123456")
		otp.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		require.NoError(t, f.otpRepo.Save(ctx, otp))

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  "123456",
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsOTPExpired(err))
	})

	t.Run("WrongCodeBurnsOneAttempt", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		code := requestCode(t, f, "09131234567")

		wrong := "000000"
		if code == wrong {
			wrong = "000001"
		}

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  wrong,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidOTPCode(err))

		// The right code still works afterwards
		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("AttemptBudgetExhausted", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		code := requestCode(t, f, "09131234567")

		wrong := "000000"
		if code == wrong {
			wrong = "000001"
		}

		for i := 0; i < utils.OTPMaxAttempts; i++ {
			_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
				Phone: "09131234567",
				Code:  wrong,
			}, metadata)
			require.Error(t, err)
		}

		// Even the right code is dead now
		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  code,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsNoValidOTPFound(err))
	})

	t.Run("NoCodeRequested", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: "09131234567",
			Code:  "123456",
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsNoValidOTPFound(err))
	})
}

func TestVerifyOTPAdminPIN(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	requestCode := func(t *testing.T, f *authFlowFixture) string {
		t.Helper()
		_, err := f.flow.RequestOTP(ctx, &dto.RequestOTPRequest{Phone: testAdminPhone}, metadata)
		require.NoError(t, err)
		return f.latestCode(t, testAdminPhone)
	}

	t.Run("AdminLoginWithPIN", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, true)
		code := requestCode(t, f)

		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: testAdminPhone,
			Code:  code,
			PIN:   utils.ToPtr(testAdminPIN),
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, string(services.RoleAdmin), result.Role)
	})

	t.Run("WrongPINDoesNotConsumeCode", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, true)
		code := requestCode(t, f)

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: testAdminPhone,
			Code:  code,
			PIN:   utils.ToPtr("000000"),
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidAdminPIN(err))

		// Same code succeeds once the PIN is right
		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: testAdminPhone,
			Code:  code,
			PIN:   utils.ToPtr(testAdminPIN),
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, string(services.RoleAdmin), result.Role)
	})

	t.Run("MissingPINRejected", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, true)
		code := requestCode(t, f)

		_, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: testAdminPhone,
			Code:  code,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidAdminPIN(err))
	})

	t.Run("AdminWithoutConfiguredPINSkipsCheck", func(t *testing.T) {
		f := newAuthFlowUnderTest(t, false)
		code := requestCode(t, f)

		result, err := f.flow.VerifyOTP(ctx, &dto.VerifyOTPRequest{
			Phone: testAdminPhone,
			Code:  code,
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, string(services.RoleAdmin), result.Role)
	})
}
