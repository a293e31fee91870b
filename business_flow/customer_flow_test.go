package businessflow

import (
	"context"
	"testing"

	"github.com/samiwater/samiwater-backend/app/dto"
	testingutil "github.com/samiwater/samiwater-backend/testing"
	"github.com/samiwater/samiwater-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomerFlowUnderTest() (CustomerFlow, *testingutil.MemoryCustomerRepository, *testingutil.MemoryAuditLogRepository) {
	customerRepo := testingutil.NewMemoryCustomerRepository()
	auditRepo := testingutil.NewMemoryAuditLogRepository()
	flow := NewCustomerFlow(customerRepo, auditRepo, nil)
	return flow, customerRepo, auditRepo
}

func TestCustomerRegister(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("SuccessfulRegistrationWithDefaults", func(t *testing.T) {
		flow, customerRepo, _ := newCustomerFlowUnderTest()

		result, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName: "Reza Ahmadi",
			Phone:    "09131234567",
			Address:  "Chaharbagh Abbasi, Isfahan",
		}, metadata)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "Reza Ahmadi", result.FullName)
		assert.Equal(t, "09131234567", result.Phone)
		assert.Equal(t, utils.DefaultCity, result.City)
		assert.NotEmpty(t, result.UUID)
		assert.NotEmpty(t, result.JoinedAt)

		stored, err := customerRepo.ByPhone(ctx, "09131234567")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.False(t, stored.JoinedAt.IsZero())
	})

	t.Run("ExplicitCityIsKept", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		result, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName: "Sara Karimi",
			Phone:    "09131234568",
			Address:  "Valiasr St, Tehran",
			City:     utils.ToPtr("Tehran"),
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, "Tehran", result.City)
	})

	t.Run("DuplicatePhoneRejected", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		req := &dto.CreateCustomerRequest{
			FullName: "Reza Ahmadi",
			Phone:    "09131234567",
			Address:  "Chaharbagh Abbasi, Isfahan",
		}

		_, err := flow.Register(ctx, req, metadata)
		require.NoError(t, err)

		_, err = flow.Register(ctx, req, metadata)
		require.Error(t, err)
		assert.True(t, IsPhoneAlreadyExists(err))
	})

	t.Run("InvalidBirthdateRejected", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName:  "Reza Ahmadi",
			Phone:     "09131234567",
			Address:   "Chaharbagh Abbasi, Isfahan",
			BirthYear: utils.ToPtr(1299),
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidBirthdate(err))
	})

	t.Run("DiscountOutOfRangeRejected", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName:        "Reza Ahmadi",
			Phone:           "09131234567",
			Address:         "Chaharbagh Abbasi, Isfahan",
			DiscountPercent: utils.ToPtr(150),
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsDiscountOutOfRange(err))
	})
}

func TestCustomerGetByPhone(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("ExistingCustomer", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName: "Reza Ahmadi",
			Phone:    "09131234567",
			Address:  "Chaharbagh Abbasi, Isfahan",
		}, metadata)
		require.NoError(t, err)

		result, err := flow.GetByPhone(ctx, "09131234567")
		require.NoError(t, err)
		assert.Equal(t, "Reza Ahmadi", result.FullName)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.GetByPhone(ctx, "09139999999")
		require.Error(t, err)
		assert.True(t, IsCustomerNotFound(err))
	})
}

func TestCustomerUpdateByPhone(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("PhoneAndJoinedAtAreImmutable", func(t *testing.T) {
		flow, customerRepo, _ := newCustomerFlowUnderTest()

		created, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName: "Reza Ahmadi",
			Phone:    "09131234567",
			Address:  "Chaharbagh Abbasi, Isfahan",
		}, metadata)
		require.NoError(t, err)

		updated, err := flow.UpdateByPhone(ctx, "09131234567", &dto.UpdateCustomerRequest{
			FullName: utils.ToPtr("Reza Ahmadi Nejad"),
			Address:  utils.ToPtr("Hakim Nezami St, Isfahan"),
		}, metadata)
		require.NoError(t, err)

		assert.Equal(t, "Reza Ahmadi Nejad", updated.FullName)
		assert.Equal(t, "Hakim Nezami St, Isfahan", updated.Address)
		assert.Equal(t, created.Phone, updated.Phone)
		assert.Equal(t, created.JoinedAt, updated.JoinedAt)

		stored, err := customerRepo.ByPhone(ctx, "09131234567")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Reza Ahmadi Nejad", stored.FullName)
	})

	t.Run("EmptyUpdateRejected", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.Register(ctx, &dto.CreateCustomerRequest{
			FullName: "Reza Ahmadi",
			Phone:    "09131234567",
			Address:  "Chaharbagh Abbasi, Isfahan",
		}, metadata)
		require.NoError(t, err)

		_, err = flow.UpdateByPhone(ctx, "09131234567", &dto.UpdateCustomerRequest{}, metadata)
		require.Error(t, err)
		assert.True(t, IsCustomerUpdateEmpty(err))
	})

	t.Run("UnknownCustomerRejected", func(t *testing.T) {
		flow, _, _ := newCustomerFlowUnderTest()

		_, err := flow.UpdateByPhone(ctx, "09139999999", &dto.UpdateCustomerRequest{
			FullName: utils.ToPtr("Nobody"),
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsCustomerNotFound(err))
	})
}
