package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samiwater/samiwater-backend/app/dto"
	"github.com/samiwater/samiwater-backend/models"
	testingutil "github.com/samiwater/samiwater-backend/testing"
	"github.com/samiwater/samiwater-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestFlowFixture struct {
	flow         RequestFlow
	customerRepo *testingutil.MemoryCustomerRepository
	requestRepo  *testingutil.MemoryServiceRequestRepository
	auditRepo    *testingutil.MemoryAuditLogRepository
}

func newRequestFlowUnderTest(t *testing.T) *requestFlowFixture {
	t.Helper()

	customerRepo := testingutil.NewMemoryCustomerRepository()
	requestRepo := testingutil.NewMemoryServiceRequestRepository()
	auditRepo := testingutil.NewMemoryAuditLogRepository()
	counterRepo := testingutil.NewMemorySequenceCounterRepository()

	sequencer := &InvoiceSequencerImpl{
		counterRepo: counterRepo,
		now:         fixedClock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)),
	}

	return &requestFlowFixture{
		flow:         NewRequestFlow(requestRepo, customerRepo, auditRepo, sequencer, nil),
		customerRepo: customerRepo,
		requestRepo:  requestRepo,
		auditRepo:    auditRepo,
	}
}

func (f *requestFlowFixture) registerCustomer(t *testing.T, phone string) *models.Customer {
	t.Helper()

	customer := testingutil.NewTestCustomer(phone)
	require.NoError(t, f.customerRepo.Save(context.Background(), customer))
	return customer
}

func TestRequestCreate(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("SuccessfulCreation", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		customer := f.registerCustomer(t, "09131234567")

		result, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, "40501", result.InvoiceCode)
		assert.Equal(t, models.RequestStatusPending, result.Status)
		assert.Equal(t, models.SourcePathWebForm, result.SourcePath)
		assert.Equal(t, customer.FullName, result.Snapshot.FullName)
		assert.Equal(t, customer.Address, result.Snapshot.Address)
		assert.Equal(t, customer.City, result.Snapshot.City)
	})

	t.Run("SnapshotSurvivesProfileEdit", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		customer := f.registerCustomer(t, "09131234567")

		result, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeRepair,
		}, metadata)
		require.NoError(t, err)

		customer.Address = "Somewhere Else 99"
		require.NoError(t, f.customerRepo.Update(ctx, customer))

		stored, err := f.requestRepo.ByInvoiceCode(ctx, result.InvoiceCode)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.NotEqual(t, "Somewhere Else 99", stored.Snapshot.Address)
	})

	t.Run("UnknownCustomerRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)

		_, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09139999999",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsCustomerNotFound(err))
	})

	t.Run("ActiveRequestBlocksNewOne", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		first, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.NoError(t, err)

		_, err = f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeRepair,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsActiveRequestExists(err))

		var conflict *ActiveRequestConflict
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, first.InvoiceCode, conflict.InvoiceCode)
		assert.Equal(t, models.RequestStatusPending, conflict.Status)

		// The blocked attempt must not persist anything
		count, err := f.requestRepo.Count(ctx, models.ServiceRequestFilter{CustomerPhone: utils.ToPtr("09131234567")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("TerminalRequestDoesNotBlock", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		customer := f.registerCustomer(t, "09131234567")

		done := testingutil.NewTestServiceRequest(customer, "40401", models.RequestStatusDone)
		require.NoError(t, f.requestRepo.Save(ctx, done))

		result, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, "40501", result.InvoiceCode)
	})

	t.Run("FollowUpBypassesGuard", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		first, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeInstall,
		}, metadata)
		require.NoError(t, err)

		followUp, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:            "09131234567",
			IssueType:        models.IssueTypeVisit,
			IsFollowUp:       true,
			RelatedToInvoice: &first.InvoiceCode,
		}, metadata)
		require.NoError(t, err)

		require.NotNil(t, followUp.RelatedToInvoice)
		assert.Equal(t, first.InvoiceCode, *followUp.RelatedToInvoice)
		assert.Equal(t, "40502", followUp.InvoiceCode)
	})

	t.Run("FollowUpWithUnknownInvoiceRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		_, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:            "09131234567",
			IssueType:        models.IssueTypeVisit,
			IsFollowUp:       true,
			RelatedToInvoice: utils.ToPtr("99999"),
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsRelatedInvoiceNotFound(err))

		count, err := f.requestRepo.Count(ctx, models.ServiceRequestFilter{CustomerPhone: utils.ToPtr("09131234567")})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("InvalidIssueTypeRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		_, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: "plumbing",
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidIssueType(err))
	})

	t.Run("InvalidScheduledAtRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		_, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:       "09131234567",
			IssueType:   models.IssueTypeMaintenance,
			ScheduledAt: utils.ToPtr("tomorrow at noon"),
		}, metadata)
		require.Error(t, err)
	})
}

func TestRequestActiveByPhone(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	t.Run("ReturnsOpenRequest", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		f.registerCustomer(t, "09131234567")

		created, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.NoError(t, err)

		result, err := f.flow.ActiveByPhone(ctx, "09131234567")
		require.NoError(t, err)
		require.NotNil(t, result.Active)
		assert.Equal(t, created.InvoiceCode, result.Active.InvoiceCode)
		assert.Equal(t, models.RequestStatusPending, result.Active.Status)
	})

	t.Run("NullWhenNothingOpen", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)

		result, err := f.flow.ActiveByPhone(ctx, "09131234567")
		require.NoError(t, err)
		assert.Nil(t, result.Active)
	})
}

func TestRequestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	metadata := &ClientMetadata{IPAddress: "127.0.0.1", UserAgent: "test-agent"}

	createRequest := func(t *testing.T, f *requestFlowFixture) *dto.ServiceRequestDTO {
		t.Helper()
		f.registerCustomer(t, "09131234567")
		created, err := f.flow.Create(ctx, &dto.CreateServiceRequestRequest{
			Phone:     "09131234567",
			IssueType: models.IssueTypeMaintenance,
		}, metadata)
		require.NoError(t, err)
		return created
	}

	t.Run("ValidTransitionChain", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		created := createRequest(t, f)

		for _, status := range []string{
			models.RequestStatusScheduled,
			models.RequestStatusInProgress,
			models.RequestStatusDone,
		} {
			result, err := f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
				Status: status,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, status, result.Status)
		}
	})

	t.Run("ResultNoteIsStored", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		created := createRequest(t, f)

		result, err := f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status:     models.RequestStatusCanceled,
			ResultNote: utils.ToPtr("customer moved away"),
		}, metadata)
		require.NoError(t, err)
		require.NotNil(t, result.ResultNote)
		assert.Equal(t, "customer moved away", *result.ResultNote)
	})

	t.Run("TerminalStatusesAreFinal", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		created := createRequest(t, f)

		_, err := f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status: models.RequestStatusCanceled,
		}, metadata)
		require.NoError(t, err)

		_, err = f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status: models.RequestStatusPending,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidStatusTransition(err))
	})

	t.Run("SkippingBackwardsRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		created := createRequest(t, f)

		_, err := f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status: models.RequestStatusScheduled,
		}, metadata)
		require.NoError(t, err)

		_, err = f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status: models.RequestStatusPending,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidStatusTransition(err))
	})

	t.Run("UnknownInvoiceRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)

		_, err := f.flow.UpdateStatus(ctx, "99999", &dto.UpdateRequestStatusRequest{
			Status: models.RequestStatusScheduled,
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvoiceNotFound(err))
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		created := createRequest(t, f)

		_, err := f.flow.UpdateStatus(ctx, created.InvoiceCode, &dto.UpdateRequestStatusRequest{
			Status: "archived",
		}, metadata)
		require.Error(t, err)
		assert.True(t, IsInvalidRequestStatus(err))
	})
}

func TestRequestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("PaginatedNewestFirst", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		customer := f.registerCustomer(t, "09131234567")

		for i, code := range []string{"40501", "40502", "40503"} {
			status := models.RequestStatusDone
			if i == 2 {
				status = models.RequestStatusPending
			}
			require.NoError(t, f.requestRepo.Save(ctx, testingutil.NewTestServiceRequest(customer, code, status)))
		}

		result, err := f.flow.History(ctx, "09131234567", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Total)
		require.Len(t, result.Items, 2)
		assert.Equal(t, "40503", result.Items[0].InvoiceCode)
		assert.Equal(t, "40502", result.Items[1].InvoiceCode)

		result, err = f.flow.History(ctx, "09131234567", 2, 2)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "40501", result.Items[0].InvoiceCode)
	})

	t.Run("InvalidPaginationRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)

		_, err := f.flow.History(ctx, "09131234567", -1, 10)
		require.Error(t, err)
		assert.True(t, IsInvalidPage(err))

		_, err = f.flow.History(ctx, "09131234567", 1, MaxPageSize+1)
		require.Error(t, err)
		assert.True(t, IsInvalidPageSize(err))
	})
}

func TestRequestList(t *testing.T) {
	ctx := context.Background()

	t.Run("StatusFilter", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)
		customer := f.registerCustomer(t, "09131234567")

		require.NoError(t, f.requestRepo.Save(ctx, testingutil.NewTestServiceRequest(customer, "40501", models.RequestStatusDone)))
		require.NoError(t, f.requestRepo.Save(ctx, testingutil.NewTestServiceRequest(customer, "40502", models.RequestStatusPending)))

		result, err := f.flow.List(ctx, utils.ToPtr(models.RequestStatusPending), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "40502", result.Items[0].InvoiceCode)
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		f := newRequestFlowUnderTest(t)

		_, err := f.flow.List(ctx, utils.ToPtr("archived"), 1, 10)
		require.Error(t, err)
		assert.True(t, IsInvalidRequestStatus(err))
	})
}
