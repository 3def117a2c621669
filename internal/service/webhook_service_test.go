package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/tests/mocks"
)

func newTestWebhookService(dm *debtServiceMocks, pm *planServiceMocks, client *mocks.MockProcessorClient) *WebhookService {
	return &WebhookService{
		debts:     newTestDebtService(dm),
		plans:     newTestPlanService(pm),
		processor: client,
		log:       newTestLogger(),
	}
}

func TestHandlePaymentSucceeded_AppliesDirectDebtPayment(t *testing.T) {
	dm := newDebtServiceMocks()
	pm := newPlanServiceMocks()
	client := &mocks.MockProcessorClient{}
	svc := newTestWebhookService(dm, pm, client)
	dm.expectNotice()

	debt := &domain.Debt{
		ID: "debt-1", TenantID: "t1", Status: domain.DebtStatusVerified,
		CurrentAmount: 50000, Currency: "CZK",
	}
	dm.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	dm.ledgerRepo.On("ApplyDebtPayment", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.ProcessorPaymentID == "pi_1" && p.Amount == 20000
	}), debt).Return(nil)

	err := svc.HandlePaymentSucceeded(context.Background(), &domain.ProcessorEvent{
		ProcessorPaymentID: "pi_1",
		TenantID:           "t1",
		DebtID:             "debt-1",
		Amount:             20000,
		Currency:           "CZK",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(30000), debt.CurrentAmount)
	// metadata was complete, no processor round trip needed
	client.AssertNotCalled(t, "FetchPaymentMetadata")
}

func TestHandlePaymentSucceeded_RoutesToInstallment(t *testing.T) {
	dm := newDebtServiceMocks()
	pm := newPlanServiceMocks()
	client := &mocks.MockProcessorClient{}
	svc := newTestWebhookService(dm, pm, client)
	pm.expectNotice()

	plan := activePlan(10)
	debt := verifiedDebt(50000)
	debt.Status = domain.DebtStatusPaymentPlanActive
	inst := &domain.Installment{
		ID: "inst-2", TenantID: "t1", PaymentPlanID: "plan-1", DebtID: "debt-1",
		InstallmentNumber: 2, Amount: 5000, Status: domain.InstallmentStatusPending,
	}

	pm.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-2").Return(inst, nil)
	pm.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	pm.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	pm.planRepo.On("ListInstallments", mock.Anything, "plan-1").Return([]*domain.Installment{inst}, nil)
	pm.ledgerRepo.On("ApplyInstallmentPayment", mock.Anything, mock.Anything, inst, debt, (*domain.PaymentPlan)(nil)).Return(nil)

	err := svc.HandlePaymentSucceeded(context.Background(), &domain.ProcessorEvent{
		ProcessorPaymentID: "pi_2",
		TenantID:           "t1",
		DebtID:             "debt-1",
		InstallmentID:      "inst-2",
		Amount:             5000,
	})

	assert.NoError(t, err)
	assert.True(t, inst.Paid)
	pm.ledgerRepo.AssertExpectations(t)
}

func TestHandlePaymentSucceeded_FetchesMissingMetadata(t *testing.T) {
	dm := newDebtServiceMocks()
	pm := newPlanServiceMocks()
	client := &mocks.MockProcessorClient{}
	svc := newTestWebhookService(dm, pm, client)
	dm.expectNotice()

	client.On("FetchPaymentMetadata", mock.Anything, "pi_3").Return(&domain.ProcessorEvent{
		ProcessorPaymentID: "pi_3",
		TenantID:           "t1",
		DebtID:             "debt-1",
		Amount:             10000,
	}, nil)

	debt := &domain.Debt{
		ID: "debt-1", TenantID: "t1", Status: domain.DebtStatusVerified,
		CurrentAmount: 50000, Currency: "CZK",
	}
	dm.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	dm.ledgerRepo.On("ApplyDebtPayment", mock.Anything, mock.Anything, debt).Return(nil)

	// the webhook arrived with nothing but the processor's payment id
	err := svc.HandlePaymentSucceeded(context.Background(), &domain.ProcessorEvent{
		ProcessorPaymentID: "pi_3",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(40000), debt.CurrentAmount)
	client.AssertExpectations(t)
}

func TestHandlePaymentSucceeded_MetadataFetchFails(t *testing.T) {
	dm := newDebtServiceMocks()
	pm := newPlanServiceMocks()
	client := &mocks.MockProcessorClient{}
	svc := newTestWebhookService(dm, pm, client)

	client.On("FetchPaymentMetadata", mock.Anything, "pi_4").Return(nil, errors.New("processor unavailable"))

	err := svc.HandlePaymentSucceeded(context.Background(), &domain.ProcessorEvent{
		ProcessorPaymentID: "pi_4",
	})

	assert.Error(t, err)
	dm.ledgerRepo.AssertNotCalled(t, "ApplyDebtPayment")
}

func TestHandlePaymentSucceeded_MissingProcessorPaymentID(t *testing.T) {
	dm := newDebtServiceMocks()
	pm := newPlanServiceMocks()
	client := &mocks.MockProcessorClient{}
	svc := newTestWebhookService(dm, pm, client)

	err := svc.HandlePaymentSucceeded(context.Background(), &domain.ProcessorEvent{
		TenantID: "t1", DebtID: "debt-1", Amount: 100,
	})

	assert.Error(t, err)
}
