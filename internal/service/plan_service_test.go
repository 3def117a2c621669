package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inkaso/collections-engine/internal/domain"
	customError "github.com/inkaso/collections-engine/pkg/errors"
	"github.com/inkaso/collections-engine/tests/mocks"
)

type planServiceMocks struct {
	debtRepo   *mocks.MockDebtRepository
	planRepo   *mocks.MockPlanRepository
	ledgerRepo *mocks.MockLedgerRepository
	commRepo   *mocks.MockCommunicationRepository
	notifier   *mocks.MockNotifier
}

func newPlanServiceMocks() *planServiceMocks {
	return &planServiceMocks{
		debtRepo:   &mocks.MockDebtRepository{},
		planRepo:   &mocks.MockPlanRepository{},
		ledgerRepo: &mocks.MockLedgerRepository{},
		commRepo:   &mocks.MockCommunicationRepository{},
		notifier:   &mocks.MockNotifier{},
	}
}

func newTestPlanService(m *planServiceMocks) *PlanService {
	log := newTestLogger()
	now := func() time.Time { return testNow }
	newID := sequentialIDs("id")
	return &PlanService{
		debtRepo:   m.debtRepo,
		planRepo:   m.planRepo,
		ledgerRepo: m.ledgerRepo,
		comms: &communicator{
			debtRepo: m.debtRepo,
			commRepo: m.commRepo,
			notifier: m.notifier,
			log:      log,
			now:      now,
			newID:    newID,
		},
		config: testConfig(),
		log:    log,
		now:    now,
		newID:  newID,
	}
}

func (m *planServiceMocks) expectNotice() {
	m.debtRepo.On("GetDebtorEmail", mock.Anything, mock.Anything, mock.Anything).Return("debtor@example.com", nil)
	m.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
	m.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func verifiedDebt(amount int64) *domain.Debt {
	return &domain.Debt{
		ID: "debt-1", TenantID: "t1", Status: domain.DebtStatusVerified,
		OriginalAmount: amount, CurrentAmount: amount, Currency: "CZK",
	}
}

func activePlan(count int) *domain.PaymentPlan {
	return &domain.PaymentPlan{
		ID: "plan-1", TenantID: "t1", DebtID: "debt-1",
		TotalAmount: 5000 * int64(count), InstallmentAmount: 5000, InstallmentCount: count,
		InstallmentFrequency: domain.FrequencyMonthly, StartDate: testNow,
		Status: domain.PlanStatusActive, GracePeriodDays: 5, AccelerationEnabled: true,
	}
}

func TestProposePlan_CoversOutstandingExactly(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	debt := verifiedDebt(50000)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.planRepo.On("GetOpenByDebtID", mock.Anything, "t1", "debt-1").Return(nil, nil)
	m.planRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.PaymentPlan) bool {
		return p.Status == domain.PlanStatusProposed && p.TotalAmount == 50000
	})).Return(nil)
	m.debtRepo.On("Update", mock.Anything, debt).Return(nil)
	m.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	plan, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 5000,
		Months:        10,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PlanStatusProposed, plan.Status)
	assert.Equal(t, 10, plan.InstallmentCount)
	assert.Equal(t, int64(5000), plan.InstallmentAmount)
	assert.Equal(t, domain.FrequencyMonthly, plan.InstallmentFrequency)
	assert.Equal(t, 5, plan.GracePeriodDays)
	assert.True(t, plan.AccelerationEnabled)
	assert.Equal(t, domain.DebtStatusInMediation, debt.Status)
	m.planRepo.AssertExpectations(t)
}

func TestProposePlan_TooManyMonths(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	_, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 5000,
		Months:        13,
	})

	assert.ErrorIs(t, err, customError.ErrTooManyMonths)
	m.debtRepo.AssertNotCalled(t, "GetByID")
}

func TestProposePlan_InsufficientTotal(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(verifiedDebt(50000), nil)

	_, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 1000,
		Months:        10,
	})

	assert.ErrorIs(t, err, customError.ErrInsufficientAmount)
	m.planRepo.AssertNotCalled(t, "Create")
}

func TestProposePlan_DownPaymentCountsTowardCoverage(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	debt := verifiedDebt(50000)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.planRepo.On("GetOpenByDebtID", mock.Anything, "t1", "debt-1").Return(nil, nil)
	m.planRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.debtRepo.On("Update", mock.Anything, debt).Return(nil)
	m.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	plan, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 5000,
		Months:        9,
		DownPayment:   5000,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(50000), plan.TotalAmount)
	assert.Equal(t, int64(5000), plan.DownPayment)
}

func TestProposePlan_SecondOpenPlanConflicts(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(verifiedDebt(50000), nil)
	m.planRepo.On("GetOpenByDebtID", mock.Anything, "t1", "debt-1").Return(&domain.PaymentPlan{
		ID: "plan-0", Status: domain.PlanStatusProposed,
	}, nil)

	_, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 5000,
		Months:        10,
	})

	assert.ErrorIs(t, err, customError.ErrConflict)
	m.planRepo.AssertNotCalled(t, "Create")
}

func TestProposePlan_RejectedForSettledDebt(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	debt := verifiedDebt(0)
	debt.Status = domain.DebtStatusResolvedPaid
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)

	_, err := svc.Propose(context.Background(), "t1", "debt-1", &domain.ProposePlanRequest{
		MonthlyAmount: 5000,
		Months:        10,
	})

	assert.ErrorIs(t, err, customError.ErrInvalidState)
}

func TestApprovePlan_GeneratesFullSchedule(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)
	m.expectNotice()

	plan := activePlan(10)
	plan.Status = domain.PlanStatusProposed
	debt := verifiedDebt(50000)
	debt.Status = domain.DebtStatusInMediation

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.ledgerRepo.On("ActivatePlan", mock.Anything, plan, debt, mock.MatchedBy(func(installments []*domain.Installment) bool {
		return len(installments) == 10
	})).Return(nil)

	schedule, err := svc.Approve(context.Background(), "t1", "plan-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PlanStatusActive, plan.Status)
	assert.True(t, plan.AgreedByClient)
	assert.Equal(t, testNow, *plan.AgreementDate)
	assert.Equal(t, domain.DebtStatusPaymentPlanActive, debt.Status)

	assert.Len(t, schedule.Installments, 10)
	for i, inst := range schedule.Installments {
		assert.Equal(t, i+1, inst.InstallmentNumber)
		assert.Equal(t, int64(5000), inst.Amount)
		assert.Equal(t, testNow.AddDate(0, 0, 30*(i+1)), inst.DueDate)
		assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
		assert.Equal(t, "debt-1", inst.DebtID)
	}
	m.ledgerRepo.AssertExpectations(t)
}

func TestApprovePlan_SecondApprovalFails(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(activePlan(10), nil)

	_, err := svc.Approve(context.Background(), "t1", "plan-1")

	assert.ErrorIs(t, err, customError.ErrInvalidState)
	m.ledgerRepo.AssertNotCalled(t, "ActivatePlan")
}

func TestRejectPlan_ReturnsDebtToVerificationQueue(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)
	m.expectNotice()

	plan := activePlan(10)
	plan.Status = domain.PlanStatusProposed
	debt := verifiedDebt(50000)
	debt.Status = domain.DebtStatusInMediation

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.ledgerRepo.On("CancelPlan", mock.Anything, plan, debt).Return(nil)

	rejected, err := svc.Reject(context.Background(), "t1", "plan-1", "income too low")

	assert.NoError(t, err)
	assert.Equal(t, domain.PlanStatusCancelled, rejected.Status)
	assert.Equal(t, domain.DebtStatusPendingVerification, debt.Status)
}

func TestRejectPlan_OnlyFromProposed(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(activePlan(10), nil)

	_, err := svc.Reject(context.Background(), "t1", "plan-1", "whatever")

	assert.ErrorIs(t, err, customError.ErrInvalidState)
	m.ledgerRepo.AssertNotCalled(t, "CancelPlan")
}

func TestRecordInstallmentPayment_PartialLeavesPlanOpen(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)
	m.expectNotice()

	plan := activePlan(10)
	debt := verifiedDebt(50000)
	debt.Status = domain.DebtStatusPaymentPlanActive
	inst := &domain.Installment{
		ID: "inst-3", TenantID: "t1", PaymentPlanID: "plan-1", DebtID: "debt-1",
		InstallmentNumber: 3, Amount: 5000, Status: domain.InstallmentStatusPending,
	}

	m.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-3").Return(inst, nil)
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.planRepo.On("ListInstallments", mock.Anything, "plan-1").Return([]*domain.Installment{inst}, nil)
	m.ledgerRepo.On("ApplyInstallmentPayment", mock.Anything, mock.Anything, inst, debt, (*domain.PaymentPlan)(nil)).Return(nil)

	payment, err := svc.RecordInstallmentPayment(context.Background(), "t1", "inst-3", &domain.RecordInstallmentPaymentRequest{
		Amount: 2000, PaymentMethod: domain.PaymentMethodBankTransfer,
	})

	assert.NoError(t, err)
	assert.Equal(t, "inst-3", *payment.InstallmentID)
	assert.Equal(t, domain.InstallmentStatusPartial, inst.Status)
	assert.False(t, inst.Paid)
	assert.Equal(t, int64(48000), debt.CurrentAmount)
	assert.Equal(t, domain.PlanStatusActive, plan.Status)
}

func TestRecordInstallmentPayment_LastPaymentCompletesPlanAndResolvesDebt(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)
	m.expectNotice()

	plan := activePlan(10)
	debt := verifiedDebt(5000)
	debt.Status = domain.DebtStatusPaymentPlanActive

	last := &domain.Installment{
		ID: "inst-10", TenantID: "t1", PaymentPlanID: "plan-1", DebtID: "debt-1",
		InstallmentNumber: 10, Amount: 5000, Status: domain.InstallmentStatusPending,
	}
	schedule := make([]*domain.Installment, 0, 10)
	for n := 1; n <= 9; n++ {
		schedule = append(schedule, &domain.Installment{
			ID: fmt.Sprintf("inst-%d", n), InstallmentNumber: n, Amount: 5000,
			Status: domain.InstallmentStatusPaid, Paid: true,
		})
	}
	schedule = append(schedule, &domain.Installment{
		ID: "inst-10", InstallmentNumber: 10, Amount: 5000, Status: domain.InstallmentStatusPending,
	})

	m.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-10").Return(last, nil)
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.planRepo.On("ListInstallments", mock.Anything, "plan-1").Return(schedule, nil)
	m.ledgerRepo.On("ApplyInstallmentPayment", mock.Anything, mock.Anything, last, debt, plan).Return(nil)

	payment, err := svc.RecordInstallmentPayment(context.Background(), "t1", "inst-10", &domain.RecordInstallmentPaymentRequest{
		Amount: 5000, PaymentMethod: domain.PaymentMethodCard,
	})

	assert.NoError(t, err)
	assert.NotNil(t, payment)
	assert.True(t, last.Paid)
	assert.Equal(t, domain.PlanStatusCompleted, plan.Status)
	assert.Equal(t, int64(0), debt.CurrentAmount)
	assert.Equal(t, domain.DebtStatusResolvedPaid, debt.Status)
	m.ledgerRepo.AssertExpectations(t)
}

func TestRecordInstallmentPayment_AlreadyPaidConflicts(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-3").Return(&domain.Installment{
		ID: "inst-3", Paid: true, Status: domain.InstallmentStatusPaid,
	}, nil)

	_, err := svc.RecordInstallmentPayment(context.Background(), "t1", "inst-3", &domain.RecordInstallmentPaymentRequest{
		Amount: 5000, PaymentMethod: domain.PaymentMethodCard,
	})

	assert.ErrorIs(t, err, customError.ErrConflict)
	m.ledgerRepo.AssertNotCalled(t, "ApplyInstallmentPayment")
}

func TestRecordInstallmentPayment_WaivedInstallmentRejected(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	m.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-3").Return(&domain.Installment{
		ID: "inst-3", Status: domain.InstallmentStatusWaived,
	}, nil)

	_, err := svc.RecordInstallmentPayment(context.Background(), "t1", "inst-3", &domain.RecordInstallmentPaymentRequest{
		Amount: 5000, PaymentMethod: domain.PaymentMethodCard,
	})

	assert.ErrorIs(t, err, customError.ErrInvalidState)
}

func TestRecordInstallmentPayment_DuplicateEventIsNoOp(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	plan := activePlan(10)
	debt := verifiedDebt(50000)
	debt.Status = domain.DebtStatusPaymentPlanActive
	inst := &domain.Installment{
		ID: "inst-3", PaymentPlanID: "plan-1", DebtID: "debt-1",
		InstallmentNumber: 3, Amount: 5000, Status: domain.InstallmentStatusPending,
	}

	m.planRepo.On("GetInstallmentByID", mock.Anything, "t1", "inst-3").Return(inst, nil)
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.planRepo.On("ListInstallments", mock.Anything, "plan-1").Return([]*domain.Installment{inst}, nil)
	m.ledgerRepo.On("ApplyInstallmentPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(customError.WrapDuplicateEvent("pi_456"))

	payment, err := svc.RecordInstallmentPayment(context.Background(), "t1", "inst-3", &domain.RecordInstallmentPaymentRequest{
		Amount: 5000, PaymentMethod: domain.PaymentMethodCard, ProcessorPaymentID: "pi_456",
	})

	assert.NoError(t, err)
	assert.Nil(t, payment)
	m.notifier.AssertNotCalled(t, "Send")
}

func TestAccelerate_DefaultsPlanAndDebt(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)
	m.expectNotice()

	plan := activePlan(10)
	debt := verifiedDebt(30000)
	debt.Status = domain.DebtStatusPaymentPlanActive

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)
	m.ledgerRepo.On("AcceleratePlan", mock.Anything, plan, debt).Return(nil)

	err := svc.Accelerate(context.Background(), "t1", "plan-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PlanStatusDefaulted, plan.Status)
	assert.Equal(t, testNow, *plan.DefaultDate)
	assert.Equal(t, domain.DebtStatusPaymentPlanDefaulted, debt.Status)

	m.notifier.AssertCalled(t, "Send", mock.Anything, mock.MatchedBy(func(c *domain.Communication) bool {
		return c.Subject == "URGENT: Celková částka splatná okamžitě - Full Balance Due"
	}))
}

func TestAccelerate_AlreadyDefaultedIsInvalidState(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	plan := activePlan(10)
	plan.Status = domain.PlanStatusDefaulted
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)

	err := svc.Accelerate(context.Background(), "t1", "plan-1")

	assert.ErrorIs(t, err, customError.ErrInvalidState)
	m.ledgerRepo.AssertNotCalled(t, "AcceleratePlan")
}

func TestAccelerate_BlockedWhileDebtDisputed(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	plan := activePlan(10)
	debt := verifiedDebt(30000)
	debt.Status = domain.DebtStatusDisputed

	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-1").Return(debt, nil)

	err := svc.Accelerate(context.Background(), "t1", "plan-1")

	assert.ErrorIs(t, err, customError.ErrInvalidState)
	m.ledgerRepo.AssertNotCalled(t, "AcceleratePlan")
}

func TestGetSchedule(t *testing.T) {
	m := newPlanServiceMocks()
	svc := newTestPlanService(m)

	plan := activePlan(2)
	installments := []*domain.Installment{
		{ID: "inst-1", InstallmentNumber: 1},
		{ID: "inst-2", InstallmentNumber: 2},
	}
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-1").Return(plan, nil)
	m.planRepo.On("ListInstallments", mock.Anything, "plan-1").Return(installments, nil)

	schedule, err := svc.GetSchedule(context.Background(), "t1", "plan-1")

	assert.NoError(t, err)
	assert.Equal(t, plan, schedule.Plan)
	assert.Len(t, schedule.Installments, 2)
}
