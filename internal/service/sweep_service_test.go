package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/tests/mocks"
)

type sweepServiceMocks struct {
	tenantRepo *mocks.MockTenantRepository
	planRepo   *mocks.MockPlanRepository
	debtRepo   *mocks.MockDebtRepository
	ledgerRepo *mocks.MockLedgerRepository
	commRepo   *mocks.MockCommunicationRepository
	notifier   *mocks.MockNotifier
}

func newSweepServiceMocks() *sweepServiceMocks {
	return &sweepServiceMocks{
		tenantRepo: &mocks.MockTenantRepository{},
		planRepo:   &mocks.MockPlanRepository{},
		debtRepo:   &mocks.MockDebtRepository{},
		ledgerRepo: &mocks.MockLedgerRepository{},
		commRepo:   &mocks.MockCommunicationRepository{},
		notifier:   &mocks.MockNotifier{},
	}
}

func newTestSweepService(m *sweepServiceMocks) *SweepService {
	log := newTestLogger()
	now := func() time.Time { return testNow }
	comms := &communicator{
		debtRepo: m.debtRepo,
		commRepo: m.commRepo,
		notifier: m.notifier,
		log:      log,
		now:      now,
		newID:    uuid.NewString,
	}
	plans := &PlanService{
		debtRepo:   m.debtRepo,
		planRepo:   m.planRepo,
		ledgerRepo: m.ledgerRepo,
		comms:      comms,
		config:     testConfig(),
		log:        log,
		now:        now,
		newID:      sequentialIDs("id"),
	}
	return &SweepService{
		tenantRepo: m.tenantRepo,
		planRepo:   m.planRepo,
		debtRepo:   m.debtRepo,
		plans:      plans,
		comms:      comms,
		config:     testConfig(),
		log:        log,
		now:        now,
	}
}

func (m *sweepServiceMocks) expectNotice() {
	m.debtRepo.On("GetDebtorEmail", mock.Anything, mock.Anything, mock.Anything).Return("debtor@example.com", nil)
	m.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
	m.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func TestSendPaymentReminders(t *testing.T) {
	m := newSweepServiceMocks()
	svc := newTestSweepService(m)
	m.expectNotice()

	m.tenantRepo.On("ListActiveIDs", mock.Anything).Return([]string{"t1"}, nil)
	m.planRepo.On("ListInstallmentsDueInRange", mock.Anything, "t1", testNow, testNow.AddDate(0, 0, 3), domain.InstallmentStatusPending).
		Return([]*domain.Installment{
			{ID: "inst-1", DebtID: "debt-1", Amount: 5000, DueDate: testNow.AddDate(0, 0, 2)},
			{ID: "inst-2", DebtID: "debt-2", Amount: 7000, DueDate: testNow.AddDate(0, 0, 1)},
		}, nil)

	count, err := svc.SendPaymentReminders(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	m.notifier.AssertNumberOfCalls(t, "Send", 2)
	m.notifier.AssertCalled(t, "Send", mock.Anything, mock.MatchedBy(func(c *domain.Communication) bool {
		return c.Subject == "Připomínka splátky - Payment Reminder"
	}))
}

func TestProcessAutoCharges_SendsDueTodayNotices(t *testing.T) {
	m := newSweepServiceMocks()
	svc := newTestSweepService(m)
	m.expectNotice()

	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m.tenantRepo.On("ListActiveIDs", mock.Anything).Return([]string{"t1"}, nil)
	m.planRepo.On("ListInstallmentsDueInRange", mock.Anything, "t1", today, today.AddDate(0, 0, 1), domain.InstallmentStatusPending).
		Return([]*domain.Installment{
			{ID: "inst-1", DebtID: "debt-1", Amount: 5000, DueDate: today},
		}, nil)

	count, err := svc.ProcessAutoCharges(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	// the job notifies but never mutates installments
	m.planRepo.AssertNotCalled(t, "UpdateInstallment")
}

func TestCheckOverdueInstallments_MarksAndContinuesOnFailure(t *testing.T) {
	m := newSweepServiceMocks()
	svc := newTestSweepService(m)
	m.expectNotice()

	instA := &domain.Installment{ID: "inst-a", DebtID: "debt-1", Amount: 5000, Status: domain.InstallmentStatusPending}
	instB := &domain.Installment{ID: "inst-b", DebtID: "debt-2", Amount: 7000, Status: domain.InstallmentStatusPending}

	cutoff := testNow.AddDate(0, 0, -2)
	m.tenantRepo.On("ListActiveIDs", mock.Anything).Return([]string{"t1"}, nil)
	m.planRepo.On("ListInstallmentsPastDue", mock.Anything, "t1", cutoff, domain.InstallmentStatusPending).
		Return([]*domain.Installment{instA, instB}, nil)
	m.planRepo.On("UpdateInstallment", mock.Anything, instA).Return(errors.New("connection reset"))
	m.planRepo.On("UpdateInstallment", mock.Anything, instB).Return(nil)

	count, err := svc.CheckOverdueInstallments(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, domain.InstallmentStatusOverdue, instB.Status)
	// only the successfully marked installment gets a notice
	m.notifier.AssertNumberOfCalls(t, "Send", 1)
}

func TestTriggerAccelerations_SkipsPlansNoLongerActive(t *testing.T) {
	m := newSweepServiceMocks()
	svc := newTestSweepService(m)
	m.expectNotice()

	planA := &domain.PaymentPlan{
		ID: "plan-a", TenantID: "t1", DebtID: "debt-a",
		Status: domain.PlanStatusActive, GracePeriodDays: 5, AccelerationEnabled: true,
	}
	planB := &domain.PaymentPlan{
		ID: "plan-b", TenantID: "t1", DebtID: "debt-b",
		Status: domain.PlanStatusDefaulted,
	}
	debtA := &domain.Debt{
		ID: "debt-a", TenantID: "t1", Status: domain.DebtStatusPaymentPlanActive,
		CurrentAmount: 30000, Currency: "CZK",
	}

	m.tenantRepo.On("ListActiveIDs", mock.Anything).Return([]string{"t1"}, nil)
	m.planRepo.On("ListAccelerationCandidates", mock.Anything, "t1", testNow).
		Return([]*domain.PaymentPlan{planA, planB}, nil)
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-a").Return(planA, nil)
	m.planRepo.On("GetByID", mock.Anything, "t1", "plan-b").Return(planB, nil)
	m.debtRepo.On("GetByID", mock.Anything, "t1", "debt-a").Return(debtA, nil)
	m.ledgerRepo.On("AcceleratePlan", mock.Anything, planA, debtA).Return(nil)

	count, err := svc.TriggerAccelerations(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, domain.PlanStatusDefaulted, planA.Status)
	assert.Equal(t, domain.DebtStatusPaymentPlanDefaulted, debtA.Status)
	m.ledgerRepo.AssertNumberOfCalls(t, "AcceleratePlan", 1)
}

func TestSweep_OneFailingTenantDoesNotStarveOthers(t *testing.T) {
	m := newSweepServiceMocks()
	svc := newTestSweepService(m)
	m.expectNotice()

	m.tenantRepo.On("ListActiveIDs", mock.Anything).Return([]string{"t1", "t2"}, nil)
	m.planRepo.On("ListInstallmentsDueInRange", mock.Anything, "t1", mock.Anything, mock.Anything, domain.InstallmentStatusPending).
		Return(nil, errors.New("tenant shard down"))
	m.planRepo.On("ListInstallmentsDueInRange", mock.Anything, "t2", mock.Anything, mock.Anything, domain.InstallmentStatusPending).
		Return([]*domain.Installment{
			{ID: "inst-1", DebtID: "debt-1", Amount: 5000, DueDate: testNow.AddDate(0, 0, 1)},
		}, nil)

	count, err := svc.SendPaymentReminders(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
