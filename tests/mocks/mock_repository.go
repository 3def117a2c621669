package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/inkaso/collections-engine/internal/domain"
)

type MockDebtRepository struct {
	mock.Mock
}

func (m *MockDebtRepository) Create(ctx context.Context, debt *domain.Debt) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockDebtRepository) GetByID(ctx context.Context, tenantID, debtID string) (*domain.Debt, error) {
	args := m.Called(ctx, tenantID, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Debt), args.Error(1)
}

func (m *MockDebtRepository) Update(ctx context.Context, debt *domain.Debt) error {
	args := m.Called(ctx, debt)
	return args.Error(0)
}

func (m *MockDebtRepository) Delete(ctx context.Context, tenantID, debtID string) error {
	args := m.Called(ctx, tenantID, debtID)
	return args.Error(0)
}

func (m *MockDebtRepository) GetDebtorEmail(ctx context.Context, tenantID, debtID string) (string, error) {
	args := m.Called(ctx, tenantID, debtID)
	return args.String(0), args.Error(1)
}

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, tenantID, planID string) (*domain.PaymentPlan, error) {
	args := m.Called(ctx, tenantID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.PaymentPlan, error) {
	args := m.Called(ctx, tenantID, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) ListInstallments(ctx context.Context, planID string) ([]*domain.Installment, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockPlanRepository) GetInstallmentByID(ctx context.Context, tenantID, installmentID string) (*domain.Installment, error) {
	args := m.Called(ctx, tenantID, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *MockPlanRepository) ListInstallmentsDueInRange(ctx context.Context, tenantID string, start, end time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	args := m.Called(ctx, tenantID, start, end, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockPlanRepository) ListInstallmentsPastDue(ctx context.Context, tenantID string, cutoff time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	args := m.Called(ctx, tenantID, cutoff, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockPlanRepository) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockPlanRepository) ListAccelerationCandidates(ctx context.Context, tenantID string, now time.Time) ([]*domain.PaymentPlan, error) {
	args := m.Called(ctx, tenantID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentPlan), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) ActivatePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt, installments []*domain.Installment) error {
	args := m.Called(ctx, plan, debt, installments)
	return args.Error(0)
}

func (m *MockLedgerRepository) CancelPlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error {
	args := m.Called(ctx, plan, debt)
	return args.Error(0)
}

func (m *MockLedgerRepository) AcceleratePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error {
	args := m.Called(ctx, plan, debt)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyInstallmentPayment(ctx context.Context, payment *domain.Payment, installment *domain.Installment, debt *domain.Debt, plan *domain.PaymentPlan) error {
	args := m.Called(ctx, payment, installment, debt, plan)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyDebtPayment(ctx context.Context, payment *domain.Payment, debt *domain.Debt) error {
	args := m.Called(ctx, payment, debt)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ListByDebtID(ctx context.Context, tenantID, debtID string, limit int) ([]*domain.Payment, error) {
	args := m.Called(ctx, tenantID, debtID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockCommunicationRepository struct {
	mock.Mock
}

func (m *MockCommunicationRepository) Create(ctx context.Context, comm *domain.Communication) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

func (m *MockDisputeRepository) GetByID(ctx context.Context, tenantID, disputeID string) (*domain.Dispute, error) {
	args := m.Called(ctx, tenantID, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.Dispute, error) {
	args := m.Called(ctx, tenantID, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepository) Update(ctx context.Context, dispute *domain.Dispute) error {
	args := m.Called(ctx, dispute)
	return args.Error(0)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockRelationshipRepository struct {
	mock.Mock
}

func (m *MockRelationshipRepository) IsVerified(ctx context.Context, tenantID, debtorID, clientID string) (bool, error) {
	args := m.Called(ctx, tenantID, debtorID, clientID)
	return args.Bool(0), args.Error(1)
}
