package repository

import (
	"context"
	"time"

	"github.com/inkaso/collections-engine/internal/domain"
)

// DebtRepository defines the interface for debt data operations. All reads
// and writes are tenant-scoped; Update applies an optimistic version check
// and fails with a conflict error when the row changed underneath.
type DebtRepository interface {
	// Create creates a new debt
	Create(ctx context.Context, debt *domain.Debt) error

	// GetByID retrieves a debt within the tenant scope
	GetByID(ctx context.Context, tenantID, debtID string) (*domain.Debt, error)

	// Update persists the debt, guarded by its version column
	Update(ctx context.Context, debt *domain.Debt) error

	// Delete removes a debt; only allowed while still unverified
	Delete(ctx context.Context, tenantID, debtID string) error

	// GetDebtorEmail resolves the debtor's notification address for a debt
	GetDebtorEmail(ctx context.Context, tenantID, debtID string) (string, error)
}

// PlanRepository defines the interface for payment plan and installment
// data operations.
type PlanRepository interface {
	// Create creates a new payment plan
	Create(ctx context.Context, plan *domain.PaymentPlan) error

	// GetByID retrieves a plan within the tenant scope
	GetByID(ctx context.Context, tenantID, planID string) (*domain.PaymentPlan, error)

	// GetOpenByDebtID returns the proposed or active plan of a debt, or
	// nil when the debt has no open plan
	GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.PaymentPlan, error)

	// Update persists the plan, guarded by its version column
	Update(ctx context.Context, plan *domain.PaymentPlan) error

	// ListInstallments retrieves a plan's installments ordered by number
	ListInstallments(ctx context.Context, planID string) ([]*domain.Installment, error)

	// GetInstallmentByID retrieves one installment within the tenant scope
	GetInstallmentByID(ctx context.Context, tenantID, installmentID string) (*domain.Installment, error)

	// ListInstallmentsDueInRange returns unpaid installments with the given
	// status due within [start, end)
	ListInstallmentsDueInRange(ctx context.Context, tenantID string, start, end time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error)

	// ListInstallmentsPastDue returns unpaid installments with the given
	// status due strictly before the cutoff
	ListInstallmentsPastDue(ctx context.Context, tenantID string, cutoff time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error)

	// UpdateInstallment persists a single installment
	UpdateInstallment(ctx context.Context, installment *domain.Installment) error

	// ListAccelerationCandidates returns active, acceleration-enabled plans
	// holding at least one overdue unpaid installment past the plan's own
	// grace period as of now
	ListAccelerationCandidates(ctx context.Context, tenantID string, now time.Time) ([]*domain.PaymentPlan, error)
}

// LedgerRepository bundles the multi-row mutations that must land in a single
// transaction. Callers pass fully mutated entities; the repository only
// persists them atomically.
type LedgerRepository interface {
	// ActivatePlan writes the approved plan, the debt transition and the
	// generated installments in one transaction
	ActivatePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt, installments []*domain.Installment) error

	// CancelPlan writes the rejected plan and the debt reset in one
	// transaction
	CancelPlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error

	// AcceleratePlan writes the defaulted plan, the debt transition and the
	// bulk waiver of unpaid installments in one transaction
	AcceleratePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error

	// ApplyInstallmentPayment inserts the payment and writes the installment,
	// debt and optional plan completion in one transaction. A duplicate
	// processor payment id aborts the whole unit with a duplicate-event error.
	ApplyInstallmentPayment(ctx context.Context, payment *domain.Payment, installment *domain.Installment, debt *domain.Debt, plan *domain.PaymentPlan) error

	// ApplyDebtPayment inserts the payment and writes the debt in one
	// transaction, with the same duplicate handling
	ApplyDebtPayment(ctx context.Context, payment *domain.Payment, debt *domain.Debt) error
}

// PaymentRepository defines read access to immutable payment records.
type PaymentRepository interface {
	// ListByDebtID retrieves the most recent payments for a debt
	ListByDebtID(ctx context.Context, tenantID, debtID string, limit int) ([]*domain.Payment, error)
}

// CommunicationRepository persists the immutable communication log.
type CommunicationRepository interface {
	Create(ctx context.Context, comm *domain.Communication) error
}

// DisputeRepository defines the interface for dispute records.
type DisputeRepository interface {
	Create(ctx context.Context, dispute *domain.Dispute) error
	GetByID(ctx context.Context, tenantID, disputeID string) (*domain.Dispute, error)
	GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.Dispute, error)
	Update(ctx context.Context, dispute *domain.Dispute) error
}

// TenantRepository lists the tenants the sweep jobs iterate over.
type TenantRepository interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// RelationshipRepository exposes the debtor-client relationship trust used to
// auto-verify debts for already verified pairs.
type RelationshipRepository interface {
	IsVerified(ctx context.Context, tenantID, debtorID, clientID string) (bool, error)
}
