package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inkaso/collections-engine/internal/domain"
	customError "github.com/inkaso/collections-engine/pkg/errors"
)

type planRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) PlanRepository {
	return &planRepository{db: db}
}

const planColumns = `
	id, tenant_id, debt_id, total_amount, down_payment,
	installment_amount, installment_count, installment_frequency,
	start_date, status, agreed_by_client, agreement_date, default_date,
	grace_period_days, acceleration_enabled, version, created_at, updated_at
`

const installmentColumns = `
	id, tenant_id, payment_plan_id, debt_id, installment_number, amount,
	due_date, status, paid, paid_amount, paid_date, created_at
`

func (r *planRepository) Create(ctx context.Context, plan *domain.PaymentPlan) error {
	query := `
		INSERT INTO payment_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.TenantID,
		plan.DebtID,
		plan.TotalAmount,
		plan.DownPayment,
		plan.InstallmentAmount,
		plan.InstallmentCount,
		plan.InstallmentFrequency,
		plan.StartDate,
		plan.Status,
		plan.AgreedByClient,
		plan.AgreementDate,
		plan.DefaultDate,
		plan.GracePeriodDays,
		plan.AccelerationEnabled,
		plan.Version,
		plan.CreatedAt,
		plan.UpdatedAt,
	)

	return err
}

func (r *planRepository) GetByID(ctx context.Context, tenantID, planID string) (*domain.PaymentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM payment_plans
		WHERE tenant_id = $1 AND id = $2
	`

	var plan domain.PaymentPlan
	if err := r.db.GetContext(ctx, &plan, query, tenantID, planID); err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepository) GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.PaymentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM payment_plans
		WHERE tenant_id = $1 AND debt_id = $2 AND status IN ('proposed', 'active')
		ORDER BY created_at DESC
		LIMIT 1
	`

	var plan domain.PaymentPlan
	err := r.db.GetContext(ctx, &plan, query, tenantID, debtID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepository) Update(ctx context.Context, plan *domain.PaymentPlan) error {
	result, err := r.db.ExecContext(ctx, updatePlanQuery, planUpdateArgs(plan, time.Now())...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return customError.WrapConflict("payment plan", plan.ID)
	}

	plan.Version++
	return nil
}

// updatePlanQuery is shared with the transactional ledger repository so both
// paths keep the same optimistic version guard.
const updatePlanQuery = `
	UPDATE payment_plans
	SET status = $4, agreed_by_client = $5, agreement_date = $6,
	    default_date = $7, version = version + 1, updated_at = $8
	WHERE tenant_id = $1 AND id = $2 AND version = $3
`

func planUpdateArgs(plan *domain.PaymentPlan, now time.Time) []interface{} {
	return []interface{}{
		plan.TenantID,
		plan.ID,
		plan.Version,
		plan.Status,
		plan.AgreedByClient,
		plan.AgreementDate,
		plan.DefaultDate,
		now,
	}
}

func (r *planRepository) ListInstallments(ctx context.Context, planID string) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE payment_plan_id = $1
		ORDER BY installment_number
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, planID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *planRepository) GetInstallmentByID(ctx context.Context, tenantID, installmentID string) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = $1 AND id = $2
	`

	var installment domain.Installment
	if err := r.db.GetContext(ctx, &installment, query, tenantID, installmentID); err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *planRepository) ListInstallmentsDueInRange(ctx context.Context, tenantID string, start, end time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = $1 AND status = $2 AND paid = FALSE
		  AND due_date >= $3 AND due_date < $4
		ORDER BY due_date
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, tenantID, status, start, end); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *planRepository) ListInstallmentsPastDue(ctx context.Context, tenantID string, cutoff time.Time, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = $1 AND status = $2 AND paid = FALSE AND due_date < $3
		ORDER BY due_date
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, tenantID, status, cutoff); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *planRepository) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	_, err := r.db.ExecContext(ctx, updateInstallmentQuery,
		installment.TenantID,
		installment.ID,
		installment.Status,
		installment.Paid,
		installment.PaidAmount,
		installment.PaidDate,
	)
	return err
}

const updateInstallmentQuery = `
	UPDATE installments
	SET status = $3, paid = $4, paid_amount = $5, paid_date = $6
	WHERE tenant_id = $1 AND id = $2
`

// ListAccelerationCandidates finds active plans with at least one overdue
// unpaid installment past the plan's own grace period. The status filters make
// re-running the sweep against already defaulted plans a no-op.
func (r *planRepository) ListAccelerationCandidates(ctx context.Context, tenantID string, now time.Time) ([]*domain.PaymentPlan, error) {
	query := `
		SELECT DISTINCT pp.id, pp.tenant_id, pp.debt_id, pp.total_amount, pp.down_payment,
			pp.installment_amount, pp.installment_count, pp.installment_frequency,
			pp.start_date, pp.status, pp.agreed_by_client, pp.agreement_date, pp.default_date,
			pp.grace_period_days, pp.acceleration_enabled, pp.version, pp.created_at, pp.updated_at
		FROM payment_plans pp
		JOIN installments i ON i.payment_plan_id = pp.id
		WHERE pp.tenant_id = $1
		  AND pp.status = 'active'
		  AND pp.acceleration_enabled = TRUE
		  AND i.status = 'overdue'
		  AND i.paid = FALSE
		  AND i.due_date < $2::timestamptz - make_interval(days => pp.grace_period_days)
	`

	var plans []*domain.PaymentPlan
	if err := r.db.SelectContext(ctx, &plans, query, tenantID, now); err != nil {
		return nil, err
	}

	return plans, nil
}
