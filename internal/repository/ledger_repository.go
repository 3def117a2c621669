package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/inkaso/collections-engine/internal/domain"
	customError "github.com/inkaso/collections-engine/pkg/errors"
)

// ledgerRepository carries the multi-row mutations of the lifecycle engine.
// Every method is a single transaction: a crash can never leave an
// installment credited without its debt, or a defaulted plan without its
// waived installments.
type ledgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

const insertPaymentQuery = `
	INSERT INTO payments (
		id, tenant_id, debt_id, installment_id, amount, currency,
		payment_method, processor, processor_payment_id, status, paid_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func insertPaymentArgs(p *domain.Payment) []interface{} {
	return []interface{}{
		p.ID,
		p.TenantID,
		p.DebtID,
		p.InstallmentID,
		p.Amount,
		p.Currency,
		p.PaymentMethod,
		p.Processor,
		p.ProcessorPaymentID,
		p.Status,
		p.PaidAt,
		p.CreatedAt,
	}
}

// isUniqueViolation detects the Postgres duplicate-key error used to reject
// replayed processor events.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func updateDebtTx(ctx context.Context, tx *sqlx.Tx, debt *domain.Debt, now time.Time) error {
	result, err := tx.ExecContext(ctx, updateDebtQuery, debtUpdateArgs(debt, now)...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return customError.WrapConflict("debt", debt.ID)
	}
	return nil
}

func updatePlanTx(ctx context.Context, tx *sqlx.Tx, plan *domain.PaymentPlan, now time.Time) error {
	result, err := tx.ExecContext(ctx, updatePlanQuery, planUpdateArgs(plan, now)...)
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
	return nil
}

func (r *ledgerRepository) ActivatePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt, installments []*domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if err := updatePlanTx(ctx, tx, plan, now); err != nil {
		return err
	}
	if err := updateDebtTx(ctx, tx, debt, now); err != nil {
		return err
	}

	insertInstallment := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, inst := range installments {
		_, err = tx.ExecContext(ctx, insertInstallment,
			inst.ID,
			inst.TenantID,
			inst.PaymentPlanID,
			inst.DebtID,
			inst.InstallmentNumber,
			inst.Amount,
			inst.DueDate,
			inst.Status,
			inst.Paid,
			inst.PaidAmount,
			inst.PaidDate,
			inst.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	plan.Version++
	debt.Version++
	return nil
}

func (r *ledgerRepository) CancelPlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if err := updatePlanTx(ctx, tx, plan, now); err != nil {
		return err
	}
	if err := updateDebtTx(ctx, tx, debt, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	plan.Version++
	debt.Version++
	return nil
}

func (r *ledgerRepository) AcceleratePlan(ctx context.Context, plan *domain.PaymentPlan, debt *domain.Debt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if err := updatePlanTx(ctx, tx, plan, now); err != nil {
		return err
	}
	if err := updateDebtTx(ctx, tx, debt, now); err != nil {
		return err
	}

	// Paid installments are untouched; only the uncollected remainder is
	// waived and rolled into the lump-sum balance.
	waive := `
		UPDATE installments
		SET status = 'waived'
		WHERE payment_plan_id = $1 AND paid = FALSE
	`
	if _, err := tx.ExecContext(ctx, waive, plan.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	plan.Version++
	debt.Version++
	return nil
}

func (r *ledgerRepository) ApplyInstallmentPayment(ctx context.Context, payment *domain.Payment, installment *domain.Installment, debt *domain.Debt, plan *domain.PaymentPlan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Insert the payment first: a replayed processor event trips the unique
	// constraint here and aborts the unit before any balance moves.
	if _, err := tx.ExecContext(ctx, insertPaymentQuery, insertPaymentArgs(payment)...); err != nil {
		if isUniqueViolation(err) {
			return customError.WrapDuplicateEvent(payment.ProcessorPaymentID)
		}
		return err
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, updateInstallmentQuery,
		installment.TenantID,
		installment.ID,
		installment.Status,
		installment.Paid,
		installment.PaidAmount,
		installment.PaidDate,
	)
	if err != nil {
		return err
	}

	if err := updateDebtTx(ctx, tx, debt, now); err != nil {
		return err
	}

	if plan != nil {
		if err := updatePlanTx(ctx, tx, plan, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	debt.Version++
	if plan != nil {
		plan.Version++
	}
	return nil
}

func (r *ledgerRepository) ApplyDebtPayment(ctx context.Context, payment *domain.Payment, debt *domain.Debt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertPaymentQuery, insertPaymentArgs(payment)...); err != nil {
		if isUniqueViolation(err) {
			return customError.WrapDuplicateEvent(payment.ProcessorPaymentID)
		}
		return err
	}

	if err := updateDebtTx(ctx, tx, debt, time.Now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	debt.Version++
	return nil
}
