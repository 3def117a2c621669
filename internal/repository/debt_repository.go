package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inkaso/collections-engine/internal/domain"
	customError "github.com/inkaso/collections-engine/pkg/errors"
)

type debtRepository struct {
	db *sqlx.DB
}

func NewDebtRepository(db *sqlx.DB) DebtRepository {
	return &debtRepository{db: db}
}

const debtColumns = `
	id, tenant_id, client_id, debtor_id, reference_number,
	original_amount, current_amount, waived_amount, total_paid, currency,
	invoice_date, due_date, status, verification_status,
	verified_by, verified_at, last_payment_date, version, created_at, updated_at
`

func (r *debtRepository) Create(ctx context.Context, debt *domain.Debt) error {
	query := `
		INSERT INTO debts (` + debtColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		debt.ID,
		debt.TenantID,
		debt.ClientID,
		debt.DebtorID,
		debt.ReferenceNumber,
		debt.OriginalAmount,
		debt.CurrentAmount,
		debt.WaivedAmount,
		debt.TotalPaid,
		debt.Currency,
		debt.InvoiceDate,
		debt.DueDate,
		debt.Status,
		debt.VerificationStatus,
		debt.VerifiedBy,
		debt.VerifiedAt,
		debt.LastPaymentDate,
		debt.Version,
		debt.CreatedAt,
		debt.UpdatedAt,
	)

	return err
}

func (r *debtRepository) GetByID(ctx context.Context, tenantID, debtID string) (*domain.Debt, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debts
		WHERE tenant_id = $1 AND id = $2
	`

	var debt domain.Debt
	if err := r.db.GetContext(ctx, &debt, query, tenantID, debtID); err != nil {
		return nil, err
	}

	return &debt, nil
}

// updateDebtQuery is shared with the transactional ledger repository so both
// paths keep the same optimistic version guard.
const updateDebtQuery = `
	UPDATE debts
	SET current_amount = $4, waived_amount = $5, total_paid = $6,
	    status = $7, verification_status = $8, verified_by = $9,
	    verified_at = $10, last_payment_date = $11,
	    version = version + 1, updated_at = $12
	WHERE tenant_id = $1 AND id = $2 AND version = $3
`

func debtUpdateArgs(debt *domain.Debt, now time.Time) []interface{} {
	return []interface{}{
		debt.TenantID,
		debt.ID,
		debt.Version,
		debt.CurrentAmount,
		debt.WaivedAmount,
		debt.TotalPaid,
		debt.Status,
		debt.VerificationStatus,
		debt.VerifiedBy,
		debt.VerifiedAt,
		debt.LastPaymentDate,
		now,
	}
}

// Update persists the debt with an optimistic version check. Zero rows
// affected means a concurrent writer got there first.
func (r *debtRepository) Update(ctx context.Context, debt *domain.Debt) error {
	result, err := r.db.ExecContext(ctx, updateDebtQuery, debtUpdateArgs(debt, time.Now())...)
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

	debt.Version++
	return nil
}

func (r *debtRepository) Delete(ctx context.Context, tenantID, debtID string) error {
	query := `DELETE FROM debts WHERE tenant_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, tenantID, debtID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return customError.WrapNotFound("debt", debtID)
	}

	return nil
}

func (r *debtRepository) GetDebtorEmail(ctx context.Context, tenantID, debtID string) (string, error) {
	query := `
		SELECT COALESCE(dt.email, '')
		FROM debts d
		JOIN debtors dt ON d.debtor_id = dt.id
		WHERE d.tenant_id = $1 AND d.id = $2
	`

	var email string
	if err := r.db.GetContext(ctx, &email, query, tenantID, debtID); err != nil {
		return "", err
	}

	return email, nil
}
