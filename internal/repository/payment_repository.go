package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inkaso/collections-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListByDebtID(ctx context.Context, tenantID, debtID string, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT id, tenant_id, debt_id, installment_id, amount, currency,
		       payment_method, processor, processor_payment_id, status, paid_at, created_at
		FROM payments
		WHERE tenant_id = $1 AND debt_id = $2
		ORDER BY paid_at DESC
		LIMIT $3
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, tenantID, debtID, limit); err != nil {
		return nil, err
	}

	return payments, nil
}
