package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/inkaso/collections-engine/internal/domain"
)

type disputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) DisputeRepository {
	return &disputeRepository{db: db}
}

const disputeColumns = `
	id, tenant_id, debt_id, raised_by, dispute_type, description,
	status, outcome, resolution_notes, resolved_at, created_at
`

func (r *disputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		dispute.ID,
		dispute.TenantID,
		dispute.DebtID,
		dispute.RaisedBy,
		dispute.DisputeType,
		dispute.Description,
		dispute.Status,
		dispute.Outcome,
		dispute.ResolutionNotes,
		dispute.ResolvedAt,
		dispute.CreatedAt,
	)

	return err
}

func (r *disputeRepository) GetByID(ctx context.Context, tenantID, disputeID string) (*domain.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE tenant_id = $1 AND id = $2
	`

	var dispute domain.Dispute
	if err := r.db.GetContext(ctx, &dispute, query, tenantID, disputeID); err != nil {
		return nil, err
	}

	return &dispute, nil
}

func (r *disputeRepository) GetOpenByDebtID(ctx context.Context, tenantID, debtID string) (*domain.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE tenant_id = $1 AND debt_id = $2 AND status = 'open'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var dispute domain.Dispute
	err := r.db.GetContext(ctx, &dispute, query, tenantID, debtID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &dispute, nil
}

func (r *disputeRepository) Update(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		UPDATE disputes
		SET status = $3, outcome = $4, resolution_notes = $5, resolved_at = $6
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		dispute.TenantID,
		dispute.ID,
		dispute.Status,
		dispute.Outcome,
		dispute.ResolutionNotes,
		dispute.ResolvedAt,
	)

	return err
}
