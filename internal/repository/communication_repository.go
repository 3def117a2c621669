package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inkaso/collections-engine/internal/domain"
)

type communicationRepository struct {
	db *sqlx.DB
}

func NewCommunicationRepository(db *sqlx.DB) CommunicationRepository {
	return &communicationRepository{db: db}
}

func (r *communicationRepository) Create(ctx context.Context, comm *domain.Communication) error {
	query := `
		INSERT INTO communications (
			id, tenant_id, debt_id, type, direction, subject, content,
			to_email, status, sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		comm.ID,
		comm.TenantID,
		comm.DebtID,
		comm.Type,
		comm.Direction,
		comm.Subject,
		comm.Content,
		comm.ToEmail,
		comm.Status,
		comm.SentAt,
		comm.CreatedAt,
	)

	return err
}
