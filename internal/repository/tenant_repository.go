package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT id
		FROM tenants
		WHERE status IN ('active', 'trial')
		ORDER BY id
	`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}

	return ids, nil
}

type relationshipRepository struct {
	db *sqlx.DB
}

func NewRelationshipRepository(db *sqlx.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// IsVerified reports whether the debtor-client pair already passed manual
// review; debts for verified pairs skip the verification queue.
func (r *relationshipRepository) IsVerified(ctx context.Context, tenantID, debtorID, clientID string) (bool, error) {
	query := `
		SELECT verified
		FROM debtor_client_relationships
		WHERE tenant_id = $1 AND debtor_id = $2 AND client_id = $3
	`

	var verified bool
	err := r.db.GetContext(ctx, &verified, query, tenantID, debtorID, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return verified, nil
}
