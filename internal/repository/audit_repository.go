package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Maverics-Seneca/auth-service/internal/models"
)

const auditColumns = `id, action, user_id, legacy_user, user_name, entity, entity_id, entity_name, details, organization_id, "timestamp"`

// AuditRepository is the append-only store behind the audit trail. It has no
// update or delete methods.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends an entry. The store assigns id and timestamp, which are
// written back onto entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.LogEntry) error {
	const query = `INSERT INTO audit_logs (action, user_id, user_name, entity, entity_id, entity_name, details, organization_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, "timestamp"`
	row := r.db.QueryRowxContext(ctx, query,
		entry.Action,
		entry.ActorUserID,
		entry.ActorName,
		entry.EntityKind,
		entry.EntityID,
		entry.EntityName,
		entry.Details,
		entry.OrganizationID,
	)
	if err := row.Scan(&entry.ID, &entry.Timestamp); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns entries matching filter, newest first. Ties on timestamp are
// broken by id so repeated queries return a stable order.
func (r *AuditRepository) List(ctx context.Context, filter models.LogFilter) ([]models.LogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE 1=1`
	var args []interface{}

	if len(filter.ExcludeActions) > 0 {
		args = append(args, pq.Array(filter.ExcludeActions))
		query += fmt.Sprintf(" AND action <> ALL($%d)", len(args))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		query += fmt.Sprintf(" AND organization_id = $%d", len(args))
	}
	query += ` ORDER BY "timestamp" DESC, id DESC`

	entries := make([]models.LogEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
