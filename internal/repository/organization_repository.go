package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Maverics-Seneca/auth-service/internal/models"
)

// OrganizationRepository persists organizations.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts an organization; the store assigns id and timestamps.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	const query = `INSERT INTO organizations (owner_id, name, description) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, org.OwnerID, org.Name, org.Description).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// FindByID loads an organization.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, owner_id, name, description, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}

// ListAll returns the directory of every organization.
func (r *OrganizationRepository) ListAll(ctx context.Context) ([]models.OrganizationRef, error) {
	const query = `SELECT id, name FROM organizations ORDER BY name ASC`
	refs := make([]models.OrganizationRef, 0)
	if err := r.db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return refs, nil
}

// ListByOwner returns organizations owned by ownerID.
func (r *OrganizationRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Organization, error) {
	const query = `SELECT id, owner_id, name, description, created_at, updated_at FROM organizations WHERE owner_id = $1 ORDER BY created_at DESC`
	orgs := make([]models.Organization, 0)
	if err := r.db.SelectContext(ctx, &orgs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list organizations by owner: %w", err)
	}
	return orgs, nil
}

// Update changes name and description.
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	const query = `UPDATE organizations SET name = $2, description = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, org.ID, org.Name, org.Description).Scan(&org.UpdatedAt); err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// Delete removes an organization.
func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM organizations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return nil
}
