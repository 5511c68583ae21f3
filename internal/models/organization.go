package models

import "time"

// Organization is a tenant owned by a single owner account.
type Organization struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// OrganizationRef is the slim directory entry returned by GET /organization/get-all.
type OrganizationRef struct {
	OrganizationID string `db:"id" json:"organizationId"`
	Name           string `db:"name" json:"name"`
}

// CreateOrganizationRequest is posted by an owner creating a tenant.
type CreateOrganizationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	UserID      string `json:"userId" validate:"required"`
}

// UpdateOrganizationRequest changes an organization the caller owns.
type UpdateOrganizationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	UserID      string `json:"userId" validate:"required"`
}

// OrganizationOwnerRequest identifies the owner acting on an organization.
type OrganizationOwnerRequest struct {
	UserID string `json:"userId" validate:"required"`
}
