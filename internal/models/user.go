package models

import "time"

// UserRole represents the roles stored on user records.
type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleAdmin   UserRole = "admin"
	RolePatient UserRole = "user"
)

// User represents an account stored in the users table. Patients, admins and
// owners share the table and are told apart by Role.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	DOB            *string   `db:"dob" json:"dob,omitempty"`
	Role           UserRole  `db:"role" json:"role"`
	OrganizationID *string   `db:"organization_id" json:"organizationId,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// OrgID returns the organization identifier or an empty string.
func (u *User) OrgID() string {
	if u == nil || u.OrganizationID == nil {
		return ""
	}
	return *u.OrganizationID
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	OrganizationID string
	Role           UserRole
}

// UserSummary is the public profile returned by GET /user.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Caretaker can sign in on behalf of a single patient.
type Caretaker struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	PatientID    string    `db:"patient_id" json:"patientId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UpdateAdminRequest edits an admin's contact details.
type UpdateAdminRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

// CreatePatientRequest registers a patient inside an organization.
type CreatePatientRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Phone          string `json:"phone"`
	DOB            string `json:"dob"`
	OrganizationID string `json:"organizationId" validate:"required"`
}

// UpdatePatientRequest edits a patient record and may move it to another
// organization. Role must stay "user".
type UpdatePatientRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone" validate:"required"`
	DOB            string   `json:"dob"`
	Role           UserRole `json:"role"`
	OrganizationID string   `json:"organizationId" validate:"required"`
}

// UpdateProfileRequest is the self-service profile edit.
type UpdateProfileRequest struct {
	UserID          string `json:"userId" validate:"required"`
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"password" validate:"omitempty,min=6"`
}

// AuditSnapshot is the subset of user fields copied into UPDATE audit details.
type AuditSnapshot struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
	DOB   *string `json:"dob,omitempty"`
}

// Snapshot copies the audited fields of u.
func (u *User) Snapshot() AuditSnapshot {
	return AuditSnapshot{Name: u.Name, Email: u.Email, Phone: u.Phone, DOB: u.DOB}
}
