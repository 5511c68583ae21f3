package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user or caretaker.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token          string   `json:"token"`
	UserID         string   `json:"userId"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Role           UserRole `json:"role"`
	OrganizationID *string  `json:"organizationId"`
}

// CaretakerLoginResponse identifies the patient a caretaker acts for.
type CaretakerLoginResponse struct {
	PatientID string `json:"patientId"`
}

// RegisterRequest creates a self-service account.
type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Name     string   `json:"name" validate:"required"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=owner admin user"`
}

// RegisterAdminRequest creates an admin bound to an organization.
type RegisterAdminRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone" validate:"required"`
	Password       string   `json:"password" validate:"required,min=6"`
	OrganizationID string   `json:"organizationId" validate:"required"`
	Role           UserRole `json:"role" validate:"omitempty,oneof=owner admin"`
}

// PasswordResetRequest initiates the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmPasswordResetRequest completes the reset flow.
type ConfirmPasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// JWTClaims represents the access token payload.
type JWTClaims struct {
	UserID         string   `json:"userId"`
	Email          string   `json:"email"`
	Role           UserRole `json:"role"`
	Name           string   `json:"name"`
	OrganizationID *string  `json:"organizationId,omitempty"`
	jwt.RegisteredClaims
}
