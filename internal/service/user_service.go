package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService handles admin, patient and profile management.
type UserService struct {
	repo      userRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListUsers returns users filtered by organization and role.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch users")
	}
	return users, nil
}

// ListAdmins returns admins, optionally restricted to one organization.
func (s *UserService) ListAdmins(ctx context.Context, organizationID string) ([]models.User, error) {
	return s.ListUsers(ctx, models.UserFilter{OrganizationID: organizationID, Role: models.RoleAdmin})
}

// GetUser returns the public profile of a user.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserSummary, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserSummary{Name: user.Name, Email: user.Email}, nil
}

// UpdateAdmin edits an admin's contact details.
func (s *UserService) UpdateAdmin(ctx context.Context, id string, req models.UpdateAdminRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid admin payload")
	}
	user, err := s.loadWithRole(ctx, id, models.RoleAdmin, appErrors.Clone(appErrors.ErrNotFound, "admin not found"))
	if err != nil {
		return nil, err
	}
	if err := ensureEmailAvailable(ctx, s.repo, req.Email, user.ID); err != nil {
		return nil, err
	}

	oldData := user.Snapshot()
	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	if req.Phone != "" {
		phone := req.Phone
		user.Phone = &phone
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update admin")
	}

	s.recordUpdate(ctx, models.AuditActionUpdateAdmin, user, oldData)
	return user, nil
}

// DeleteAdmin removes an admin account.
func (s *UserService) DeleteAdmin(ctx context.Context, id string) error {
	user, err := s.loadWithRole(ctx, id, models.RoleAdmin, appErrors.Clone(appErrors.ErrNotFound, "admin not found"))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return appErrors.Internal(err, "failed to delete admin")
	}
	s.recordDelete(ctx, models.AuditActionDeleteAdmin, user)
	return nil
}

// CreatePatient registers a patient inside an organization.
func (s *UserService) CreatePatient(ctx context.Context, req models.CreatePatientRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid patient payload")
	}
	if err := ensureEmailAvailable(ctx, s.repo, req.Email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	orgID := req.OrganizationID
	user := &models.User{
		Email:          req.Email,
		PasswordHash:   string(hash),
		Name:           req.Name,
		Phone:          optional(req.Phone),
		DOB:            optional(req.DOB),
		Role:           models.RolePatient,
		OrganizationID: &orgID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create patient")
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionCreate,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": user.Snapshot()},
	})
	return user, nil
}

// UpdatePatient edits a patient record. Only role "user" records qualify.
func (s *UserService) UpdatePatient(ctx context.Context, id string, req models.UpdatePatientRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid patient payload")
	}
	notPatient := appErrors.Clone(appErrors.ErrForbidden, "only patient records can be updated here")
	user, err := s.loadWithRole(ctx, id, models.RolePatient, notPatient)
	if err != nil {
		return nil, err
	}
	if req.Role != models.RolePatient {
		return nil, notPatient
	}
	if err := ensureEmailAvailable(ctx, s.repo, req.Email, user.ID); err != nil {
		return nil, err
	}

	oldData := user.Snapshot()
	oldOrg := user.OrgID()
	user.Name = req.Name
	user.Email = strings.ToLower(req.Email)
	user.Phone = optional(req.Phone)
	if req.DOB != "" {
		user.DOB = optional(req.DOB)
	}
	orgID := req.OrganizationID
	user.OrganizationID = &orgID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update patient")
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionUpdateUser,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details: map[string]interface{}{
			"oldData": patientDetails(oldData, oldOrg),
			"newData": patientDetails(user.Snapshot(), orgID),
		},
	})
	return user, nil
}

// DeletePatient removes a patient record.
func (s *UserService) DeletePatient(ctx context.Context, id string) error {
	user, err := s.loadWithRole(ctx, id, models.RolePatient, appErrors.Clone(appErrors.ErrForbidden, "only patient records can be deleted here"))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return appErrors.Internal(err, "failed to delete patient")
	}
	s.recordDelete(ctx, models.AuditActionDeleteUser, user)
	return nil
}

// UpdateProfile applies a self-service profile edit. Changing the password
// requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	user, err := s.load(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "current password is required to set a new password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
		}
	}
	if req.Email != "" && !strings.EqualFold(req.Email, user.Email) {
		if err := ensureEmailAvailable(ctx, s.repo, req.Email, user.ID); err != nil {
			return nil, err
		}
	}

	oldData := user.Snapshot()
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if req.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update profile")
	}

	s.recordUpdate(ctx, models.AuditActionUpdate, user, oldData)
	return user, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	return user, nil
}

// loadWithRole fetches id and returns wrongRole when the record exists with
// a different role.
func (s *UserService) loadWithRole(ctx context.Context, id string, role models.UserRole, wrongRole error) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, wrongRole
	}
	return user, nil
}

func (s *UserService) recordUpdate(ctx context.Context, action string, user *models.User, oldData models.AuditSnapshot) {
	s.audit.Record(ctx, models.AuditRecord{
		Action:      action,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"oldData": oldData, "newData": user.Snapshot()},
	})
}

func (s *UserService) recordDelete(ctx context.Context, action string, user *models.User) {
	s.audit.Record(ctx, models.AuditRecord{
		Action:      action,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": user.Snapshot()},
	})
}

// patientDetails extends a snapshot with the organization a patient belongs to.
func patientDetails(snap models.AuditSnapshot, organizationID string) map[string]interface{} {
	details := map[string]interface{}{"name": snap.Name, "email": snap.Email, "organizationId": organizationID}
	if snap.Phone != nil {
		details["phone"] = *snap.Phone
	}
	if snap.DOB != nil {
		details["dob"] = *snap.DOB
	}
	return details
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
