package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

type organizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	ListAll(ctx context.Context) ([]models.OrganizationRef, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
}

// OrganizationService manages tenants and keeps the cached directory fresh.
type OrganizationService struct {
	repo      organizationRepository
	cache     *OrganizationCache
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrganizationService constructs the service. cache may be nil.
func NewOrganizationService(repo organizationRepository, cache *OrganizationCache, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *OrganizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OrganizationService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// Create inserts an organization owned by req.UserID.
func (s *OrganizationService) Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid organization payload")
	}

	org := &models.Organization{OwnerID: req.UserID, Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, appErrors.Internal(err, "failed to create organization")
	}
	s.invalidateCache(ctx)

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionCreateOrganization,
		ActorUserID: req.UserID,
		EntityKind:  models.EntityOrganization,
		EntityID:    org.ID,
		EntityName:  org.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"name": org.Name, "description": org.Description}},
	})
	return org, nil
}

// ListAll returns the organization directory, served from cache when possible.
func (s *OrganizationService) ListAll(ctx context.Context) ([]models.OrganizationRef, error) {
	if refs, hit := s.cache.Directory(ctx); hit {
		return refs, nil
	}

	refs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch organizations")
	}
	s.cache.StoreDirectory(ctx, refs)
	return refs, nil
}

// ListByOwner returns organizations owned by ownerID.
func (s *OrganizationService) ListByOwner(ctx context.Context, ownerID string) ([]models.Organization, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	if orgs, hit := s.cache.OwnedBy(ctx, ownerID); hit {
		return orgs, nil
	}

	orgs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to fetch organizations")
	}
	s.cache.StoreOwnedBy(ctx, ownerID, orgs)
	return orgs, nil
}

// Update renames or re-describes an organization the caller owns.
func (s *OrganizationService) Update(ctx context.Context, id string, req models.UpdateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid organization payload")
	}

	org, err := s.ownedOrganization(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}
	oldData := map[string]interface{}{"name": org.Name, "description": org.Description}

	org.Name = req.Name
	org.Description = req.Description
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, appErrors.Internal(err, "failed to update organization")
	}
	s.invalidateCache(ctx)

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionUpdateOrganization,
		ActorUserID: req.UserID,
		EntityKind:  models.EntityOrganization,
		EntityID:    org.ID,
		EntityName:  org.Name,
		Details: map[string]interface{}{
			"oldData": oldData,
			"newData": map[string]interface{}{"name": org.Name, "description": org.Description},
		},
	})
	return org, nil
}

// Delete removes an organization the caller owns.
func (s *OrganizationService) Delete(ctx context.Context, id string, req models.OrganizationOwnerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid organization payload")
	}

	org, err := s.ownedOrganization(ctx, id, req.UserID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, org.ID); err != nil {
		return appErrors.Internal(err, "failed to delete organization")
	}
	s.invalidateCache(ctx)

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionDeleteOrganization,
		ActorUserID: req.UserID,
		EntityKind:  models.EntityOrganization,
		EntityID:    org.ID,
		EntityName:  org.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"name": org.Name}},
	})
	return nil
}

func (s *OrganizationService) ownedOrganization(ctx context.Context, id, userID string) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Internal(err, "failed to fetch organization")
	}
	if org.OwnerID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can modify this organization")
	}
	return org, nil
}

// invalidateCache drops the directory and every per-owner listing.
func (s *OrganizationService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate organization cache", zap.Error(err))
	}
}
