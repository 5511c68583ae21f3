package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

func seededUsers(t *testing.T) *mockUserRepo {
	return newMockUserRepo(
		&models.User{ID: "admin1", Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin, OrganizationID: strPtr("org1")},
		&models.User{ID: "p1", Email: "pat@example.com", Name: "Pat", Role: models.RolePatient, OrganizationID: strPtr("org1"), PasswordHash: mustHash(t, "current")},
		&models.User{ID: "owner1", Email: "owner@example.com", Name: "Owner", Role: models.RoleOwner},
	)
}

func TestListAdminsFiltersRole(t *testing.T) {
	svc := NewUserService(seededUsers(t), &recorderSpy{}, nil, zap.NewNop())

	admins, err := svc.ListAdmins(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin1", admins[0].ID)
}

func TestGetUserSummary(t *testing.T) {
	svc := NewUserService(seededUsers(t), &recorderSpy{}, nil, zap.NewNop())

	summary, err := svc.GetUser(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pat", summary.Name)

	_, err = svc.GetUser(context.Background(), "nobody")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUpdateAdminRecordsOldAndNew(t *testing.T) {
	audit := &recorderSpy{}
	svc := NewUserService(seededUsers(t), audit, nil, zap.NewNop())

	user, err := svc.UpdateAdmin(context.Background(), "admin1", models.UpdateAdminRequest{Name: "Admin Two", Email: "admin@example.com", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Admin Two", user.Name)

	rec := audit.last()
	assert.Equal(t, models.AuditActionUpdateAdmin, rec.Action)
	details := rec.Details.(map[string]interface{})
	assert.Equal(t, "Admin", details["oldData"].(models.AuditSnapshot).Name)
	assert.Equal(t, "Admin Two", details["newData"].(models.AuditSnapshot).Name)
}

func TestAdminOperationsRejectNonAdmins(t *testing.T) {
	svc := NewUserService(seededUsers(t), &recorderSpy{}, nil, zap.NewNop())

	_, err := svc.UpdateAdmin(context.Background(), "p1", models.UpdateAdminRequest{Name: "X", Email: "x@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteAdmin(context.Background(), "owner1"), appErrors.ErrNotFound))
}

func TestDeleteAdmin(t *testing.T) {
	audit := &recorderSpy{}
	repo := seededUsers(t)
	svc := NewUserService(repo, audit, nil, zap.NewNop())

	require.NoError(t, svc.DeleteAdmin(context.Background(), "admin1"))
	assert.Equal(t, []string{"admin1"}, repo.deleted)
	assert.Equal(t, []string{models.AuditActionDeleteAdmin}, audit.actions())
}

func TestCreatePatient(t *testing.T) {
	audit := &recorderSpy{}
	svc := NewUserService(seededUsers(t), audit, nil, zap.NewNop())

	user, err := svc.CreatePatient(context.Background(), models.CreatePatientRequest{
		Name: "New Pat", Email: "newpat@example.com", Password: "secret1", DOB: "1990-01-01", OrganizationID: "org1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, user.Role)
	assert.Equal(t, "1990-01-01", *user.DOB)
	assert.Nil(t, user.Phone)
	assert.Equal(t, []string{models.AuditActionCreate}, audit.actions())

	_, err = svc.CreatePatient(context.Background(), models.CreatePatientRequest{
		Name: "Dup", Email: "pat@example.com", Password: "secret1", OrganizationID: "org1",
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestUpdatePatientRequiresPatientRole(t *testing.T) {
	audit := &recorderSpy{}
	svc := NewUserService(seededUsers(t), audit, nil, zap.NewNop())

	_, err := svc.UpdatePatient(context.Background(), "p1", models.UpdatePatientRequest{Name: "Pat", Email: "pat@example.com", Phone: "555", Role: models.RoleAdmin, OrganizationID: "org1"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.UpdatePatient(context.Background(), "admin1", models.UpdatePatientRequest{Name: "A", Email: "admin@example.com", Phone: "555", Role: models.RolePatient, OrganizationID: "org1"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, audit.actions())

	user, err := svc.UpdatePatient(context.Background(), "p1", models.UpdatePatientRequest{Name: "Patricia", Email: "pat@example.com", Phone: "555", Role: models.RolePatient, OrganizationID: "org1"})
	require.NoError(t, err)
	assert.Equal(t, "Patricia", user.Name)
	assert.Equal(t, []string{models.AuditActionUpdateUser}, audit.actions())
}

func TestUpdatePatientRequiresPhoneAndOrganization(t *testing.T) {
	audit := &recorderSpy{}
	svc := NewUserService(seededUsers(t), audit, nil, zap.NewNop())

	_, err := svc.UpdatePatient(context.Background(), "p1", models.UpdatePatientRequest{Name: "Pat", Email: "pat@example.com", Role: models.RolePatient, OrganizationID: "org1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.UpdatePatient(context.Background(), "p1", models.UpdatePatientRequest{Name: "Pat", Email: "pat@example.com", Phone: "555", Role: models.RolePatient})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, audit.actions())
}

func TestUpdatePatientMovesOrganization(t *testing.T) {
	repo := seededUsers(t)
	store := &mockAuditStore{}
	audit := newTestAuditService(store, repo, false)
	svc := NewUserService(repo, audit, nil, zap.NewNop())

	user, err := svc.UpdatePatient(context.Background(), "p1", models.UpdatePatientRequest{
		Name:           "Pat",
		Email:          "pat@example.com",
		Phone:          "555-0100",
		Role:           models.RolePatient,
		OrganizationID: "org2",
	})
	require.NoError(t, err)
	assert.Equal(t, "org2", user.OrgID())

	stored, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "org2", stored.OrgID())
	assert.Equal(t, "555-0100", *stored.Phone)

	entries := store.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionUpdateUser, entries[0].Action)
	require.NotNil(t, entries[0].OrganizationID)
	assert.Equal(t, "org2", *entries[0].OrganizationID)

	var details struct {
		OldData map[string]interface{} `json:"oldData"`
		NewData map[string]interface{} `json:"newData"`
	}
	require.NoError(t, json.Unmarshal(entries[0].Details, &details))
	assert.Equal(t, "org1", details.OldData["organizationId"])
	assert.Equal(t, "org2", details.NewData["organizationId"])
	assert.Equal(t, "555-0100", details.NewData["phone"])
}

func TestDeletePatient(t *testing.T) {
	audit := &recorderSpy{}
	svc := NewUserService(seededUsers(t), audit, nil, zap.NewNop())

	assert.True(t, errors.Is(svc.DeletePatient(context.Background(), "admin1"), appErrors.ErrForbidden))
	require.NoError(t, svc.DeletePatient(context.Background(), "p1"))
	assert.Equal(t, []string{models.AuditActionDeleteUser}, audit.actions())
}

func TestUpdateProfilePasswordRules(t *testing.T) {
	audit := &recorderSpy{}
	repo := seededUsers(t)
	svc := NewUserService(repo, audit, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, models.UpdateProfileRequest{UserID: "p1", NewPassword: "brandnew"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.UpdateProfile(ctx, models.UpdateProfileRequest{UserID: "p1", CurrentPassword: "wrong", NewPassword: "brandnew"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.UpdateProfile(ctx, models.UpdateProfileRequest{UserID: "p1", Email: "admin@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, audit.actions())

	user, err := svc.UpdateProfile(ctx, models.UpdateProfileRequest{UserID: "p1", Name: "Pat B", CurrentPassword: "current", NewPassword: "brandnew"})
	require.NoError(t, err)
	assert.Equal(t, "Pat B", user.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["p1"].PasswordHash), []byte("brandnew")))
	assert.Equal(t, []string{models.AuditActionUpdate}, audit.actions())
}
