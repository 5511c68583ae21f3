package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

type authFixture struct {
	svc    *AuthService
	users  *mockUserRepo
	resets *mockResetStore
	mail   *mockSender
	audit  *recorderSpy
}

func newAuthFixture(t *testing.T, users ...*models.User) authFixture {
	t.Helper()
	f := authFixture{
		users:  newMockUserRepo(users...),
		resets: newMockResetStore(),
		mail:   &mockSender{},
		audit:  &recorderSpy{},
	}
	hash := mustHash(t, "carepass")
	caretakers := &mockCaretakerRepo{caretaker: &models.Caretaker{ID: "c1", Email: "care@example.com", PasswordHash: hash, PatientID: "p1"}}
	f.svc = NewAuthService(f.users, caretakers, f.resets, f.mail, f.audit, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "auth-service",
		ResetTokenTTL:     30 * time.Minute,
		ResetLinkBase:     "https://app.example.com/reset-password",
	})
	return f
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterCreatesUserAndRecords(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), models.RegisterRequest{Email: "New@Example.com", Password: "secret1", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Equal(t, []string{models.AuditActionRegister}, f.audit.actions())
	assert.Equal(t, user.ID, f.audit.last().ActorUserID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, &models.User{ID: "u1", Email: "taken@example.com"})

	_, err := f.svc.Register(context.Background(), models.RegisterRequest{Email: "taken@example.com", Password: "secret1", Name: "Dup"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, f.audit.actions())
}

func TestRegisterAdminDefaultsRole(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.RegisterAdmin(context.Background(), models.RegisterAdminRequest{
		Name: "Admin", Email: "admin@example.com", Phone: "555", Password: "secret1", OrganizationID: "org1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "org1", user.OrgID())
	assert.Equal(t, []string{models.AuditActionRegisterAdmin}, f.audit.actions())
}

func TestRegisterAdminRequiresOrganization(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RegisterAdmin(context.Background(), models.RegisterAdminRequest{Name: "Admin", Email: "admin@example.com", Phone: "555", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLoginIssuesTokenWithClaims(t *testing.T) {
	f := newAuthFixture(t, &models.User{ID: "u1", Email: "user@example.com", Name: "User", Role: models.RoleAdmin, PasswordHash: mustHash(t, "password"), OrganizationID: strPtr("org1")})

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.UserID)

	claims, err := f.svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "org1", *claims.OrganizationID)
	assert.Equal(t, []string{models.AuditActionLogin}, f.audit.actions())
}

func TestLoginInvalidPassword(t *testing.T) {
	f := newAuthFixture(t, &models.User{ID: "u1", Email: "user@example.com", PasswordHash: mustHash(t, "password")})

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
	assert.Empty(t, f.audit.actions())
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestCaretakerLogin(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.CaretakerLogin(context.Background(), models.LoginRequest{Email: "care@example.com", Password: "carepass"})
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.PatientID)

	_, err = f.svc.CaretakerLogin(context.Background(), models.LoginRequest{Email: "care@example.com", Password: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newAuthFixture(t, &models.User{ID: "u1", Email: "user@example.com", Name: "User", PasswordHash: mustHash(t, "old-pass")})
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, models.PasswordResetRequest{Email: "user@example.com"}))
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, 30*time.Minute, f.resets.lastTTL)

	var token string
	for tok := range f.resets.tokens {
		token = tok
	}
	require.NotEmpty(t, token)
	assert.True(t, strings.Contains(f.mail.sent[0].HTML, "https://app.example.com/reset-password?token="))

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, models.ConfirmPasswordResetRequest{Token: token, NewPassword: "new-pass"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.users.users["u1"].PasswordHash), []byte("new-pass")))
	assert.Equal(t, []string{models.AuditActionRequestPasswordReset, models.AuditActionResetPassword}, f.audit.actions())

	err := f.svc.ConfirmPasswordReset(ctx, models.ConfirmPasswordResetRequest{Token: token, NewPassword: "again-pass"})
	assert.True(t, errors.Is(err, appErrors.ErrTokenExpired))
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), models.PasswordResetRequest{Email: "nobody@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, f.mail.sent)
}

func TestPasswordResetMailFailure(t *testing.T) {
	f := newAuthFixture(t, &models.User{ID: "u1", Email: "user@example.com"})
	f.mail.err = errors.New("smtp down")

	err := f.svc.RequestPasswordReset(context.Background(), models.PasswordResetRequest{Email: "user@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, f.audit.actions())
}
