package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
	"github.com/Maverics-Seneca/auth-service/pkg/mailer"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type caretakerRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Caretaker, error)
}

type resetTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Consume(ctx context.Context, token string) (string, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	ResetTokenTTL     time.Duration
	ResetLinkBase     string
}

// AuthService provides registration, login and password reset.
type AuthService struct {
	repo       authUserRepository
	caretakers caretakerRepository
	resets     resetTokenStore
	mail       mailer.Sender
	audit      AuditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, caretakers caretakerRepository, resets resetTokenStore, mail mailer.Sender, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		repo:       repo,
		caretakers: caretakers,
		resets:     resets,
		mail:       mail,
		audit:      audit,
		validator:  validate,
		logger:     logger,
		config:     config,
	}
}

// Register creates a self-service account.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}
	role := req.Role
	if role == "" {
		role = models.RolePatient
	}

	user := &models.User{Email: req.Email, Name: req.Name, Role: role}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionRegister,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"email": user.Email, "role": user.Role}},
	})
	return user, nil
}

// RegisterAdmin creates an admin bound to an organization.
func (s *AuthService) RegisterAdmin(ctx context.Context, req models.RegisterAdminRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid admin registration payload")
	}
	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}

	phone := req.Phone
	orgID := req.OrganizationID
	user := &models.User{Email: req.Email, Name: req.Name, Phone: &phone, Role: role, OrganizationID: &orgID}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionRegisterAdmin,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details: map[string]interface{}{"data": map[string]interface{}{
			"email":          user.Email,
			"phone":          phone,
			"role":           user.Role,
			"organizationId": orgID,
		}},
	})
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User, password string) error {
	if err := ensureEmailAvailable(ctx, s.repo, user.Email, ""); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	if err := s.repo.Create(ctx, user); err != nil {
		return appErrors.Internal(err, "failed to create user")
	}
	return nil
}

// Login authenticates a user and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionLogin,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"email": user.Email}},
	})

	return &models.LoginResponse{
		Token:          token,
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	}, nil
}

// CaretakerLogin verifies caretaker credentials and returns the bound patient.
func (s *AuthService) CaretakerLogin(ctx context.Context, req models.LoginRequest) (*models.CaretakerLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	caretaker, err := s.caretakers.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch caretaker")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(caretaker.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	return &models.CaretakerLoginResponse{PatientID: caretaker.PatientID}, nil
}

// RequestPasswordReset issues a single-use token and mails the reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req models.PasswordResetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid password reset payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to fetch user")
	}

	token, err := generateResetToken()
	if err != nil {
		return appErrors.Internal(err, "failed to create reset token")
	}
	if err := s.resets.Save(ctx, token, user.ID, s.config.ResetTokenTTL); err != nil {
		return appErrors.Internal(err, "failed to store reset token")
	}

	msg, err := mailer.PasswordResetMessage(user.Email, s.resetLink(token))
	if err != nil {
		return appErrors.Internal(err, "failed to render reset email")
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return appErrors.Internal(err, "failed to send reset email")
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionRequestPasswordReset,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"email": user.Email}},
	})
	return nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req models.ConfirmPasswordResetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid reset password payload")
	}

	userID, err := s.resets.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, appErrors.ErrTokenExpired) {
			return appErrors.ErrTokenExpired
		}
		return appErrors.Internal(err, "failed to verify reset token")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to load user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}

	s.audit.Record(ctx, models.AuditRecord{
		Action:      models.AuditActionResetPassword,
		ActorUserID: user.ID,
		EntityKind:  models.EntityUser,
		EntityID:    user.ID,
		EntityName:  user.Name,
		Details:     map[string]interface{}{"data": map[string]interface{}{"email": user.Email}},
	})
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		Name:           user.Name,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) resetLink(token string) string {
	u, err := url.Parse(s.config.ResetLinkBase)
	if err != nil {
		return s.config.ResetLinkBase + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type emailLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ensureEmailAvailable fails with a conflict when email belongs to a user
// other than exceptID.
func ensureEmailAvailable(ctx context.Context, repo emailLookup, email, exceptID string) error {
	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != exceptID {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return appErrors.Internal(err, "failed to check email")
	}
}
