package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	"github.com/Maverics-Seneca/auth-service/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	RegisterAdmin(ctx context.Context, req models.RegisterAdminRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	CaretakerLogin(ctx context.Context, req models.LoginRequest) (*models.CaretakerLoginResponse, error)
	RequestPasswordReset(ctx context.Context, req models.PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req models.ConfirmPasswordResetRequest) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// RegisterAdmin godoc
// @Summary Register admin
// @Description Create an admin account bound to an organization
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterAdminRequest true "Admin payload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /register-admin [post]
func (h *AuthHandler) RegisterAdmin(c *gin.Context) {
	var req models.RegisterAdminRequest
	if !bindJSON(c, &req, "invalid admin registration payload") {
		return
	}

	user, err := h.service.RegisterAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Admin registered successfully", gin.H{"userId": user.ID})
}

// Register godoc
// @Summary Register user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "User registered successfully", gin.H{"uid": user.ID})
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// CaretakerLogin godoc
// @Summary Authenticate caretaker
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.CaretakerLoginResponse
// @Failure 401 {object} response.ErrorBody
// @Router /caretaker-login [post]
func (h *AuthHandler) CaretakerLogin(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.service.CaretakerLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// RequestPasswordReset godoc
// @Summary Request password reset
// @Description Email a single-use reset link
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PasswordResetRequest true "Email"
// @Success 200 {object} response.MessageBody
// @Failure 404 {object} response.ErrorBody
// @Router /request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if !bindJSON(c, &req, "invalid password reset payload") {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Reset email sent successfully!")
}

// ResetPassword godoc
// @Summary Confirm password reset
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ConfirmPasswordResetRequest true "Token and new password"
// @Success 200 {object} response.MessageBody
// @Failure 400 {object} response.ErrorBody
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ConfirmPasswordResetRequest
	if !bindJSON(c, &req, "invalid reset password payload") {
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password reset successfully")
}
