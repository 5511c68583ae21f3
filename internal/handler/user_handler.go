package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	"github.com/Maverics-Seneca/auth-service/pkg/response"
)

type userService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	ListAdmins(ctx context.Context, organizationID string) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.UserSummary, error)
	UpdateAdmin(ctx context.Context, id string, req models.UpdateAdminRequest) (*models.User, error)
	DeleteAdmin(ctx context.Context, id string) error
	CreatePatient(ctx context.Context, req models.CreatePatientRequest) (*models.User, error)
	UpdatePatient(ctx context.Context, id string, req models.UpdatePatientRequest) (*models.User, error)
	DeletePatient(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error)
}

// UserHandler handles admin, patient and profile endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param organizationId query string false "Organization filter"
// @Param role query string false "Role filter"
// @Success 200 {array} models.User
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		OrganizationID: c.Query("organizationId"),
		Role:           models.UserRole(c.Query("role")),
	}
	users, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// Get godoc
// @Summary Get user profile
// @Tags Users
// @Produce json
// @Param userId query string true "User ID"
// @Success 200 {object} models.UserSummary
// @Failure 404 {object} response.ErrorBody
// @Router /user [get]
func (h *UserHandler) Get(c *gin.Context) {
	summary, err := h.service.GetUser(c.Request.Context(), c.Query("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// ListAdmins godoc
// @Summary List admins
// @Tags Admins
// @Produce json
// @Param organizationId query string false "Organization filter"
// @Success 200 {array} models.User
// @Router /get-all-admins [get]
func (h *UserHandler) ListAdmins(c *gin.Context) {
	admins, err := h.service.ListAdmins(c.Request.Context(), c.Query("organizationId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins)
}

// UpdateAdmin godoc
// @Summary Update admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body models.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} response.MessageBody
// @Failure 404 {object} response.ErrorBody
// @Router /update-admin/{id} [post]
func (h *UserHandler) UpdateAdmin(c *gin.Context) {
	var req models.UpdateAdminRequest
	if !bindJSON(c, &req, "invalid admin payload") {
		return
	}
	if _, err := h.service.UpdateAdmin(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Admin updated successfully")
}

// DeleteAdmin godoc
// @Summary Delete admin
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.MessageBody
// @Failure 404 {object} response.ErrorBody
// @Router /delete-admin/{id} [delete]
func (h *UserHandler) DeleteAdmin(c *gin.Context) {
	if err := h.service.DeleteAdmin(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Admin deleted successfully")
}

// CreatePatient godoc
// @Summary Create patient
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.CreatePatientRequest true "Patient payload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /users [post]
func (h *UserHandler) CreatePatient(c *gin.Context) {
	var req models.CreatePatientRequest
	if !bindJSON(c, &req, "invalid patient payload") {
		return
	}
	user, err := h.service.CreatePatient(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Patient created successfully", gin.H{"id": user.ID})
}

// UpdatePatient godoc
// @Summary Update patient
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param payload body models.UpdatePatientRequest true "Patient payload"
// @Success 200 {object} response.MessageBody
// @Failure 403 {object} response.ErrorBody
// @Router /users/{id} [post]
func (h *UserHandler) UpdatePatient(c *gin.Context) {
	var req models.UpdatePatientRequest
	if !bindJSON(c, &req, "invalid patient payload") {
		return
	}
	if _, err := h.service.UpdatePatient(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Patient updated")
}

// DeletePatient godoc
// @Summary Delete patient
// @Tags Users
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.MessageBody
// @Failure 403 {object} response.ErrorBody
// @Router /users/{id} [delete]
func (h *UserHandler) DeletePatient(c *gin.Context) {
	if err := h.service.DeletePatient(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Patient deleted")
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Changing the password requires currentPassword
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.MessageBody
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /update [post]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	if _, err := h.service.UpdateProfile(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User updated successfully")
}
