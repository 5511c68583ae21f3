package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	"github.com/Maverics-Seneca/auth-service/pkg/response"
)

type organizationService interface {
	Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
	ListAll(ctx context.Context) ([]models.OrganizationRef, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Organization, error)
	Update(ctx context.Context, id string, req models.UpdateOrganizationRequest) (*models.Organization, error)
	Delete(ctx context.Context, id string, req models.OrganizationOwnerRequest) error
}

// OrganizationHandler exposes organization endpoints.
type OrganizationHandler struct {
	service organizationService
}

// NewOrganizationHandler constructs the handler.
func NewOrganizationHandler(svc organizationService) *OrganizationHandler {
	return &OrganizationHandler{service: svc}
}

// Create godoc
// @Summary Create organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param payload body models.CreateOrganizationRequest true "Organization payload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Router /organization/create [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if !bindJSON(c, &req, "invalid organization payload") {
		return
	}

	org, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Organization created successfully", gin.H{"organizationId": org.ID})
}

// ListAll godoc
// @Summary List all organizations
// @Tags Organizations
// @Produce json
// @Success 200 {array} models.OrganizationRef
// @Router /organization/get-all [get]
func (h *OrganizationHandler) ListAll(c *gin.Context) {
	refs, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refs)
}

// ListByOwner godoc
// @Summary List organizations of an owner
// @Tags Organizations
// @Produce json
// @Param userId query string true "Owner user ID"
// @Success 200 {array} models.Organization
// @Failure 400 {object} response.ErrorBody
// @Router /organizations [get]
func (h *OrganizationHandler) ListByOwner(c *gin.Context) {
	orgs, err := h.service.ListByOwner(c.Request.Context(), c.Query("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orgs)
}

// Update godoc
// @Summary Update organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param payload body models.UpdateOrganizationRequest true "Organization payload"
// @Success 200 {object} response.MessageBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /organization/{id} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	var req models.UpdateOrganizationRequest
	if !bindJSON(c, &req, "invalid organization payload") {
		return
	}

	if _, err := h.service.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Organization updated successfully")
}

// Delete godoc
// @Summary Delete organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID"
// @Param payload body models.OrganizationOwnerRequest true "Owner"
// @Success 200 {object} response.MessageBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /organization/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	var req models.OrganizationOwnerRequest
	if !bindJSON(c, &req, "invalid organization payload") {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Organization deleted successfully")
}
