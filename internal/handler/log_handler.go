package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	"github.com/Maverics-Seneca/auth-service/internal/service"
	"github.com/Maverics-Seneca/auth-service/pkg/response"
)

type logService interface {
	Query(ctx context.Context, q models.LogQuery) ([]models.LogView, error)
	Export(ctx context.Context, q models.LogQuery, format string) (*service.LogExport, error)
}

// LogHandler serves the audit trail.
type LogHandler struct {
	service logService
}

// NewLogHandler constructs the handler.
func NewLogHandler(svc logService) *LogHandler {
	return &LogHandler{service: svc}
}

// List godoc
// @Summary Read audit logs
// @Description Owners see every entry. Admins see their organization's entries minus owner-level actions.
// @Tags Logs
// @Produce json
// @Param userId query string true "Viewer user ID"
// @Param role query string true "Viewer role (owner or admin)"
// @Success 200 {array} models.LogView
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /logs [get]
func (h *LogHandler) List(c *gin.Context) {
	logs, err := h.service.Query(c.Request.Context(), viewerQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}

// Export godoc
// @Summary Export audit logs
// @Description Renders the same entries as GET /logs
// @Tags Logs
// @Produce text/csv
// @Produce application/pdf
// @Param userId query string true "Viewer user ID"
// @Param role query string true "Viewer role (owner or admin)"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /logs/export [get]
func (h *LogHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), viewerQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
