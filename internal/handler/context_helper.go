package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/middleware"
	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
	"github.com/Maverics-Seneca/auth-service/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindJSON decodes the request body and writes a 400 on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, message))
		return false
	}
	return true
}

// viewerQuery resolves who is reading logs. Verified token claims win over
// the userId and role query parameters.
func viewerQuery(c *gin.Context) models.LogQuery {
	if claims := claimsFromContext(c); claims != nil {
		return models.LogQuery{ViewerUserID: claims.UserID, ViewerRole: claims.Role}
	}
	return models.LogQuery{
		ViewerUserID: c.Query("userId"),
		ViewerRole:   models.UserRole(c.Query("role")),
	}
}
