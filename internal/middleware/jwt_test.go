package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			c.String(http.StatusOK, value.(*models.JWTClaims).UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	router.GET("/", handlers...)
	return router
}

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := newRouter(JWT(stubValidator{}))

	recorder := serve(router, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	router := newRouter(JWT(stubValidator{}))

	recorder := serve(router, "Bearer bad")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTStoresClaims(t *testing.T) {
	router := newRouter(JWT(stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleOwner}}))

	recorder := serve(router, "bearer good")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if recorder.Body.String() != "u1" {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestOptionalJWTPassesThrough(t *testing.T) {
	router := newRouter(OptionalJWT(stubValidator{claims: &models.JWTClaims{UserID: "u1"}}))

	if body := serve(router, "").Body.String(); body != "anonymous" {
		t.Fatalf("expected anonymous without header, got %s", body)
	}
	if body := serve(router, "Bearer bad").Body.String(); body != "anonymous" {
		t.Fatalf("expected anonymous with invalid token, got %s", body)
	}
	if body := serve(router, "Bearer good").Body.String(); body != "u1" {
		t.Fatalf("expected claims with valid token, got %s", body)
	}
}

func TestRequireRoles(t *testing.T) {
	owner := stubValidator{claims: &models.JWTClaims{UserID: "o1", Role: models.RoleOwner}}
	admin := stubValidator{claims: &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}}

	if code := serve(newRouter(JWT(owner), RequireRoles(models.RoleOwner)), "Bearer good").Code; code != http.StatusOK {
		t.Fatalf("owner should pass, got %d", code)
	}
	if code := serve(newRouter(JWT(admin), RequireRoles(models.RoleOwner)), "Bearer good").Code; code != http.StatusForbidden {
		t.Fatalf("admin should be forbidden, got %d", code)
	}
	if code := serve(newRouter(RequireRoles(models.RoleOwner)), "").Code; code != http.StatusUnauthorized {
		t.Fatalf("missing claims should be unauthorized, got %d", code)
	}
}
