package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

// ErrorBody is the error contract shared by every endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// MessageBody is returned by mutating endpoints alongside optional identifiers.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON writes data as the raw response body.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Message writes a {"message": ...} body merged with optional extra fields.
func Message(c *gin.Context, status int, message string, extra ...gin.H) {
	if len(extra) == 0 {
		JSON(c, status, MessageBody{Message: message})
		return
	}
	body := gin.H{"message": message}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	JSON(c, status, body)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error converts err into the common error body. Internal causes are only
// exposed through details, never through the top-level message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details(),
	})
}

// Attachment streams a rendered file download.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
