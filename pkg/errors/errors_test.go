package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "boom", appErr.Details())
}

func TestCloneKeepsIdentity(t *testing.T) {
	cloned := Clone(ErrNotFound, "organization not found")
	assert.Equal(t, "organization not found", cloned.Message)
	assert.True(t, errors.Is(cloned, ErrNotFound))
	assert.False(t, errors.Is(cloned, ErrForbidden))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestValidationHelper(t *testing.T) {
	err := Validation(errors.New("missing role"), "invalid log query")
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "invalid log query: missing role", err.Error())
}
