package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersist_WrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection reset")

	err := Persist(cause)

	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, CodeDatabase, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}

func TestPersist_KeepsAppErrors(t *testing.T) {
	original := NewNotFound("sale", "abc")

	err := Persist(original)

	assert.Same(t, original, err)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, Persist(nil))
}

func TestBusinessRuleFactories(t *testing.T) {
	err := NewExceedsOutstanding("90", "80")
	assert.Equal(t, CodeExceedsOutstanding, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "80", err.Details["outstanding"])

	assert.True(t, HasCode(NewInsufficientContext("nothing to pay"), CodeInsufficientContext))
	assert.True(t, HasCode(NewMissingField("device_id"), CodeMissingField))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}
