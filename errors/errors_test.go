package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := ErrUnavailable("history store", cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPCode)
	assert.Equal(t, "[UNAVAILABLE] history store unavailable: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var appErr AppError
	assert.True(t, stdErrors.As(error(ErrQueueFull()), &appErr))
	assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPCode)
}

func TestWithDetail(t *testing.T) {
	base := ErrInvalidArgument("invalid id")
	a := base.WithDetail("id", "a")
	b := ErrPatientNotFound(12)

	assert.Equal(t, "a", a.Details["id"])
	assert.Nil(t, base.Details)
	assert.Equal(t, "12", b.Details["patient_id"])
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "EMPTY_TRANSCRIPT", ErrorCode_EMPTY_TRANSCRIPT.String())
	assert.Equal(t, "UNKNOWN", ErrorCode(42).String())
}
