package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	nf := NotFound("Order not found")
	wrapped := fmt.Errorf("create payment: %w", nf)

	got := From(wrapped)
	assert.Same(t, nf, got)
	assert.Equal(t, http.StatusNotFound, got.Status)

	cause := errors.New("connection refused")
	internal := From(cause)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.ErrorIs(t, internal, cause)
	assert.NotContains(t, internal.Description, "connection refused")
}

func TestWrapStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{CodeAuthentication, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeInvalidVPA, http.StatusBadRequest},
		{CodeExpiredCard, http.StatusBadRequest},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.code, "x", nil).Status)
		})
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, fmt.Errorf("wrapped: %w", Validation(CodeInvalidVPA, "VPA format invalid")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"INVALID_VPA","description":"VPA format invalid"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Write(rec, errors.New("pq: relation does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","description":"internal server error"}}`, rec.Body.String())
}
