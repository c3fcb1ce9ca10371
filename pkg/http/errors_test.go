package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/BradenHooton/grievance/pkg/http"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) pkghttp.ErrorResponse {
	t.Helper()
	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"bad request", pkghttp.WriteBadRequest, http.StatusBadRequest, "bad_request"},
		{"unauthorized", pkghttp.WriteUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", pkghttp.WriteForbidden, http.StatusForbidden, "forbidden"},
		{"too large", pkghttp.WriteTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
		{"too many requests", pkghttp.WriteTooManyRequests, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"service unavailable", pkghttp.WriteServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", pkghttp.WriteInternalError, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "Evidence file is too large")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			resp := decode(t, w)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, "Evidence file is too large", resp.Message)
			assert.Empty(t, resp.Field)
		})
	}
}

func TestWriteFieldError(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteFieldError(w, "category", "validation failed: category: this field is required")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, "category", resp.Field)
}

func TestErrorResponse_OmitsEmptyField(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteError(w, http.StatusConflict, "conflict", "Username already taken")

	assert.NotContains(t, w.Body.String(), "field")
}
