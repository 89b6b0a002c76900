package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", ValidationError("bad schedule").Build(), http.StatusBadRequest},
		{"auth", AuthError("not owner").Build(), http.StatusForbidden},
		{"not found", NotFoundError("venue not found").Build(), http.StatusNotFound},
		{"persistence", PersistenceError("save failed").Build(), http.StatusServiceUnavailable},
		{"delivery", DeliveryError("publish failed").Build(), http.StatusBadGateway},
		{"unclassified", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	err := ValidationError("invalid schedule").
		WithContext("field", "days[1]").
		Build()

	req := httptest.NewRequest(http.MethodPut, "/venues/v-1/schedule", nil)
	w := httptest.NewRecorder()
	adapter.WriteErrorResponse(w, req, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HTTPErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "invalid schedule", resp.Error)
	assert.Equal(t, string(CategoryValidation), resp.Code)
	assert.Equal(t, "days[1]", resp.Details["field"])
	assert.False(t, resp.Retryable)
}
