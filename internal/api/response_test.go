package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_KeepsKoreanAndMarkup(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"location": "서울 <강남>"})

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"location":"서울 <강남>"}`, w.Body.String())
	assert.Contains(t, w.Body.String(), "<강남>")
}

func TestJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, http.StatusOK, []string{"P1", "P2"})

	assert.JSONEq(t, `{"data":["P1","P2"]}`, w.Body.String())
}

func TestError_DerivesCode(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusBadRequest, domain.ErrCodeValidation},
		{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{http.StatusNotFound, domain.ErrCodeNotFound},
		{http.StatusTeapot, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.status, "query is required")

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "query is required", body.Error)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"empty query", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"wrapped cursor", fmt.Errorf("decode: %w", domain.ErrInvalidCursor), http.StatusBadRequest},
		{"invalid operation", domain.NewDomainError(domain.ErrCodeInvalidOperation, "nope"), http.StatusBadRequest},
		{"response missing", domain.ErrResponseNotFound, http.StatusNotFound},
		{"conflict", domain.NewDomainError(domain.ErrCodeAlreadyExists, "exists"), http.StatusConflict},
		{"no database", domain.ErrDatabaseUnavailable, http.StatusServiceUnavailable},
		{"no embeddings", domain.ErrEmbeddingsUnavailable, http.StatusServiceUnavailable},
		{"storage", domain.ErrStorageOperationFail, http.StatusInternalServerError},
		{"unknown code", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("domain error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, fmt.Errorf("preview: %w", domain.ErrResponseNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, ErrorBody{Error: "response not found", Code: domain.ErrCodeNotFound}, decodeError(t, w))
	})

	t.Run("hides internal cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "10.0.0.1")
		assert.Equal(t, domain.ErrCodeInternalError, decodeError(t, w).Code)
	})
}
