package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/panelsearch/internal/api"
)

// decodeBody decodes a JSON request body into v and writes the error
// response itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
