package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

// Envelope is the body of every 2xx response.
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is the body of every error response. Code is one of the
// domain.ErrCode constants, or PAYLOAD_TOO_LARGE.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const codePayloadTooLarge = "PAYLOAD_TOO_LARGE"

var statusForCode = map[string]int{
	domain.ErrCodeValidation:       http.StatusBadRequest,
	domain.ErrCodeInvalidOperation: http.StatusBadRequest,
	domain.ErrCodeNotFound:         http.StatusNotFound,
	domain.ErrCodeAlreadyExists:    http.StatusConflict,
	domain.ErrCodeUnavailable:      http.StatusServiceUnavailable,
	codePayloadTooLarge:            http.StatusRequestEntityTooLarge,
}

// JSON writes v with HTML escaping off so Korean text and '<' survive as-is.
// A nil v writes headers only.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Data: data})
}

// Error writes a request error. The code is derived from status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: codeForStatus(status)})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrCodeValidation
	case http.StatusRequestEntityTooLarge:
		return codePayloadTooLarge
	case http.StatusNotFound:
		return domain.ErrCodeNotFound
	}
	return ""
}

// DomainErrorToHTTP picks the status for err, looking through wrapping.
// Anything that is not a known domain error is a 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	if status, ok := statusForCode[de.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes err as an ErrorBody. Causes of non-domain errors never
// reach the client.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	var de *domain.DomainError
	if !errors.As(err, &de) {
		JSON(w, status, ErrorBody{Error: "internal server error", Code: domain.ErrCodeInternalError})
		return
	}
	JSON(w, status, ErrorBody{Error: de.Message, Code: de.Code})
}
