package domain

import "fmt"

// DomainError is an error the API can show to clients: Code picks the HTTP
// status, Message is the client-facing text and Err the internal cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches on code and message, so a copy carrying a cause still matches
// its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewDomainErrorWithCause(code, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: cause}
}

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

var (
	ErrInvalidChunkConfig        = NewDomainError(ErrCodeValidation, "invalid chunk configuration")
	ErrEmptyQuery                = NewDomainError(ErrCodeValidation, "query is required")
	ErrInvalidCursor             = NewDomainError(ErrCodeValidation, "invalid cursor")
	ErrInvalidEmbeddingJobStatus = NewDomainError(ErrCodeValidation, "invalid embedding job status")
	ErrMissingRequiredField      = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyChunkText            = NewDomainError(ErrCodeValidation, "chunk has no text to embed")
)

var (
	ErrPanelNotFound        = NewDomainError(ErrCodeNotFound, "panel not found")
	ErrResponseNotFound     = NewDomainError(ErrCodeNotFound, "response not found")
	ErrChunkNotFound        = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrEmbeddingJobNotFound = NewDomainError(ErrCodeNotFound, "embedding job not found")
)

// Dependencies that are missing or failing.
var (
	ErrDatabaseUnavailable   = NewDomainError(ErrCodeUnavailable, "database unavailable")
	ErrEmbeddingsUnavailable = NewDomainError(ErrCodeUnavailable, "embedding provider not configured")
	ErrStorageOperationFail  = NewDomainError(ErrCodeInternalError, "storage operation failed")
)
