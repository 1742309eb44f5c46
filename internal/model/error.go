// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// Application wide sentinel errors.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrConflict       = errors.New("resource conflict")

	// Chat pipeline taxonomy. Scope and context failures are recovered
	// inside the pipeline; inference and persistence failures end the turn.
	ErrScopeResolution    = errors.New("scope does not resolve to a stored entity")
	ErrContextBuild       = errors.New("context retrieval failed")
	ErrInference          = errors.New("inference failed")
	ErrInferenceCancelled = errors.New("inference cancelled")
	ErrSessionBusy        = errors.New("a generation is already in flight for this session")
	ErrPersistence        = errors.New("persistence failed")
)

// AppError carries a stable code and a user facing message alongside the
// wrapped cause. Handlers unwrap it for status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Err: err}
}

// APIErrorResponse is the JSON error envelope returned by the handlers.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
