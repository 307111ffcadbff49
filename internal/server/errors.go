package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matzehuels/chitboxes/pkg/errors"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// NewBadRequestError reports malformed request data.
func NewBadRequestError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: string(errors.ErrCodeInvalidInput), Message: message}
}

// NewTooLargeError reports an upload over the configured limit.
func NewTooLargeError(limit int64) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    string(errors.ErrCodeTooLarge),
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
	}
}

// toAPIError maps a pipeline error onto an HTTP status by its code.
// Internal errors keep their detail out of the response body.
func toAPIError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	code := errors.GetCode(err)
	e := &APIError{Code: string(code), Message: errors.UserMessage(err)}
	switch {
	case errors.IsValidation(err):
		e.Status = http.StatusBadRequest
	case code == errors.ErrCodeFileNotFound, code == errors.ErrCodeNotFound:
		e.Status = http.StatusNotFound
	case code == errors.ErrCodeImageDecode:
		e.Status = http.StatusUnprocessableEntity
	case code == errors.ErrCodeTooLarge:
		e.Status = http.StatusRequestEntityTooLarge
	case code == errors.ErrCodeTimeout:
		e.Status = http.StatusGatewayTimeout
	default:
		e.Status = http.StatusInternalServerError
		e.Code = string(errors.ErrCodeInternal)
		e.Message = "internal error"
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
