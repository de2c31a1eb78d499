package handler

import (
	"net/http"

	"github.com/mcoot/leaguetracker/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest   = apierr.CodeInvalidRequest
	CodePlayerNotFound   = apierr.CodePlayerNotFound
	CodeSnapshotNotFound = apierr.CodeSnapshotNotFound
	CodeUpstreamError    = apierr.CodeUpstreamError
	CodeMethodNotAllowed = apierr.CodeMethodNotAllowed
	CodeInternalError    = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUpstreamError creates an upstream error
func NewUpstreamError() error {
	return apierr.NewUpstreamError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
