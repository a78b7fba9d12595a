package dto

import (
	"errors"
	"net/http"

	"github.com/procura/backoffice/internal/domain/shared"
)

// API error codes
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeConsistency  = "CONSISTENCY"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// MapDomainError converts a domain error to an HTTP status and API error code
func MapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, shared.ErrConsistency):
		// A missing counterpart row is a data defect, not a caller mistake
		return http.StatusInternalServerError, ErrCodeConsistency
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
