package results

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("review result not found")
	ErrDuplicate     = errors.New("review result already exists")
	ErrInvalidRecord = errors.New("invalid review result")
)

// MapHTTPStatus maps result errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
