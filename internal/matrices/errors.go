package matrices

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pathfinder/internal/rules"
)

// Domain errors for matrix operations.
var (
	ErrNotFound        = errors.New("matrix not found")
	ErrDuplicate       = errors.New("matrix version already exists")
	ErrInvalidVersion  = errors.New("invalid matrix version")
	ErrInvalidBaseline = errors.New("invalid baseline classification")
	ErrArchive         = errors.New("matrix snapshot could not be archived")
)

// MapHTTPStatus maps matrix domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, rules.ErrInvalidMatrix):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidVersion), errors.Is(err, ErrInvalidBaseline):
		return http.StatusBadRequest
	case errors.Is(err, ErrArchive):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
