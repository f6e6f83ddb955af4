package conversations

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/lock"
)

// Domain errors for conversation operations.
var (
	ErrNotFound  = errors.New("conversation not found")
	ErrDuplicate = errors.New("conversation already exists")
	ErrBusy      = errors.New("conversation is being updated")

	// ErrStale reports a save whose turn was computed from a revision that
	// another writer has since replaced.
	ErrStale = fmt.Errorf("%w: saved by another request", ErrBusy)
)

// MapHTTPStatus maps conversation and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrBusy), errors.Is(err, lock.ErrNotAcquired):
		return http.StatusConflict
	}
	return workflow.MapHTTPStatus(err)
}
