// Package workflow implements the classification workflow: the router state
// machine that drives a conversation from submission to a final
// classification, the clarification loop controller, the attribute
// extractor, and the evaluation pipeline (matrix → extract → evaluate → finalize).
package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations.
var (
	// ErrCapabilityUnavailable reports a capability that stayed unreachable
	// after the retry policy was exhausted.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrCapabilityRejected reports a non-retryable capability failure such
	// as invalid input or rejected credentials.
	ErrCapabilityRejected = errors.New("capability rejected request")

	// ErrMalformedOutput reports capability output that could not be parsed
	// into the expected shape.
	ErrMalformedOutput = errors.New("malformed capability output")

	ErrExtraction        = errors.New("attribute extraction failed")
	ErrMatrixUnavailable = errors.New("decision matrix unavailable")
	ErrInvalidPhase      = errors.New("conversation is not in a phase that accepts this operation")
	ErrAnswerCount       = errors.New("answer count does not match pending questions")
	ErrNotCompleted      = errors.New("conversation has not completed")
	ErrEmptyDescription  = errors.New("process description is required")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPhase), errors.Is(err, ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, ErrAnswerCount), errors.Is(err, ErrEmptyDescription):
		return http.StatusBadRequest
	case errors.Is(err, ErrCapabilityRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrCapabilityUnavailable), errors.Is(err, ErrExtraction):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
