package rules

import "errors"

var (
	// ErrInvalidMatrix is returned at publish time for structurally or
	// semantically invalid matrix definitions. The wrapped error joins every issue found.
	ErrInvalidMatrix = errors.New("invalid matrix definition")

	// ErrInvalidValue is returned when a raw value cannot be coerced to an attribute's type.
	ErrInvalidValue = errors.New("invalid attribute value")
)
