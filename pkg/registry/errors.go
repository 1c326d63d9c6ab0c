package registry

import "errors"

var (
	// ErrCorruptDocument is returned when the persisted document cannot be decoded.
	ErrCorruptDocument = errors.New("corrupt device document")

	errIDGeneration = errors.New("failed to generate device id")
)
