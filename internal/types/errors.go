package types

import "errors"

var (
	// ErrNotFound is returned when a memory id does not exist or belongs to
	// a different character/user pair.
	ErrNotFound = errors.New("memory not found")
	// ErrInvalidInput is returned for malformed caller input (empty or
	// oversized message). No state is mutated.
	ErrInvalidInput = errors.New("invalid input")
)
