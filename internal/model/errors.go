package model

import "errors"

// Sentinel errors surfaced by the scheduling engine. Callers test them with
// errors.Is; operations wrap them with the offending ids.
var (
	// ErrNotFound is returned when a task or resource id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a resource name is already taken.
	ErrDuplicateName = errors.New("duplicate resource name")

	// ErrInvalidBounds is returned when coordinates, durations, sizes or
	// capacities would leave the project window.
	ErrInvalidBounds = errors.New("invalid bounds")

	// ErrSelfLink is returned when a task is linked to itself.
	ErrSelfLink = errors.New("task cannot depend on itself")

	// ErrCycleDetected is returned when a precedence graph that must be
	// acyclic contains a cycle.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrDocumentMalformed is returned when a project document cannot be
	// loaded.
	ErrDocumentMalformed = errors.New("malformed project document")

	// ErrUserAborted is returned when the user declined a destructive step
	// and the whole operation was rolled back.
	ErrUserAborted = errors.New("aborted by user")

	// ErrInvalidTag is returned for tags outside [A-Za-z0-9_-]+.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrInvalidColor is returned for color names outside the palette.
	ErrInvalidColor = errors.New("unknown color")
)
