package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")

	// ErrAborted marks a sync abandoned because its caller cancelled.
	// It is not a failure and must not trigger fallback or retry.
	ErrAborted = errors.New("sync aborted")

	// ErrBackendUnreachable is returned when ClickUp failed and neither a cached
	// nor a stored snapshot could stand in for it.
	ErrBackendUnreachable = errors.New("project backend unreachable")
)
