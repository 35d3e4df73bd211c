package models

import "errors"

// Sentinel errors shared by services, tools and handlers.
// Tools translate these into user-facing Korean messages; handlers map them
// to HTTP status codes.
var (
	// ErrNotFound means a referenced user/schedule/tag/timetable row does not
	// exist or is not owned by the requester.
	ErrNotFound = errors.New("not found")

	// ErrValidation means a required argument is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrOverlap means a timetable entry collides with an existing one.
	ErrOverlap = errors.New("timetable overlap")

	// ErrDuplicate means a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrImportPending means an external sync for this user is already running.
	ErrImportPending = errors.New("import already in progress")

	// ErrUnauthorized means credentials were rejected.
	ErrUnauthorized = errors.New("unauthorized")
)
