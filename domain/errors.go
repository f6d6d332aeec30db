package domain

import "errors"

// Sentinel errors shared across the service and infrastructure layers.
// Anything happening inside the detached analysis task is resolved into a
// terminal MatchResult and never crosses the task boundary; these errors
// surface only on the synchronous paths.
var (
	// ErrNotFound is returned when a record is missing or does not belong
	// to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrUpload marks a failed blob-store write during intake. Any blob
	// already written has been rolled back by the time it is returned.
	ErrUpload = errors.New("file upload failed")

	// ErrRecordPersist marks a failed match-record write after both
	// uploads succeeded. Both blobs have been deleted.
	ErrRecordPersist = errors.New("match record persist failed")

	// ErrScoringUnavailable marks a transport-level scoring failure
	// (connection error, timeout, non-2xx status).
	ErrScoringUnavailable = errors.New("scoring service unavailable")

	// ErrScoringMalformed marks a structurally invalid scoring response.
	ErrScoringMalformed = errors.New("scoring response malformed")
)

// ValidationError rejects bad input before any side effect.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
