package services

import "errors"

// Sentinel errors returned by the hierarchy, commission and query services.
// Callers match them with errors.Is and map them to HTTP status codes at the
// controller layer.
var (
	// ErrNotFound means the referenced member, project or record does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSponsor means the requested sponsor does not exist or is
	// not active. The caller must not retry without changing input.
	ErrInvalidSponsor = errors.New("invalid sponsor")

	// ErrCycleDetected means a structural mutation would make a member its
	// own ancestor.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrForbidden means the viewer asked for data outside their subtree
	// boundary. Logged as a possible misuse attempt.
	ErrForbidden = errors.New("forbidden")

	// ErrInconsistentWrite means a multi-record batch could not be
	// committed atomically. No partial state was persisted; the caller may
	// retry the whole operation.
	ErrInconsistentWrite = errors.New("inconsistent write")

	// ErrInvalidAmount means a commission base amount was zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")
)
