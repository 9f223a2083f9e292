package reminder

import "errors"

var (
	// ErrStoreUnavailable wraps any failure to read the overdue task set.
	// The run is aborted and no calls are placed.
	ErrStoreUnavailable = errors.New("task store unavailable")

	// ErrUserNotFound means a task's owner could not be resolved.
	ErrUserNotFound = errors.New("task owner not found")

	// ErrMissingContact means the owner has no phone number on record.
	ErrMissingContact = errors.New("task owner has no contact number")

	// ErrGatewayFailure wraps every unsuccessful outbound call.
	ErrGatewayFailure = errors.New("telephony gateway failure")

	// ErrRunInProgress is returned when a run is triggered while another
	// is still active.
	ErrRunInProgress = errors.New("reminder run already in progress")
)
