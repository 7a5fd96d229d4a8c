package store

import "errors"

var (
	// ErrDuplicateActiveRequest is returned by CreateMergeRequest when an
	// active request already exists for the same (email, source platform).
	ErrDuplicateActiveRequest = errors.New("active merge request already exists")

	// ErrAlreadyDecided is returned by the decision updates when the request
	// left the pending state under a concurrent decision (0 rows updated).
	ErrAlreadyDecided = errors.New("merge request already decided")

	// ErrProvisionConsumed is returned by ConsumePendingProvision when the
	// provision row was completed or expired by a concurrent caller.
	ErrProvisionConsumed = errors.New("pending provision already consumed")

	// ErrEmailConflict is returned when a Hub account with the email exists
	ErrEmailConflict = errors.New("email already registered")

	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")
)
