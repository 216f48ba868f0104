package driven

import "errors"

var (
	// ErrNotFound is returned when a record does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrSavedLimitReached is returned when saving another college would
	// exceed the caller's tier ceiling.
	ErrSavedLimitReached = errors.New("saved college limit reached")

	// ErrCompareLimitExceeded is returned when a comparison request holds more
	// colleges than the caller's tier allows.
	ErrCompareLimitExceeded = errors.New("compare slot limit exceeded")

	// ErrForbidden is returned when the caller does not own the record.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists is returned on a unique key conflict.
	ErrAlreadyExists = errors.New("already exists")
)
