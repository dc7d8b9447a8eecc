package models

import "errors"

var (
	// ErrValidation marks bad user input. Nothing is mutated when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a colony, reminder or rule that no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a colony name already in use.
	ErrConflict = errors.New("conflict")
	// ErrCorruptRecord marks a persisted record that cannot be interpreted.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrChannelFailure marks a notification channel that failed to deliver.
	ErrChannelFailure = errors.New("notification channel failure")
	// ErrPersistence marks a failed load or save of the document.
	ErrPersistence = errors.New("persistence failure")
)
