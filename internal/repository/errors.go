package repository

import "errors"

var (
	// ErrBlankKey rejects get-or-create on an empty unique key. Blank reg_no
	// rows are a per-row failure, never stored.
	ErrBlankKey = errors.New("unique key must not be blank")

	// ErrConflict is surfaced when a unique-constraint race cannot be
	// resolved by re-reading the winning row.
	ErrConflict = errors.New("unresolvable unique-constraint conflict")

	// ErrInvalidTransition is returned when a caller tries to move a job out
	// of a terminal state. This is a programming-contract violation, never
	// expected in correct operation.
	ErrInvalidTransition = errors.New("invalid job state transition")
)
