package roster

import "errors"

var (
	// ErrEmptyRoster is returned when the roster has no participants.
	ErrEmptyRoster = errors.New("roster: no participants")
	// ErrDuplicateParticipant is returned when an id or filename repeats.
	ErrDuplicateParticipant = errors.New("roster: duplicate participant")
	// ErrMissingColumn is returned when a required roster column is absent.
	ErrMissingColumn = errors.New("roster: missing column")
)
