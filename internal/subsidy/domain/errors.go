package subsidy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks operator input that must be fixed before a run.
	ErrInvalidInput = errors.New("subsidy: invalid input")
	// ErrStartAfterEnd is returned when the billing window is inverted.
	ErrStartAfterEnd = errors.New("subsidy: start date after end date")
	// ErrNegativeRate is returned when a rate is below zero.
	ErrNegativeRate = errors.New("subsidy: negative rate")
	// ErrNonFiniteRate is returned when a rate is NaN or infinite.
	ErrNonFiniteRate = errors.New("subsidy: non-finite rate")
	// ErrNegativeUsage is returned when usage is below zero.
	ErrNegativeUsage = errors.New("subsidy: negative usage")
	// ErrNonFiniteUsage is returned when usage is NaN or infinite.
	ErrNonFiniteUsage = errors.New("subsidy: non-finite usage")
	// ErrNilSeries is returned when aggregation has no reading series.
	ErrNilSeries = errors.New("subsidy: nil reading series")
	// ErrChannelNotFound is matched by every *ChannelNotFoundError.
	ErrChannelNotFound = errors.New("subsidy: meter channel not found")
)

// InputError reports an invalid operator input by field.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidInput) match any input error.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// ChannelNotFoundError is returned when a participant's meter channel has no
// data in the reading series.
type ChannelNotFoundError struct {
	ParticipantID string
	Channel       string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("subsidy: participant %s: meter channel %q not found in reading series", e.ParticipantID, e.Channel)
}

// Is lets errors.Is(err, ErrChannelNotFound) match.
func (e *ChannelNotFoundError) Is(target error) bool { return target == ErrChannelNotFound }
