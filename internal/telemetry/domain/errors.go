package telemetry

import "errors"

var (
	// ErrEmptyChannel is returned when a reading or column has no channel id.
	ErrEmptyChannel = errors.New("telemetry: empty channel id")
	// ErrInvalidTimestamp is returned when a reading timestamp is zero.
	ErrInvalidTimestamp = errors.New("telemetry: invalid timestamp")
	// ErrNegativeWatts is returned when a power sample is negative.
	ErrNegativeWatts = errors.New("telemetry: negative watts")
	// ErrNonFiniteWatts is returned when a power sample is NaN or infinite.
	ErrNonFiniteWatts = errors.New("telemetry: non-finite watts")
)
