package telemetry

import (
	"context"
	"math"
	"sort"
	"time"
)

// SamplingInterval is the fixed spacing between readings of one channel.
const SamplingInterval = 30 * time.Minute

// MeterReading is one instantaneous power sample for a meter channel.
type MeterReading struct {
	At        time.Time
	ChannelID string
	Watts     float64
}

// Validate checks reading invariants.
func (r MeterReading) Validate() error {
	if r.At.IsZero() {
		return ErrInvalidTimestamp
	}
	if r.ChannelID == "" {
		return ErrEmptyChannel
	}
	if math.IsNaN(r.Watts) || math.IsInf(r.Watts, 0) {
		return ErrNonFiniteWatts
	}
	if r.Watts < 0 {
		return ErrNegativeWatts
	}
	return nil
}

// ReadingSeries is an immutable, timestamp-ordered set of readings for all channels.
// The declared channel set is kept apart from the readings so that a channel with
// no samples inside a window is still known to the series.
type ReadingSeries struct {
	channels map[string]struct{}
	readings []MeterReading
}

// NewReadingSeries builds a series from declared channels and readings.
// Channels referenced by readings are declared implicitly.
func NewReadingSeries(channels []string, readings []MeterReading) (*ReadingSeries, error) {
	declared := make(map[string]struct{}, len(channels))
	for _, channel := range channels {
		if channel == "" {
			return nil, ErrEmptyChannel
		}
		declared[channel] = struct{}{}
	}

	ordered := make([]MeterReading, 0, len(readings))
	for _, reading := range readings {
		if err := reading.Validate(); err != nil {
			return nil, err
		}
		declared[reading.ChannelID] = struct{}{}
		ordered = append(ordered, reading)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At.Before(ordered[j].At) })

	return &ReadingSeries{channels: declared, readings: ordered}, nil
}

// HasChannel reports whether the channel is declared in the series.
func (s *ReadingSeries) HasChannel(channelID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.channels[channelID]
	return ok
}

// Channels returns the declared channels in lexical order.
func (s *ReadingSeries) Channels() []string {
	if s == nil {
		return nil
	}
	result := make([]string, 0, len(s.channels))
	for channel := range s.channels {
		result = append(result, channel)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of readings.
func (s *ReadingSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.readings)
}

// Readings returns a copy of the ordered readings.
func (s *ReadingSeries) Readings() []MeterReading {
	if s == nil {
		return nil
	}
	out := make([]MeterReading, len(s.readings))
	copy(out, s.readings)
	return out
}

// SumWatts adds every watts sample of the channel in timestamp order.
// The boolean is false when the channel is not declared.
func (s *ReadingSeries) SumWatts(channelID string) (float64, bool) {
	if !s.HasChannel(channelID) {
		return 0, false
	}
	var total float64
	for _, reading := range s.readings {
		if reading.ChannelID == channelID {
			total += reading.Watts
		}
	}
	return total, true
}

// Between returns the readings with from <= At <= to. The declared channels are kept.
func (s *ReadingSeries) Between(from, to time.Time) *ReadingSeries {
	if s == nil {
		return nil
	}
	kept := make([]MeterReading, 0, len(s.readings))
	for _, reading := range s.readings {
		if reading.At.Before(from) || reading.At.After(to) {
			continue
		}
		kept = append(kept, reading)
	}
	channels := make(map[string]struct{}, len(s.channels))
	for channel := range s.channels {
		channels[channel] = struct{}{}
	}
	return &ReadingSeries{channels: channels, readings: kept}
}

// Span returns the first and last reading timestamps.
func (s *ReadingSeries) Span() (time.Time, time.Time, bool) {
	if s.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.readings[0].At, s.readings[len(s.readings)-1].At, true
}

// SeriesSource loads a reading series covering at least [from, to].
type SeriesSource interface {
	LoadSeries(ctx context.Context, from, to time.Time) (*ReadingSeries, error)
}
