package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// noSecondaryChannel is the placeholder some roster exports use for a single-meter home.
const noSecondaryChannel = "None"

// Participant is one study household and its meter channel mapping.
type Participant struct {
	ID               string
	Name             string
	AddressLine1     string
	AddressLine2     string
	Email            string
	Phone            string
	Filename         string
	PrimaryChannel   string
	SecondaryChannel string
}

// NormalizeSecondaryChannel maps empty and "None" values to no channel.
func NormalizeSecondaryChannel(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, noSecondaryChannel) {
		return ""
	}
	return value
}

// Validate checks participant invariants.
func (p Participant) Validate() error {
	if p.ID == "" {
		return errors.New("participant: empty id")
	}
	if p.Filename == "" {
		return fmt.Errorf("participant %s: empty filename", p.ID)
	}
	if strings.ContainsAny(p.Filename, `/\`) {
		return fmt.Errorf("participant %s: filename %q contains a path separator", p.ID, p.Filename)
	}
	if p.PrimaryChannel == "" {
		return fmt.Errorf("participant %s: empty primary meter channel", p.ID)
	}
	if p.SecondaryChannel != "" && p.SecondaryChannel == p.PrimaryChannel {
		return fmt.Errorf("participant %s: secondary meter channel repeats primary %q", p.ID, p.PrimaryChannel)
	}
	return nil
}

// DualMeter reports whether the household has a secondary meter.
func (p Participant) DualMeter() bool {
	return p.SecondaryChannel != ""
}

// Channels returns the configured meter channels, primary first.
func (p Participant) Channels() []string {
	if p.DualMeter() {
		return []string{p.PrimaryChannel, p.SecondaryChannel}
	}
	return []string{p.PrimaryChannel}
}

// Roster is the ordered participant table.
type Roster []Participant

// Validate checks every participant and the uniqueness of ids and filenames.
func (r Roster) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRoster
	}
	ids := make(map[string]struct{}, len(r))
	filenames := make(map[string]struct{}, len(r))
	for _, p := range r {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := ids[p.ID]; ok {
			return fmt.Errorf("%w: id %s", ErrDuplicateParticipant, p.ID)
		}
		ids[p.ID] = struct{}{}
		if _, ok := filenames[p.Filename]; ok {
			return fmt.Errorf("%w: filename %s", ErrDuplicateParticipant, p.Filename)
		}
		filenames[p.Filename] = struct{}{}
	}
	return nil
}

// Source loads the roster.
type Source interface {
	LoadRoster(ctx context.Context) (Roster, error)
}
