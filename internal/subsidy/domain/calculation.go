package subsidy

import (
	roster "subsidy-reporter/internal/roster/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// Costs are the unrounded dollar amounts for one usage figure.
type Costs struct {
	Unsubsidized float64
	Subsidized   float64
	Credit       float64
}

// Calculate prices usage at both rates. Credit is always Unsubsidized minus
// Subsidized; nothing is rounded here.
func Calculate(usageKWh float64, rates Rates) (Costs, error) {
	if !finite(usageKWh) {
		return Costs{}, ErrNonFiniteUsage
	}
	if usageKWh < 0 {
		return Costs{}, ErrNegativeUsage
	}
	if !finite(rates.Effective) || !finite(rates.Target) {
		return Costs{}, &InputError{Field: "rates", Err: ErrNonFiniteRate}
	}
	unsubsidized := usageKWh * rates.Effective
	subsidized := usageKWh * rates.Target
	return Costs{
		Unsubsidized: unsubsidized,
		Subsidized:   subsidized,
		Credit:       unsubsidized - subsidized,
	}, nil
}

// ParticipantSubsidy is the computed result for one participant.
type ParticipantSubsidy struct {
	Participant roster.Participant
	UsageKWh    float64
	Costs
}

// Compute aggregates usage and prices it for one participant.
func Compute(series *telemetry.ReadingSeries, participant roster.Participant, rates Rates) (ParticipantSubsidy, error) {
	usage, err := Aggregate(series, participant)
	if err != nil {
		return ParticipantSubsidy{}, err
	}
	costs, err := Calculate(usage, rates)
	if err != nil {
		return ParticipantSubsidy{}, err
	}
	return ParticipantSubsidy{Participant: participant, UsageKWh: usage, Costs: costs}, nil
}

// Totals holds unrounded sums over a set of results.
type Totals struct {
	UsageKWh     float64
	Unsubsidized float64
	Subsidized   float64
	Credit       float64
}

// Sum adds results in order without intermediate rounding.
func Sum(results []ParticipantSubsidy) Totals {
	var t Totals
	for _, r := range results {
		t.UsageKWh += r.UsageKWh
		t.Unsubsidized += r.Unsubsidized
		t.Subsidized += r.Subsidized
		t.Credit += r.Credit
	}
	return t
}
