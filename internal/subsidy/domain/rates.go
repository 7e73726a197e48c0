package subsidy

import "math"

// Rates holds the two per-kWh prices of a billing period.
type Rates struct {
	// Effective is the standard utility rate in $/kWh.
	Effective float64
	// Target is the subsidized rate charged to participants in $/kWh.
	Target float64
}

// NewRates validates and returns rates. A target above the effective rate is
// accepted; see InvertsCredit.
func NewRates(effective, target float64) (Rates, error) {
	if !finite(effective) {
		return Rates{}, &InputError{Field: "effective rate", Err: ErrNonFiniteRate}
	}
	if !finite(target) {
		return Rates{}, &InputError{Field: "target rate", Err: ErrNonFiniteRate}
	}
	if effective < 0 {
		return Rates{}, &InputError{Field: "effective rate", Err: ErrNegativeRate}
	}
	if target < 0 {
		return Rates{}, &InputError{Field: "target rate", Err: ErrNegativeRate}
	}
	return Rates{Effective: effective, Target: target}, nil
}

// Difference is the subsidy per kWh.
func (r Rates) Difference() float64 { return r.Effective - r.Target }

// InvertsCredit reports whether the target rate exceeds the effective rate,
// which turns every positive usage into a negative credit.
func (r Rates) InvertsCredit() bool { return r.Target > r.Effective }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
