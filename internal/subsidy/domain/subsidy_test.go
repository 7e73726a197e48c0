package subsidy

import (
	"errors"
	"math"
	"testing"
	"time"

	roster "subsidy-reporter/internal/roster/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

func halfHourly(channel string, from time.Time, count int, watts float64) []telemetry.MeterReading {
	readings := make([]telemetry.MeterReading, 0, count)
	for i := 0; i < count; i++ {
		readings = append(readings, telemetry.MeterReading{
			At:        from.Add(time.Duration(i) * telemetry.SamplingInterval),
			ChannelID: channel,
			Watts:     watts,
		})
	}
	return readings
}

func mustSeries(t *testing.T, channels []string, readings ...[]telemetry.MeterReading) *telemetry.ReadingSeries {
	t.Helper()
	var all []telemetry.MeterReading
	for _, r := range readings {
		all = append(all, r...)
	}
	series, err := telemetry.NewReadingSeries(channels, all)
	if err != nil {
		t.Fatalf("new series: %v", err)
	}
	return series
}

var day1 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestAggregate_UnitConversion(t *testing.T) {
	series := mustSeries(t, nil, halfHourly("M1", day1, 48, 1500))
	usage, err := Aggregate(series, roster.Participant{ID: "1", PrimaryChannel: "M1"})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if want := 48 * 1500 / 1000.0; usage != want {
		t.Fatalf("usage mismatch: got=%v want=%v", usage, want)
	}
}

func TestAggregate_DualMeterAdditivity(t *testing.T) {
	series := mustSeries(t, nil,
		halfHourly("M1", day1, 10, 250),
		halfHourly("M2", day1, 6, 750),
	)
	primary, err := Aggregate(series, roster.Participant{ID: "a", PrimaryChannel: "M1"})
	if err != nil {
		t.Fatalf("aggregate primary: %v", err)
	}
	secondary, err := Aggregate(series, roster.Participant{ID: "b", PrimaryChannel: "M2"})
	if err != nil {
		t.Fatalf("aggregate secondary: %v", err)
	}
	combined, err := Aggregate(series, roster.Participant{ID: "c", PrimaryChannel: "M1", SecondaryChannel: "M2"})
	if err != nil {
		t.Fatalf("aggregate combined: %v", err)
	}
	if primary+secondary != combined {
		t.Fatalf("additivity broken: %v + %v != %v", primary, secondary, combined)
	}
}

func TestAggregate_MissingChannel(t *testing.T) {
	series := mustSeries(t, []string{"M1", "M2"})
	_, err := Aggregate(series, roster.Participant{ID: "p-9", PrimaryChannel: "M999"})
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("expected channel not found, got %v", err)
	}
	var notFound *ChannelNotFoundError
	if !errors.As(err, &notFound) || notFound.Channel != "M999" || notFound.ParticipantID != "p-9" {
		t.Fatalf("expected detail for p-9/M999, got %v", err)
	}
}

func TestAggregate_MissingSecondaryChannel(t *testing.T) {
	series := mustSeries(t, nil, halfHourly("M1", day1, 2, 100))
	_, err := Aggregate(series, roster.Participant{ID: "p", PrimaryChannel: "M1", SecondaryChannel: "M7"})
	var notFound *ChannelNotFoundError
	if !errors.As(err, &notFound) || notFound.Channel != "M7" {
		t.Fatalf("expected missing secondary M7, got %v", err)
	}
}

func TestAggregate_DeclaredChannelWithoutReadingsIsZero(t *testing.T) {
	series := mustSeries(t, []string{"M1"})
	usage, err := Aggregate(series, roster.Participant{ID: "p", PrimaryChannel: "M1"})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if usage != 0 {
		t.Fatalf("expected zero usage, got %v", usage)
	}
}

func TestCalculate_Formulas(t *testing.T) {
	rates, err := NewRates(0.25141, 0.10)
	if err != nil {
		t.Fatalf("new rates: %v", err)
	}
	usage := 100.0
	costs, err := Calculate(usage, rates)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if costs.Unsubsidized != usage*rates.Effective {
		t.Fatalf("unsubsidized mismatch: %v", costs.Unsubsidized)
	}
	if costs.Subsidized != usage*rates.Target {
		t.Fatalf("subsidized mismatch: %v", costs.Subsidized)
	}
	if costs.Credit != costs.Unsubsidized-costs.Subsidized {
		t.Fatalf("credit must equal unsubsidized - subsidized, got %v", costs.Credit)
	}
	if math.Abs(costs.Credit-usage*rates.Difference()) > 1e-9 {
		t.Fatalf("credit drifted from usage * difference: %v", costs.Credit)
	}
}

func TestCalculate_CreditMonotonicInRateDifference(t *testing.T) {
	const usage = 321.5
	prev := math.Inf(-1)
	for _, effective := range []float64{0.10, 0.12, 0.15, 0.2, 0.25141, 0.3} {
		costs, err := Calculate(usage, Rates{Effective: effective, Target: 0.10})
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}
		if costs.Credit < prev {
			t.Fatalf("credit decreased at effective=%v: %v < %v", effective, costs.Credit, prev)
		}
		prev = costs.Credit
	}
}

func TestCalculate_NegativeUsage(t *testing.T) {
	if _, err := Calculate(-1, Rates{Effective: 1}); !errors.Is(err, ErrNegativeUsage) {
		t.Fatalf("expected negative usage error, got %v", err)
	}
}

func TestRates_InvertedIsAcceptedButFlagged(t *testing.T) {
	rates, err := NewRates(0.10, 0.25)
	if err != nil {
		t.Fatalf("new rates: %v", err)
	}
	if !rates.InvertsCredit() {
		t.Fatalf("expected inverted rates to be flagged")
	}
	costs, _ := Calculate(10, rates)
	if costs.Credit >= 0 {
		t.Fatalf("expected negative credit, got %v", costs.Credit)
	}
	if _, err := NewRates(-0.1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative rate, got %v", err)
	}
}

func TestBillingWindow_Boundary(t *testing.T) {
	window, err := ParseBillingWindow("20240101", "20240102")
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}
	end := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	var readings []telemetry.MeterReading
	for ts := day1; !ts.After(end); ts = ts.Add(telemetry.SamplingInterval) {
		readings = append(readings, telemetry.MeterReading{At: ts, ChannelID: "M1", Watts: 1})
	}
	series := mustSeries(t, nil, readings)

	selected := window.Select(series)
	first, last, ok := selected.Span()
	if !ok {
		t.Fatalf("expected readings in window")
	}
	if !first.Equal(day1) {
		t.Fatalf("first sample mismatch: %v", first)
	}
	if want := time.Date(2024, time.January, 2, 23, 30, 0, 0, time.UTC); !last.Equal(want) {
		t.Fatalf("last sample mismatch: got=%v want=%v", last, want)
	}
	if window.Contains(end) {
		t.Fatalf("expected %v to be excluded", end)
	}
	if selected.Len() != 96 {
		t.Fatalf("expected 96 half-hour samples, got %d", selected.Len())
	}
	if window.Days() != 2 || window.Key() != "20240101_20240102" {
		t.Fatalf("window days/key mismatch: %d %s", window.Days(), window.Key())
	}
}

func TestBillingWindow_StartAfterEnd(t *testing.T) {
	_, err := ParseBillingWindow("20240105", "20240101")
	if !errors.Is(err, ErrStartAfterEnd) || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected start-after-end input error, got %v", err)
	}
	if _, err := ParseBillingWindow("2024-01-05", "20240101"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected malformed date to be an input error, got %v", err)
	}
}

func TestSum_Unrounded(t *testing.T) {
	results := []ParticipantSubsidy{
		{UsageKWh: 1, Costs: Costs{Credit: 0.004}},
		{UsageKWh: 2, Costs: Costs{Credit: 0.004}},
	}
	totals := Sum(results)
	if totals.UsageKWh != 3 || totals.Credit != 0.008 {
		t.Fatalf("totals mismatch: %+v", totals)
	}
}

func TestRates_RejectNonFinite(t *testing.T) {
	for _, rate := range []float64{math.NaN(), math.Inf(1)} {
		if _, err := NewRates(0.25, rate); !errors.Is(err, ErrInvalidInput) || !errors.Is(err, ErrNonFiniteRate) {
			t.Fatalf("target %v: expected non-finite rate input error, got %v", rate, err)
		}
		if _, err := NewRates(rate, 0.11); !errors.Is(err, ErrNonFiniteRate) {
			t.Fatalf("effective %v: expected non-finite rate error, got %v", rate, err)
		}
	}
}

func TestCalculate_RejectsNonFinite(t *testing.T) {
	if _, err := Calculate(math.Inf(1), Rates{Effective: 0.25, Target: 0.11}); !errors.Is(err, ErrNonFiniteUsage) {
		t.Fatalf("expected non-finite usage error, got %v", err)
	}
	if _, err := Calculate(10, Rates{Effective: math.NaN(), Target: 0.11}); !errors.Is(err, ErrNonFiniteRate) {
		t.Fatalf("expected non-finite rate error, got %v", err)
	}
}
