package application_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"subsidy-reporter/internal/observability/metrics"
	"subsidy-reporter/internal/report"
	roster "subsidy-reporter/internal/roster/domain"
	"subsidy-reporter/internal/subsidy/application"
	subsidy "subsidy-reporter/internal/subsidy/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingEmitter struct {
	reports []application.Report
	err     error
}

func (e *recordingEmitter) Emit(ctx context.Context, r application.Report) (application.Artifacts, error) {
	if e.err != nil {
		return application.Artifacts{}, e.err
	}
	e.reports = append(e.reports, r)
	return application.Artifacts{
		Root:  "out/" + r.Window.Key(),
		Files: []application.Artifact{{Format: report.FormatCSV, Path: "out/summary.csv"}},
	}, nil
}

var generatedAt = time.Date(2024, time.February, 3, 9, 0, 0, 0, time.UTC)

func testInput(t *testing.T, participants roster.Roster) application.RunInput {
	t.Helper()
	window, err := subsidy.ParseBillingWindow("20240101", "20240102")
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	rates, err := subsidy.NewRates(0.25141, 0.11)
	if err != nil {
		t.Fatalf("rates: %v", err)
	}
	start := window.FirstSample()
	var readings []telemetry.MeterReading
	for i := 0; i < 100; i++ {
		at := start.Add(time.Duration(i) * telemetry.SamplingInterval)
		readings = append(readings,
			telemetry.MeterReading{At: at, ChannelID: "M1", Watts: 1200},
			telemetry.MeterReading{At: at, ChannelID: "M2", Watts: 300},
		)
	}
	series, err := telemetry.NewReadingSeries([]string{"M1", "M2"}, readings)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return application.RunInput{Window: window, Rates: rates, Roster: participants, Series: series}
}

func assertMetric(t *testing.T, m *metrics.Metrics, name, expected string) {
	t.Helper()
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), name); err != nil {
		t.Fatalf("metric %s: %v", name, err)
	}
}

func twoParticipants() roster.Roster {
	return roster.Roster{
		{ID: "B-2", Name: "Beta", Filename: "beta", PrimaryChannel: "M2"},
		{ID: "A-1", Name: "Alpha", Filename: "alpha", PrimaryChannel: "M1", SecondaryChannel: "M2"},
	}
}

func TestCalculate_IdempotentAndOrdered(t *testing.T) {
	svc := application.NewService(nil, application.WithClock(fixedClock{now: generatedAt}))
	input := testInput(t, twoParticipants())

	first, err := svc.Calculate(input)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	second, err := svc.Calculate(input)
	if err != nil {
		t.Fatalf("calculate again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("calculation is not repeatable:\n%+v\n%+v", first, second)
	}

	if len(first.Subsidies) != 2 || first.Subsidies[0].Participant.ID != "B-2" || first.Subsidies[1].Participant.ID != "A-1" {
		t.Fatalf("roster order not preserved: %+v", first.Subsidies)
	}
	// 96 samples fall inside a two-day window; the last four are outside.
	if got, want := first.Subsidies[0].UsageKWh, 96*300/1000.0; got != want {
		t.Fatalf("beta usage mismatch: got=%v want=%v", got, want)
	}
	if got, want := first.Subsidies[1].UsageKWh, 96*1500/1000.0; got != want {
		t.Fatalf("alpha usage mismatch: got=%v want=%v", got, want)
	}
	if first.Totals != subsidy.Sum(first.Subsidies) {
		t.Fatalf("totals mismatch: %+v", first.Totals)
	}
	if !first.GeneratedAt.Equal(generatedAt) {
		t.Fatalf("generated at mismatch: %v", first.GeneratedAt)
	}
	if len(first.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", first.Warnings)
	}
}

func TestRun_MissingChannelWritesNothing(t *testing.T) {
	root := t.TempDir()
	statements, err := report.NewStatementTemplate(report.DefaultStatementTemplate)
	if err != nil {
		t.Fatalf("statement template: %v", err)
	}
	emitter, err := report.NewFileEmitter(root, statements)
	if err != nil {
		t.Fatalf("emitter: %v", err)
	}
	m := metrics.New()
	svc := application.NewService(emitter, application.WithMetrics(m))

	participants := append(twoParticipants(), roster.Participant{ID: "C-3", Name: "Gamma", Filename: "gamma", PrimaryChannel: "M999"})
	_, _, err = svc.Run(context.Background(), testInput(t, participants))
	if !errors.Is(err, subsidy.ErrChannelNotFound) {
		t.Fatalf("expected channel not found, got %v", err)
	}
	var notFound *subsidy.ChannelNotFoundError
	if !errors.As(err, &notFound) || notFound.Channel != "M999" {
		t.Fatalf("expected M999 in error, got %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no output, found %d entries", len(entries))
	}
	assertMetric(t, m, "subsidy_runs_total", `
# HELP subsidy_runs_total Total report runs by result
# TYPE subsidy_runs_total counter
subsidy_runs_total{result="error"} 1
`)
}

func TestCalculate_InvertedRatesWarn(t *testing.T) {
	m := metrics.New()
	svc := application.NewService(nil, application.WithMetrics(m))
	input := testInput(t, twoParticipants())
	rates, err := subsidy.NewRates(0.11, 0.25141)
	if err != nil {
		t.Fatalf("rates: %v", err)
	}
	input.Rates = rates

	r, err := svc.Calculate(input)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for _, row := range r.Subsidies {
		if row.Credit >= 0 {
			t.Fatalf("expected negative credit for %s, got %v", row.Participant.ID, row.Credit)
		}
	}
	if len(r.Warnings) != 3 {
		t.Fatalf("expected rate warning plus one per participant, got %v", r.Warnings)
	}
	assertMetric(t, m, "subsidy_negative_credits_total", `
# HELP subsidy_negative_credits_total Participants whose credit came out negative
# TYPE subsidy_negative_credits_total counter
subsidy_negative_credits_total 2
`)
}

func TestCalculate_InvalidRoster(t *testing.T) {
	svc := application.NewService(nil)
	_, err := svc.Calculate(testInput(t, roster.Roster{}))
	if !errors.Is(err, subsidy.ErrInvalidInput) || !errors.Is(err, roster.ErrEmptyRoster) {
		t.Fatalf("expected invalid roster input, got %v", err)
	}

	dup := roster.Roster{
		{ID: "A-1", Filename: "a", PrimaryChannel: "M1"},
		{ID: "A-1", Filename: "b", PrimaryChannel: "M2"},
	}
	if _, err := svc.Calculate(testInput(t, dup)); !errors.Is(err, roster.ErrDuplicateParticipant) {
		t.Fatalf("expected duplicate participant, got %v", err)
	}
}

func TestRun_EmitsCalculatedReport(t *testing.T) {
	emitter := &recordingEmitter{}
	m := metrics.New()
	svc := application.NewService(emitter,
		application.WithClock(fixedClock{now: generatedAt}),
		application.WithMetrics(m),
	)
	r, artifacts, err := svc.Run(context.Background(), testInput(t, twoParticipants()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(emitter.reports) != 1 || !reflect.DeepEqual(emitter.reports[0], r) {
		t.Fatalf("emitter did not receive the calculated report")
	}
	if artifacts.Root != "out/20240101_20240102" {
		t.Fatalf("artifact root mismatch: %s", artifacts.Root)
	}
	assertMetric(t, m, "subsidy_runs_total", `
# HELP subsidy_runs_total Total report runs by result
# TYPE subsidy_runs_total counter
subsidy_runs_total{result="success"} 1
`)
	assertMetric(t, m, "subsidy_artifacts_total", `
# HELP subsidy_artifacts_total Artifacts written by format
# TYPE subsidy_artifacts_total counter
subsidy_artifacts_total{format="csv"} 1
`)
}

func TestRun_EmitFailure(t *testing.T) {
	svc := application.NewService(&recordingEmitter{err: errors.New("disk full")})
	if _, _, err := svc.Run(context.Background(), testInput(t, twoParticipants())); err == nil {
		t.Fatalf("expected emit error")
	}
}

func TestRun_NilEmitter(t *testing.T) {
	svc := application.NewService(nil)
	if _, _, err := svc.Run(context.Background(), testInput(t, twoParticipants())); err == nil {
		t.Fatalf("expected nil emitter error")
	}
}
