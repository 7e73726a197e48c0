package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"subsidy-reporter/internal/observability/metrics"
	roster "subsidy-reporter/internal/roster/domain"
	subsidy "subsidy-reporter/internal/subsidy/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// RunInput holds the inputs of one billing period.
type RunInput struct {
	Window subsidy.BillingWindow
	Rates  subsidy.Rates
	Roster roster.Roster
	Series *telemetry.ReadingSeries
}

// Service computes participant subsidies and hands them to an emitter.
type Service struct {
	emitter ReportEmitter
	clock   Clock
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the clock used for the report timestamp.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets run metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the service. The emitter may be nil for
// calculate-only use; Run then fails.
func NewService(emitter ReportEmitter, opts ...Option) *Service {
	s := &Service{
		emitter: emitter,
		clock:   SystemClock{},
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate computes one ParticipantSubsidy per participant in roster order.
// Any failure aborts the whole calculation; no partial report is returned.
func (s *Service) Calculate(input RunInput) (Report, error) {
	if input.Series == nil {
		return Report{}, subsidy.ErrNilSeries
	}
	if err := input.Roster.Validate(); err != nil {
		return Report{}, &subsidy.InputError{Field: "roster", Err: err}
	}

	series := input.Window.Select(input.Series)
	s.metrics.SetInputs(len(input.Roster), series.Len())

	results := make([]subsidy.ParticipantSubsidy, 0, len(input.Roster))
	for _, participant := range input.Roster {
		result, err := subsidy.Compute(series, participant, input.Rates)
		if err != nil {
			return Report{}, fmt.Errorf("participant %s (%s): %w", participant.ID, participant.Name, err)
		}
		results = append(results, result)
	}

	var warnings []string
	if input.Rates.InvertsCredit() {
		warning := fmt.Sprintf("target rate %v exceeds effective rate %v; credits will be negative", input.Rates.Target, input.Rates.Effective)
		s.logger.Printf("subsidy warning: %s", warning)
		warnings = append(warnings, warning)
	}
	for _, result := range results {
		if result.Credit >= 0 {
			continue
		}
		warning := fmt.Sprintf("participant %s has negative credit %v", result.Participant.ID, result.Credit)
		s.logger.Printf("subsidy warning: %s", warning)
		s.metrics.IncNegativeCredit()
		warnings = append(warnings, warning)
	}

	totals := subsidy.Sum(results)
	s.metrics.SetTotals(totals.UsageKWh, totals.Credit)

	return Report{
		Window:      input.Window,
		Rates:       input.Rates,
		Subsidies:   results,
		Totals:      totals,
		Warnings:    warnings,
		GeneratedAt: s.clock.Now(),
		Readings:    series,
	}, nil
}

// Run calculates the report and emits it. Nothing is emitted when the
// calculation fails.
func (s *Service) Run(ctx context.Context, input RunInput) (Report, Artifacts, error) {
	if s.emitter == nil {
		return Report{}, Artifacts{}, errors.New("subsidy service: nil report emitter")
	}
	start := s.clock.Now()

	report, err := s.Calculate(input)
	if err != nil {
		s.observe(metrics.ResultError, start)
		return Report{}, Artifacts{}, err
	}
	s.logger.Printf("subsidy calculated: window=%s participants=%d usage_kwh=%.3f credit=%.4f",
		report.Window.Key(), len(report.Subsidies), report.Totals.UsageKWh, report.Totals.Credit)

	artifacts, err := s.emitter.Emit(ctx, report)
	if err != nil {
		s.observe(metrics.ResultError, start)
		return report, Artifacts{}, fmt.Errorf("emit report: %w", err)
	}
	for _, artifact := range artifacts.Files {
		s.metrics.IncArtifact(artifact.Format)
	}
	s.observe(metrics.ResultSuccess, start)
	s.logger.Printf("subsidy run complete: artifacts=%d root=%s duration=%s",
		len(artifacts.Files), artifacts.Root, s.clock.Now().Sub(start))
	return report, artifacts, nil
}

func (s *Service) observe(result string, start time.Time) {
	now := s.clock.Now()
	s.metrics.ObserveRun(result, now.Sub(start), now)
}
