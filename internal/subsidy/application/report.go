package application

import (
	"context"
	"time"

	subsidy "subsidy-reporter/internal/subsidy/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// Report is everything an emitter needs to render one billing period.
type Report struct {
	Window      subsidy.BillingWindow
	Rates       subsidy.Rates
	Subsidies   []subsidy.ParticipantSubsidy
	Totals      subsidy.Totals
	Warnings    []string
	GeneratedAt time.Time
	// Readings is the window-selected series the subsidies were computed from.
	Readings *telemetry.ReadingSeries
}

// Artifact is one file produced by an emitter.
type Artifact struct {
	Format string
	Path   string
}

// Artifacts lists what an emitter produced.
type Artifacts struct {
	Root  string
	Files []Artifact
}

// ReportEmitter renders a report into output artifacts.
type ReportEmitter interface {
	Emit(ctx context.Context, report Report) (Artifacts, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
