package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"subsidy-reporter/internal/config"
	"subsidy-reporter/internal/report"
	"subsidy-reporter/internal/roster/infrastructure/csvfile"
	"subsidy-reporter/internal/subsidy/application"
	subsidy "subsidy-reporter/internal/subsidy/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
	"subsidy-reporter/internal/telemetry/infrastructure/postgres"
	"subsidy-reporter/internal/telemetry/infrastructure/sensorfile"
)

// loadInput reads the roster and the readings covering the billing window.
// A missing or malformed roster or sensor file is an *subsidy.InputError.
func loadInput(ctx context.Context, cfg config.Config, period periodArgs, logger *log.Logger) (application.RunInput, func(), error) {
	noop := func() {}

	rosterLoader, err := csvfile.NewLoader(cfg.RosterPath)
	if err != nil {
		return application.RunInput{}, noop, &subsidy.InputError{Field: "roster", Err: err}
	}
	participants, err := rosterLoader.LoadRoster(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return application.RunInput{}, noop, err
		}
		return application.RunInput{}, noop, &subsidy.InputError{Field: "roster", Err: err}
	}

	source, closeSource, err := openSeriesSource(cfg, period.Window.Key())
	if err != nil {
		return application.RunInput{}, noop, sensorError(cfg, err)
	}
	series, err := source.LoadSeries(ctx, period.Window.FirstSample(), period.Window.LastSample())
	if err != nil {
		closeSource()
		if ctx.Err() != nil {
			return application.RunInput{}, noop, err
		}
		return application.RunInput{}, noop, sensorError(cfg, err)
	}

	logger.Printf("inputs loaded: participants=%d readings=%d channels=%d source=%s",
		len(participants), series.Len(), len(series.Channels()), cfg.Sensor.Source)

	return application.RunInput{
		Window: period.Window,
		Rates:  period.Rates,
		Roster: participants,
		Series: series,
	}, closeSource, nil
}

// sensorError types file-source failures as input errors. Database failures
// stay plain unless the stored values themselves are invalid.
func sensorError(cfg config.Config, err error) error {
	if cfg.Sensor.Source != config.SourcePostgres || invalidReading(err) {
		return &subsidy.InputError{Field: "sensor data", Err: err}
	}
	return fmt.Errorf("loading readings: %w", err)
}

func invalidReading(err error) bool {
	return errors.Is(err, telemetry.ErrNonFiniteWatts) ||
		errors.Is(err, telemetry.ErrNegativeWatts) ||
		errors.Is(err, telemetry.ErrEmptyChannel) ||
		errors.Is(err, telemetry.ErrInvalidTimestamp)
}

func openSeriesSource(cfg config.Config, periodKey string) (telemetry.SeriesSource, func(), error) {
	switch cfg.Sensor.Source {
	case config.SourcePostgres:
		db, err := sql.Open("pgx", cfg.Sensor.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("opening database: %w", err)
		}
		closeDB := func() { _ = db.Close() }
		return postgres.NewReadingQuery(db, postgres.WithQueryTable(cfg.Sensor.Table)), closeDB, nil
	default:
		loader, err := sensorfile.NewLoader(cfg.SensorDataPath(periodKey), sensorfile.WithSheet(cfg.Sensor.Sheet))
		if err != nil {
			return nil, func() {}, err
		}
		return loader, func() {}, nil
	}
}

// newEmitter builds the file emitter from configuration.
func newEmitter(cfg config.Config, logger *log.Logger) (*report.FileEmitter, error) {
	body := report.DefaultStatementTemplate
	if cfg.Statement.TemplatePath != "" {
		data, err := os.ReadFile(cfg.Statement.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("reading statement template: %w", err)
		}
		body = string(data)
	}
	statements, err := report.NewStatementTemplate(body,
		report.WithOrganization(cfg.Statement.Organization),
		report.WithTitle(cfg.Statement.Title),
		report.WithFooter(cfg.Statement.Footer),
	)
	if err != nil {
		return nil, err
	}

	layout := report.DefaultPurchaseRequestLayout()
	pr := cfg.PurchaseRequest
	if pr.Sheet != "" {
		layout.Sheet = pr.Sheet
	}
	if len(pr.TotalCreditCells) > 0 {
		layout.TotalCreditCells = pr.TotalCreditCells
	}
	if pr.TotalUsageCell != "" {
		layout.TotalUsageCell = pr.TotalUsageCell
	}
	if pr.RateDifferenceCell != "" {
		layout.RateDifferenceCell = pr.RateDifferenceCell
	}
	if pr.DateCell != "" {
		layout.DateCell = pr.DateCell
	}

	return report.NewFileEmitter(cfg.OutputRoot, statements,
		report.WithPurchaseRequestTemplate(pr.TemplatePath),
		report.WithPurchaseRequestLayout(layout),
		report.WithPurchaseRequestPrefix(pr.FilePrefix),
		report.WithEmitterLogger(logger),
	)
}
