package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subsidy-reporter/internal/observability/metrics"
	"subsidy-reporter/internal/report"
	"subsidy-reporter/internal/subsidy/application"
)

var assumeYes bool

var runCmd = &cobra.Command{
	Use:   "run STARTDATE ENDDATE EFFECTIVERATE TARGETRATE",
	Short: "Calculate subsidies and write all report files",
	Long: `Calculates every participant's subsidy for the billing period and writes
the summary CSV, purchase request and participant statements under
<out>/<STARTDATE_ENDDATE>/. Dates are YYYYMMDD; rates are $/kWh.`,
	Example: "  subsidyreport run 20240101 20240131 0.25141 0.11",
	Args:    cobra.ExactArgs(4),
	RunE:    runReport,
}

var errAborted = errors.New("aborted by operator")

func init() {
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(runCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	period, err := parsePeriodArgs(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !assumeYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), period)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	logger := newLogger()
	m := metrics.New()
	defer func() {
		if cfg.MetricsTextfile == "" {
			return
		}
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Printf("metrics textfile write failed: %v", err)
		}
	}()

	ctx := cmd.Context()
	input, closeSource, err := loadInput(ctx, cfg, period, logger)
	if err != nil {
		m.ObserveRun(metrics.ResultError, 0, time.Now())
		return err
	}
	defer closeSource()

	emitter, err := newEmitter(cfg, logger)
	if err != nil {
		return err
	}
	service := application.NewService(emitter,
		application.WithLogger(logger),
		application.WithMetrics(m),
	)
	_, artifacts, err := service.Run(ctx, input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d files to %s\n", len(artifacts.Files), artifacts.Root)
	for _, artifact := range artifacts.Files {
		if artifact.Format == report.FormatPDF {
			continue
		}
		fmt.Fprintf(out, "  %s\n", artifact.Path)
	}
	return nil
}

// confirm prints the run preview and reads a y/n answer.
func confirm(in io.Reader, out io.Writer, period periodArgs) (bool, error) {
	w := period.Window
	fmt.Fprintf(out, "Billing cycle:  %s to %s\n", w.Start.Format(report.HumanDateLayout), w.End.Format(report.HumanDateLayout))
	fmt.Fprintf(out, "Days:           %d\n", w.Days())
	fmt.Fprintf(out, "Effective rate: $%v/kWh\n", period.Rates.Effective)
	fmt.Fprintf(out, "Target rate:    $%v/kWh\n", period.Rates.Target)
	if period.Rates.InvertsCredit() {
		fmt.Fprintln(out, "Warning: target rate exceeds effective rate; credits will be negative")
	}
	fmt.Fprint(out, "Proceed? (y/n) ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
