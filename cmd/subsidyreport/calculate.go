package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subsidy-reporter/internal/subsidy/application"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate STARTDATE ENDDATE EFFECTIVERATE TARGETRATE",
	Short: "Print participant subsidies without writing files",
	Args:  cobra.ExactArgs(4),
	RunE:  runCalculate,
}

func init() {
	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	period, err := parsePeriodArgs(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	input, closeSource, err := loadInput(cmd.Context(), cfg, period, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	service := application.NewService(nil, application.WithLogger(logger))
	r, err := service.Calculate(input)
	if err != nil {
		return err
	}
	printReport(cmd, r)
	return nil
}

func printReport(cmd *cobra.Command, r application.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBilling period %s (%d days), %s participants\n", r.Window.Key(), r.Window.Days(), humanize.Comma(int64(len(r.Subsidies))))
	fmt.Fprintln(out, "------------------------------------------------------------------")
	fmt.Fprintf(out, "%-10s  %-20s  %12s  %12s\n", "ID", "Name", "kWh", "Credit")
	fmt.Fprintln(out, "------------------------------------------------------------------")
	for _, row := range r.Subsidies {
		fmt.Fprintf(out, "%-10s  %-20s  %12s  %12s\n",
			row.Participant.ID, row.Participant.Name,
			humanize.FormatFloat("#,###.##", row.UsageKWh),
			dollars(row.Credit))
	}
	fmt.Fprintln(out, "------------------------------------------------------------------")
	fmt.Fprintf(out, "%-10s  %-20s  %12s  %12s\n", "Total", "",
		humanize.FormatFloat("#,###.##", r.Totals.UsageKWh),
		dollars(r.Totals.Credit))
	for _, warning := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}
}

// dollars formats an amount as $1,234.56 or -$1,234.56.
func dollars(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}
