package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"subsidy-reporter/internal/config"
	subsidy "subsidy-reporter/internal/subsidy/domain"
)

var (
	cfgFile      string
	rosterPath   string
	readingsPath string
	sourceKind   string
	outputRoot   string
)

var rootCmd = &cobra.Command{
	Use:   "subsidyreport",
	Short: "Compute participant energy subsidies for a billing period",
	Long: `subsidyreport reads the participant roster and half-hourly heater
meter readings, computes each participant's subsidy credit for a billing
period and writes the summary, purchase request and statement files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $SUBSIDY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&rosterPath, "roster", "", "participant roster CSV")
	rootCmd.PersistentFlags().StringVar(&readingsPath, "readings", "", "sensor export (csv or xlsx)")
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "", "sensor source: file or postgres")
	rootCmd.PersistentFlags().StringVar(&outputRoot, "out", "", "report output root")
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if rosterPath != "" {
		cfg.RosterPath = rosterPath
	}
	if readingsPath != "" {
		cfg.Sensor.Path = readingsPath
	}
	if sourceKind != "" {
		cfg.Sensor.Source = sourceKind
	}
	if outputRoot != "" {
		cfg.OutputRoot = outputRoot
	}
	return cfg, cfg.Validate()
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// periodArgs holds the four positional arguments shared by run and calculate.
type periodArgs struct {
	Window subsidy.BillingWindow
	Rates  subsidy.Rates
}

func parsePeriodArgs(args []string) (periodArgs, error) {
	if len(args) != 4 {
		return periodArgs{}, fmt.Errorf("expected STARTDATE ENDDATE EFFECTIVERATE TARGETRATE, got %d args", len(args))
	}
	window, err := subsidy.ParseBillingWindow(args[0], args[1])
	if err != nil {
		return periodArgs{}, err
	}
	effective, err := parseRate("effective_rate", args[2])
	if err != nil {
		return periodArgs{}, err
	}
	target, err := parseRate("target_rate", args[3])
	if err != nil {
		return periodArgs{}, err
	}
	rates, err := subsidy.NewRates(effective, target)
	if err != nil {
		return periodArgs{}, err
	}
	return periodArgs{Window: window, Rates: rates}, nil
}

func parseRate(field, value string) (float64, error) {
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &subsidy.InputError{Field: field, Err: err}
	}
	return rate, nil
}
