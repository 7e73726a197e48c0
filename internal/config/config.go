package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sensor data source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config defines the report run configuration.
type Config struct {
	RosterPath      string                `yaml:"roster_path"`
	Sensor          SensorConfig          `yaml:"sensor"`
	OutputRoot      string                `yaml:"output_root"`
	PurchaseRequest PurchaseRequestConfig `yaml:"purchase_request"`
	Statement       StatementConfig       `yaml:"statement"`
	MetricsTextfile string                `yaml:"metrics_textfile"`
}

// SensorConfig selects where meter readings come from.
type SensorConfig struct {
	Source      string `yaml:"source"`
	Path        string `yaml:"path"`
	Sheet       string `yaml:"sheet"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// PurchaseRequestConfig describes the purchase request workbook.
type PurchaseRequestConfig struct {
	TemplatePath       string   `yaml:"template_path"`
	FilePrefix         string   `yaml:"file_prefix"`
	Sheet              string   `yaml:"sheet"`
	TotalCreditCells   []string `yaml:"total_credit_cells"`
	TotalUsageCell     string   `yaml:"total_usage_cell"`
	RateDifferenceCell string   `yaml:"rate_difference_cell"`
	DateCell           string   `yaml:"date_cell"`
}

// StatementConfig defines participant statement text.
type StatementConfig struct {
	Organization string `yaml:"organization"`
	Title        string `yaml:"title"`
	Footer       string `yaml:"footer"`
	TemplatePath string `yaml:"template_path"`
}

// Default returns the built-in configuration rooted at the pii directory.
func Default() Config {
	return Config{
		RosterPath: filepath.Join("pii", "participant-info.csv"),
		Sensor: SensorConfig{
			Source: SourceFile,
			Table:  "meter_readings",
		},
		OutputRoot: filepath.Join("pii", "reports"),
		PurchaseRequest: PurchaseRequestConfig{
			FilePrefix:         "purchase-request-",
			TotalCreditCells:   []string{"N10", "N20", "N34"},
			TotalUsageCell:     "K20",
			RateDifferenceCell: "M20",
			DateCell:           "H37",
		},
		Statement: StatementConfig{
			Title: "Subsidy Statement",
		},
	}
}

// Load reads .env (if present), the YAML file at path (if non-empty, else
// SUBSIDY_CONFIG) and environment overrides, in that order.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("SUBSIDY_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.RosterPath = getenvDefault("SUBSIDY_ROSTER", cfg.RosterPath)
	cfg.Sensor.Path = getenvDefault("SUBSIDY_SENSOR_DATA", cfg.Sensor.Path)
	cfg.Sensor.Source = getenvDefault("SUBSIDY_SENSOR_SOURCE", cfg.Sensor.Source)
	cfg.Sensor.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Sensor.DatabaseURL))
	cfg.OutputRoot = getenvDefault("SUBSIDY_OUTPUT_ROOT", cfg.OutputRoot)
	cfg.PurchaseRequest.TemplatePath = getenvDefault("SUBSIDY_PR_TEMPLATE", cfg.PurchaseRequest.TemplatePath)
	cfg.MetricsTextfile = getenvDefault("SUBSIDY_METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.PurchaseRequest.TotalCreditCells = splitCSV(getenvDefault("SUBSIDY_PR_TOTAL_CREDIT_CELLS", strings.Join(cfg.PurchaseRequest.TotalCreditCells, ",")))

	return cfg, cfg.Validate()
}

// Validate checks that a run can be configured.
func (c Config) Validate() error {
	if c.RosterPath == "" {
		return errors.New("config: roster path required")
	}
	if c.OutputRoot == "" {
		return errors.New("config: output root required")
	}
	switch c.Sensor.Source {
	case SourceFile:
	case SourcePostgres:
		if c.Sensor.DatabaseURL == "" {
			return errors.New("config: database url required for postgres sensor source")
		}
	default:
		return fmt.Errorf("config: unknown sensor source %q", c.Sensor.Source)
	}
	return nil
}

// SensorDataPath returns the configured sensor export or the default
// per-period path pii/sensor-data/sensor-data-<key>.csv.
func (c Config) SensorDataPath(periodKey string) string {
	if c.Sensor.Path != "" {
		return c.Sensor.Path
	}
	return filepath.Join("pii", "sensor-data", "sensor-data-"+periodKey+".csv")
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
