package sensorfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// Loader reads a cleaned sensor export from a CSV or XLSX file.
type Loader struct {
	path  string
	sheet string
}

// Option configures the loader.
type Option func(*Loader)

// WithSheet selects the worksheet of an XLSX export; the first sheet is the default.
func WithSheet(sheet string) Option {
	return func(l *Loader) { l.sheet = sheet }
}

// NewLoader constructs a loader for path.
func NewLoader(path string, opts ...Option) (*Loader, error) {
	if path == "" {
		return nil, errors.New("sensor loader: empty path")
	}
	l := &Loader{path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadSeries reads the whole export. Window selection is left to the caller.
func (l *Loader) LoadSeries(ctx context.Context, _, _ time.Time) (*telemetry.ReadingSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open sensor data: %w", err)
	}
	defer f.Close()

	var series *telemetry.ReadingSeries
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx", ".xlsm":
		series, err = ReadXLSX(f, l.sheet)
	default:
		series, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sensor data %s: %w", l.path, err)
	}
	return series, nil
}

// ReadCSV parses a CSV sensor export.
func ReadCSV(r io.Reader) (*telemetry.ReadingSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return ParseTable(rows)
}

// ReadXLSX parses an XLSX sensor export. Cells are read raw so that date
// cells arrive as serial numbers regardless of their display format.
func ReadXLSX(r io.Reader, sheet string) (*telemetry.ReadingSeries, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoTimestampColumn
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return ParseTable(rows)
}
