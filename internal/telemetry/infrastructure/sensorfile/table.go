package sensorfile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// wattsSuffix is appended to every channel header by the sensor export.
const wattsSuffix = ", Watts"

// ErrNoTimestampColumn is returned when the table has no header or channels.
var ErrNoTimestampColumn = errors.New("sensor table: missing timestamp or channel columns")

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
}

// CleanHeader strips the export's unit suffix from a channel header.
func CleanHeader(header string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	return strings.TrimSpace(strings.TrimSuffix(header, wattsSuffix))
}

// ParseTimestamp accepts the text layouts seen in exports and Excel serial dates.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		return excelSerialToTime(serial), nil
	}
	return time.Time{}, fmt.Errorf("sensor table: unrecognized timestamp %q", value)
}

// excelSerialToTime converts a 1900-system serial date, rounded to the second.
func excelSerialToTime(serial float64) time.Time {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	seconds := math.Round((serial - days) * 86400)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
}

// timestampColumn finds the "Timestamp" or "datetime" column, falling back
// to the first column.
func timestampColumn(header []string) int {
	for i, h := range header {
		name := strings.ToLower(CleanHeader(h))
		if name == "timestamp" || name == "datetime" {
			return i
		}
	}
	return 0
}

// ParseTable turns a wide table (one timestamp column, one column per
// channel) into a reading series. Blank and NaN cells are skipped.
func ParseTable(rows [][]string) (*telemetry.ReadingSeries, error) {
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, ErrNoTimestampColumn
	}
	header := rows[0]
	tsCol := timestampColumn(header)
	channels := make([]string, len(header))
	declared := make([]string, 0, len(header)-1)
	for i := range header {
		if i == tsCol {
			continue
		}
		channels[i] = CleanHeader(header[i])
		if channels[i] == "" {
			return nil, fmt.Errorf("sensor table: column %d: %w", i+1, telemetry.ErrEmptyChannel)
		}
		declared = append(declared, channels[i])
	}

	var readings []telemetry.MeterReading
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if len(row) <= tsCol || strings.TrimSpace(row[tsCol]) == "" {
			continue
		}
		at, err := ParseTimestamp(row[tsCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
		for c := 0; c < len(header) && c < len(row); c++ {
			if c == tsCol {
				continue
			}
			cell := strings.TrimSpace(row[c])
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			watts, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, channel %s: invalid watts %q", r+1, channels[c], cell)
			}
			readings = append(readings, telemetry.MeterReading{At: at, ChannelID: channels[c], Watts: watts})
		}
	}

	series, err := telemetry.NewReadingSeries(declared, readings)
	if err != nil {
		return nil, fmt.Errorf("sensor table: %w", err)
	}
	return series, nil
}
