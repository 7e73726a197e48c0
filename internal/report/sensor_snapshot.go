package report

import (
	"bytes"
	"encoding/csv"
	"time"

	telemetry "subsidy-reporter/internal/telemetry/domain"
)

const snapshotTimeLayout = "2006-01-02 15:04:05"

// BuildSensorSnapshotCSV renders the readings used for a run as a wide table:
// a datetime column, then one column per declared channel. Missing samples
// are left blank.
func BuildSensorSnapshotCSV(series *telemetry.ReadingSeries) ([]byte, error) {
	channels := series.Channels()
	column := make(map[string]int, len(channels))
	for i, channel := range channels {
		column[channel] = i + 1
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(append([]string{"datetime"}, channels...)); err != nil {
		return nil, err
	}

	var row []string
	var at time.Time
	flush := func() error {
		if row == nil {
			return nil
		}
		return writer.Write(row)
	}
	for _, reading := range series.Readings() {
		if row == nil || !reading.At.Equal(at) {
			if err := flush(); err != nil {
				return nil, err
			}
			at = reading.At
			row = make([]string, len(channels)+1)
			row[0] = at.UTC().Format(snapshotTimeLayout)
		}
		row[column[reading.ChannelID]] = formatFloat(reading.Watts)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
