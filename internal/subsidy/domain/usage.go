package subsidy

import (
	roster "subsidy-reporter/internal/roster/domain"
	telemetry "subsidy-reporter/internal/telemetry/domain"
)

// WattSamplesPerKWh converts a sum of watt samples into kWh.
//
// The sensor export reports one average-power value per 30 minute interval and
// usage has always been billed as sum(watts)/1000, treating each sample as one
// unit interval of energy. The sampling interval is not factored in; changing
// the export interval changes the meaning of this constant.
const WattSamplesPerKWh = 1000.0

// Aggregate returns the participant's usage in kWh over the series.
// Every configured channel must be declared in the series.
func Aggregate(series *telemetry.ReadingSeries, participant roster.Participant) (float64, error) {
	if series == nil {
		return 0, ErrNilSeries
	}
	var total float64
	for _, channel := range participant.Channels() {
		sum, ok := series.SumWatts(channel)
		if !ok {
			return 0, &ChannelNotFoundError{ParticipantID: participant.ID, Channel: channel}
		}
		total += sum
	}
	return total / WattSamplesPerKWh, nil
}
