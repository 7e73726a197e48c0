package report

import (
	"bytes"
	"encoding/csv"

	"subsidy-reporter/internal/subsidy/application"
	subsidy "subsidy-reporter/internal/subsidy/domain"
)

// TotalRowLabel labels the final row of the purchase-request summary.
const TotalRowLabel = "Total"

// BuildSubsidyCSV renders the per-participant table: roster fields followed by
// the computed figures at full precision.
func BuildSubsidyCSV(r application.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{
		"id",
		"name",
		"address_1",
		"address_2",
		"email",
		"phone",
		"filename",
		"meter_label_1",
		"meter_label_2",
		"usage_kwh",
		"unsubsidized_cost",
		"subsidized_cost",
		"credit",
	}); err != nil {
		return nil, err
	}

	for _, row := range r.Subsidies {
		p := row.Participant
		if err := writer.Write([]string{
			p.ID,
			p.Name,
			p.AddressLine1,
			p.AddressLine2,
			p.Email,
			p.Phone,
			p.Filename,
			p.PrimaryChannel,
			p.SecondaryChannel,
			formatFloat(row.UsageKWh),
			formatFloat(row.Unsubsidized),
			formatFloat(row.Subsidized),
			formatFloat(row.Credit),
		}); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPurchaseRequestCSV renders account number to credit, rounded to cents,
// with a Total row computed from the unrounded credits.
func BuildPurchaseRequestCSV(r application.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Account Number", "Account Credit"}); err != nil {
		return nil, err
	}
	for _, row := range r.Subsidies {
		if err := writer.Write([]string{row.Participant.ID, formatCents(row.Credit)}); err != nil {
			return nil, err
		}
	}
	if err := writer.Write([]string{TotalRowLabel, formatCents(subsidy.Sum(r.Subsidies).Credit)}); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
