package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/jung-kurt/gofpdf"

	"subsidy-reporter/internal/subsidy/application"
	subsidy "subsidy-reporter/internal/subsidy/domain"
)

// DefaultStatementTemplate is the letter body printed above the figures table.
const DefaultStatementTemplate = `{{.Name}}
{{.AddressLine1}}
{{ if .AddressLine2 }}{{.AddressLine2}}
{{ end }}{{.Email}}  {{.Phone}}

Billing period: {{.Start}} to {{.End}} ({{.Days}} days)

Thank you for taking part in the study. Your heater used {{.UsageKWh}} kWh during this billing period. Usage is billed by the utility at the effective rate of ${{.EffectiveRate}} per kWh; as a participant you pay ${{.TargetRate}} per kWh. The difference of ${{.RateDifference}} per kWh is credited to your utility account.`

// StatementData provides the fields of one statement. Amounts are already
// rounded for display.
type StatementData struct {
	Organization     string
	Title            string
	Footer           string
	Name             string
	AddressLine1     string
	AddressLine2     string
	Email            string
	Phone            string
	AccountID        string
	Start            string
	End              string
	Days             int
	EffectiveRate    string
	TargetRate       string
	RateDifference   string
	UsageKWh         string
	UnsubsidizedCost string
	SubsidizedCost   string
	Credit           string
}

// NewStatementData formats one participant result for display.
func NewStatementData(r application.Report, row subsidy.ParticipantSubsidy) StatementData {
	p := row.Participant
	return StatementData{
		Name:             p.Name,
		AddressLine1:     p.AddressLine1,
		AddressLine2:     p.AddressLine2,
		Email:            p.Email,
		Phone:            p.Phone,
		AccountID:        p.ID,
		Start:            r.Window.Start.Format(HumanDateLayout),
		End:              r.Window.End.Format(HumanDateLayout),
		Days:             r.Window.Days(),
		EffectiveRate:    formatRate(r.Rates.Effective),
		TargetRate:       formatCents(r.Rates.Target),
		RateDifference:   formatRateDifference(r.Rates.Difference()),
		UsageKWh:         formatCents(row.UsageKWh),
		UnsubsidizedCost: formatCents(row.Unsubsidized),
		SubsidizedCost:   formatCents(row.Subsidized),
		Credit:           formatCents(row.Credit),
	}
}

// StatementTemplate renders participant statements.
type StatementTemplate struct {
	tpl          *template.Template
	organization string
	title        string
	footer       string
}

// StatementOption configures the statement template.
type StatementOption func(*StatementTemplate)

// WithOrganization sets the letterhead line.
func WithOrganization(name string) StatementOption {
	return func(t *StatementTemplate) { t.organization = name }
}

// WithTitle sets the statement title.
func WithTitle(title string) StatementOption {
	return func(t *StatementTemplate) {
		if title != "" {
			t.title = title
		}
	}
}

// WithFooter sets a closing line printed below the figures.
func WithFooter(footer string) StatementOption {
	return func(t *StatementTemplate) { t.footer = footer }
}

// NewStatementTemplate parses a body template, falling back to DefaultStatementTemplate.
func NewStatementTemplate(body string, opts ...StatementOption) (*StatementTemplate, error) {
	if body == "" {
		body = DefaultStatementTemplate
	}
	parsed, err := template.New("statement").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, err
	}
	t := &StatementTemplate{tpl: parsed, title: "Subsidy Statement"}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Render applies the body template to data.
func (t *StatementTemplate) Render(data StatementData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("statement template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildStatementPDF renders one participant statement.
func (t *StatementTemplate) BuildStatementPDF(r application.Report, row subsidy.ParticipantSubsidy) ([]byte, error) {
	data := NewStatementData(r, row)
	data.Organization = t.organization
	data.Title = t.title
	data.Footer = t.footer

	body, err := t.Render(data)
	if err != nil {
		return nil, fmt.Errorf("render statement %s: %w", data.AccountID, err)
	}

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetTitle(data.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if data.Organization != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 6, tr(data.Organization))
		pdf.Ln(7)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(data.Title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Prepared: %s", r.GeneratedAt.Format(HumanDateLayout)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 5.5, tr(line), "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 7, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Account number", data.AccountID},
		{"Heater usage (kWh)", data.UsageKWh},
		{"Effective rate ($/kWh)", data.EffectiveRate},
		{"Participant rate ($/kWh)", data.TargetRate},
		{"Cost at effective rate ($)", data.UnsubsidizedCost},
		{"Cost at participant rate ($)", data.SubsidizedCost},
	}
	for _, item := range rows {
		pdf.CellFormat(110, 7, item[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, tr(item[1]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 7, "Account credit ($)", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, data.Credit, "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if data.Footer != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(0, 5, tr(data.Footer), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
