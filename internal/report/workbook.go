package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"subsidy-reporter/internal/subsidy/application"
	subsidy "subsidy-reporter/internal/subsidy/domain"
)

// PurchaseRequestLayout names the template cells filled for a purchase request.
type PurchaseRequestLayout struct {
	Sheet              string
	TotalCreditCells   []string
	TotalUsageCell     string
	RateDifferenceCell string
	DateCell           string
}

// DefaultPurchaseRequestLayout matches the purchase request form in use.
func DefaultPurchaseRequestLayout() PurchaseRequestLayout {
	return PurchaseRequestLayout{
		TotalCreditCells:   []string{"N10", "N20", "N34"},
		TotalUsageCell:     "K20",
		RateDifferenceCell: "M20",
		DateCell:           "H37",
	}
}

// BuildPurchaseRequestXLSX fills the purchase request. With a template the
// layout cells of the template are written; without one a plain summary
// workbook is created.
func BuildPurchaseRequestXLSX(r application.Report, layout PurchaseRequestLayout, template []byte) ([]byte, error) {
	totals := subsidy.Sum(r.Subsidies)

	var f *excelize.File
	if len(template) > 0 {
		opened, err := excelize.OpenReader(bytes.NewReader(template))
		if err != nil {
			return nil, fmt.Errorf("open purchase request template: %w", err)
		}
		f = opened
		if err := fillTemplate(f, r, totals, layout); err != nil {
			_ = f.Close()
			return nil, err
		}
	} else {
		f = excelize.NewFile()
		if err := fillSummary(f, r, totals); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillTemplate(f *excelize.File, r application.Report, totals subsidy.Totals, layout PurchaseRequestLayout) error {
	sheet := layout.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if sheet == "" {
		return errors.New("purchase request template: no active sheet")
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return fmt.Errorf("purchase request template: sheet %q not found", sheet)
	}

	set := func(cell string, value any) error {
		if cell == "" {
			return nil
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("purchase request cell %s: %w", cell, err)
		}
		return nil
	}
	for _, cell := range layout.TotalCreditCells {
		if err := set(cell, centsValue(totals.Credit)); err != nil {
			return err
		}
	}
	if err := set(layout.TotalUsageCell, centsValue(totals.UsageKWh)); err != nil {
		return err
	}
	if err := set(layout.RateDifferenceCell, r.Rates.Difference()); err != nil {
		return err
	}
	return set(layout.DateCell, r.GeneratedAt.Format("2006-01-02"))
}

func fillSummary(f *excelize.File, r application.Report, totals subsidy.Totals) error {
	summarySheet := "summary"
	accountsSheet := "accounts"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(accountsSheet); err != nil {
		return err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Subsidy Purchase Request")
	_ = f.SetCellValue(summarySheet, "A3", "Billing Start")
	_ = f.SetCellValue(summarySheet, "B3", r.Window.Start.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A4", "Billing End")
	_ = f.SetCellValue(summarySheet, "B4", r.Window.End.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Total Usage (kWh)")
	_ = f.SetCellValue(summarySheet, "B5", centsValue(totals.UsageKWh))
	_ = f.SetCellValue(summarySheet, "A6", "Subsidy per kWh")
	_ = f.SetCellValue(summarySheet, "B6", r.Rates.Difference())
	_ = f.SetCellValue(summarySheet, "A7", "Total Credit")
	_ = f.SetCellValue(summarySheet, "B7", centsValue(totals.Credit))
	_ = f.SetCellValue(summarySheet, "A8", "Prepared")
	_ = f.SetCellValue(summarySheet, "B8", r.GeneratedAt.Format("2006-01-02"))

	_ = f.SetCellValue(accountsSheet, "A1", "Account Number")
	_ = f.SetCellValue(accountsSheet, "B1", "Usage (kWh)")
	_ = f.SetCellValue(accountsSheet, "C1", "Account Credit")
	for i, row := range r.Subsidies {
		line := i + 2
		_ = f.SetCellValue(accountsSheet, fmt.Sprintf("A%d", line), row.Participant.ID)
		_ = f.SetCellValue(accountsSheet, fmt.Sprintf("B%d", line), centsValue(row.UsageKWh))
		_ = f.SetCellValue(accountsSheet, fmt.Sprintf("C%d", line), centsValue(row.Credit))
	}
	totalLine := len(r.Subsidies) + 2
	_ = f.SetCellValue(accountsSheet, fmt.Sprintf("A%d", totalLine), TotalRowLabel)
	_ = f.SetCellValue(accountsSheet, fmt.Sprintf("B%d", totalLine), centsValue(totals.UsageKWh))
	_ = f.SetCellValue(accountsSheet, fmt.Sprintf("C%d", totalLine), centsValue(totals.Credit))
	return nil
}
