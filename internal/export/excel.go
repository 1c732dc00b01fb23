// Package export renders validation reports into spreadsheet form for
// accountants who review QC results outside the service.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
)

// ExcelWriter writes validation reports as Excel workbooks with a summary
// sheet and a per-finding detail sheet.
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders the report to outputPath.
func (w *ExcelWriter) Write(report models.ValidationReport, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const findingsSheet = "Findings"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return fmt.Errorf("failed to create findings sheet: %w", err)
	}

	if err := w.fillSummary(f, summarySheet, report); err != nil {
		return err
	}
	if err := w.fillFindings(f, findingsSheet, report); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Validation report exported",
		zap.String("path", outputPath),
		zap.Int("total_invoices", report.Summary.TotalInvoices))
	return nil
}

func (w *ExcelWriter) fillSummary(f *excelize.File, sheet string, report models.ValidationReport) error {
	rows := [][]interface{}{
		{"Total Invoices", report.Summary.TotalInvoices},
		{"Valid Invoices", report.Summary.ValidInvoices},
		{"Invalid Invoices", report.Summary.InvalidInvoices},
		{},
		{"Rule", "Errors", "Warnings"},
	}
	for _, rule := range sortedRuleNames(report.Summary) {
		rows = append(rows, []interface{}{
			rule,
			report.Summary.ErrorCounts[rule],
			report.Summary.WarningCounts[rule],
		})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func (w *ExcelWriter) fillFindings(f *excelize.File, sheet string, report models.ValidationReport) error {
	header := []interface{}{"Invoice", "Valid", "Severity", "Rule", "Field", "Message"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowIdx := 2
	writeRow := func(result models.RecordResult, finding models.Finding) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := []interface{}{
			result.InvoiceID,
			result.IsValid,
			string(finding.Severity),
			finding.Rule,
			finding.Field,
			finding.Message,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write finding row: %w", err)
		}
		rowIdx++
		return nil
	}

	for _, result := range report.Results {
		for _, finding := range result.Errors {
			if err := writeRow(result, finding); err != nil {
				return err
			}
		}
		for _, finding := range result.Warnings {
			if err := writeRow(result, finding); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedRuleNames(summary models.Summary) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range summary.ErrorCounts {
		add(name)
	}
	for name := range summary.WarningCounts {
		add(name)
	}
	sort.Strings(names)
	return names
}
