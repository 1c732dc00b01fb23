package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
)

func sampleReport() models.ValidationReport {
	return models.ValidationReport{
		Summary: models.Summary{
			TotalInvoices:   2,
			ValidInvoices:   1,
			InvalidInvoices: 1,
			ErrorCounts:     map[string]int{"required_fields": 1},
			WarningCounts:   map[string]int{"line_items_total": 1},
		},
		Results: []models.RecordResult{
			{
				InvoiceID: "INV-1",
				IsValid:   true,
				Errors:    []models.Finding{},
				Warnings: []models.Finding{
					{
						InvoiceID: "INV-1",
						Rule:      "line_items_total",
						Severity:  models.SeverityWarning,
						Message:   "Line items sum 999.00 does not match net total 5000.00",
					},
				},
			},
			{
				InvoiceID: "INV-2",
				IsValid:   false,
				Errors: []models.Finding{
					{
						InvoiceID: "INV-2",
						Rule:      "required_fields",
						Severity:  models.SeverityError,
						Message:   "Missing required field: buyer_name",
						Field:     "buyer_name",
					},
				},
				Warnings: []models.Finding{},
			},
		},
	}
}

func TestExcelWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewExcelWriter(zap.NewNop()).Write(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Total Invoices", cell("Summary", "A1"))
	assert.Equal(t, "2", cell("Summary", "B1"))
	assert.Equal(t, "Valid Invoices", cell("Summary", "A2"))
	assert.Equal(t, "1", cell("Summary", "B2"))
	assert.Equal(t, "Rule", cell("Summary", "A5"))

	// Rule rows are sorted by name.
	assert.Equal(t, "line_items_total", cell("Summary", "A6"))
	assert.Equal(t, "0", cell("Summary", "B6"))
	assert.Equal(t, "1", cell("Summary", "C6"))
	assert.Equal(t, "required_fields", cell("Summary", "A7"))
	assert.Equal(t, "1", cell("Summary", "B7"))

	assert.Equal(t, "Invoice", cell("Findings", "A1"))
	assert.Equal(t, "INV-1", cell("Findings", "A2"))
	assert.Equal(t, "TRUE", cell("Findings", "B2"))
	assert.Equal(t, "warning", cell("Findings", "C2"))
	assert.Equal(t, "line_items_total", cell("Findings", "D2"))
	assert.Equal(t, "INV-2", cell("Findings", "A3"))
	assert.Equal(t, "FALSE", cell("Findings", "B3"))
	assert.Equal(t, "required_fields", cell("Findings", "D3"))
	assert.Equal(t, "buyer_name", cell("Findings", "E3"))
}

func TestExcelWriterEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	report := models.ValidationReport{
		Summary: models.Summary{
			ErrorCounts:   map[string]int{},
			WarningCounts: map[string]int{},
		},
		Results: []models.RecordResult{},
	}
	require.NoError(t, NewExcelWriter(zap.NewNop()).Write(report, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Findings", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice", v)
}
