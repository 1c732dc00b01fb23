package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-qc/internal/models"
)

// completeRecord returns a record that passes every per-record rule.
func completeRecord() *models.InvoiceRecord {
	return &models.InvoiceRecord{
		InvoiceNumber: models.String("INV-2024-001"),
		SourceFile:    models.String("inv001.pdf"),
		InvoiceDate:   models.String("2024-02-15"),
		DueDate:       models.String("2024-03-15"),
		SellerName:    models.String("Acme Corp"),
		BuyerName:     models.String("Beta LLC"),
		Currency:      models.String("EUR"),
		NetTotal:      models.Float(5000.00),
		TaxAmount:     models.Float(950.00),
		GrossTotal:    models.Float(5950.00),
		LineItems: []models.LineItem{
			{Description: models.String("Consulting"), Quantity: models.Float(50), UnitPrice: models.Float(100), LineTotal: models.Float(5000.00)},
		},
	}
}

func TestDefaultsOrderAndSeverity(t *testing.T) {
	ruleSet := Defaults(DefaultTolerance)
	require.Len(t, ruleSet, 8)

	expected := []string{
		"required_fields",
		"date_format",
		"currency_validation",
		"due_date_logic",
		"totals_match",
		"line_items_total",
		"no_negative_amounts",
		"no_duplicates",
	}
	for i, name := range expected {
		assert.Equal(t, name, ruleSet[i].Name)
	}

	for _, r := range ruleSet {
		switch r.Name {
		case "line_items_total":
			assert.Equal(t, models.SeverityWarning, r.Severity)
		default:
			assert.Equal(t, models.SeverityError, r.Severity)
		}
		if r.Name == "no_duplicates" {
			assert.Equal(t, ScopeBatch, r.Scope)
			assert.NotNil(t, r.BatchCheck)
		} else {
			assert.Equal(t, ScopeRecord, r.Scope)
			assert.NotNil(t, r.Check)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	assert.Empty(t, checkRequiredFields(completeRecord()))

	rec := completeRecord()
	rec.BuyerName = nil
	rec.GrossTotal = nil
	findings := checkRequiredFields(rec)
	require.Len(t, findings, 2)
	assert.Equal(t, "buyer_name", findings[0].Field)
	assert.Equal(t, "gross_total", findings[1].Field)

	// Whitespace-only strings are as missing as nil.
	rec = completeRecord()
	rec.SellerName = models.String("   ")
	findings = checkRequiredFields(rec)
	require.Len(t, findings, 1)
	assert.Equal(t, "seller_name", findings[0].Field)
}

func TestDateFormat(t *testing.T) {
	tests := []struct {
		name        string
		invoiceDate *string
		dueDate     *string
		wantFields  []string
	}{
		{"valid dates", models.String("2024-02-15"), models.String("2024-03-15"), nil},
		{"absent dates skip", nil, nil, nil},
		{"garbage issue date", models.String("not-a-date"), nil, []string{"invoice_date"}},
		{"year below range", models.String("1899-12-31"), nil, []string{"invoice_date"}},
		{"year above range", nil, models.String("2101-01-01"), []string{"due_date"}},
		{"both invalid", models.String("31/12/2024"), models.String("tomorrow"), []string{"invoice_date", "due_date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &models.InvoiceRecord{InvoiceDate: tt.invoiceDate, DueDate: tt.dueDate}
			findings := checkDateFormat(rec)
			var fields []string
			for _, f := range findings {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestCurrencyValidation(t *testing.T) {
	rec := &models.InvoiceRecord{Currency: models.String("XYZ")}
	findings := checkCurrency(rec)
	require.Len(t, findings, 1)
	assert.Equal(t, "currency", findings[0].Field)

	// Absence is required_fields' concern, not this rule's.
	assert.Empty(t, checkCurrency(&models.InvoiceRecord{}))

	for _, code := range []string{"EUR", "USD", "GBP", "INR", "JPY", "CNY", "CAD", "AUD", "CHF", "SEK"} {
		assert.Empty(t, checkCurrency(&models.InvoiceRecord{Currency: models.String(code)}), code)
	}
}

func TestDueDateLogic(t *testing.T) {
	rec := &models.InvoiceRecord{
		InvoiceDate: models.String("2024-02-15"),
		DueDate:     models.String("2024-01-15"),
	}
	findings := checkDueDateLogic(rec)
	require.Len(t, findings, 1)
	assert.Equal(t, "due_date", findings[0].Field)

	// Same-day due date is allowed.
	rec.DueDate = models.String("2024-02-15")
	assert.Empty(t, checkDueDateLogic(rec))

	// Either date absent: skip.
	assert.Empty(t, checkDueDateLogic(&models.InvoiceRecord{DueDate: models.String("2024-01-15")}))

	// Unparseable dates belong to date_format, not this rule.
	rec.InvoiceDate = models.String("bogus")
	assert.Empty(t, checkDueDateLogic(rec))
}

func TestTotalsMatch(t *testing.T) {
	check := checkTotalsMatch(DefaultTolerance)

	tests := []struct {
		name    string
		gross   float64
		wantHit bool
	}{
		{"exact", 5950.00, false},
		{"within tolerance", 5950.02, false},
		{"just outside", 5950.03, true},
		{"well outside", 5950.10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &models.InvoiceRecord{
				NetTotal:   models.Float(5000.00),
				TaxAmount:  models.Float(950.00),
				GrossTotal: models.Float(tt.gross),
			}
			findings := check(rec)
			if tt.wantHit {
				require.Len(t, findings, 1)
				assert.Equal(t, "gross_total", findings[0].Field)
			} else {
				assert.Empty(t, findings)
			}
		})
	}

	// Any of the three absent: skip entirely.
	assert.Empty(t, check(&models.InvoiceRecord{
		NetTotal:   models.Float(5000.00),
		GrossTotal: models.Float(9999.99),
	}))
}

func TestLineItemsTotal(t *testing.T) {
	check := checkLineItemsTotal(DefaultTolerance)

	rec := completeRecord()
	assert.Empty(t, check(rec))

	// Sum off by exactly the tolerance still passes.
	rec.LineItems = []models.LineItem{
		{Description: models.String("A"), LineTotal: models.Float(3000.00)},
		{Description: models.String("B"), LineTotal: models.Float(2000.02)},
	}
	assert.Empty(t, check(rec))

	// Sum off by more than the tolerance.
	rec.LineItems = []models.LineItem{
		{Description: models.String("A"), LineTotal: models.Float(3000.00)},
		{Description: models.String("B"), LineTotal: models.Float(1900.00)},
	}
	findings := check(rec)
	require.Len(t, findings, 1)
	assert.Equal(t, "line_items", findings[0].Field)

	// Items whose totals failed to parse don't contribute; with no parseable
	// totals at all the rule skips.
	rec.LineItems = []models.LineItem{{Description: models.String("A")}}
	assert.Empty(t, check(rec))

	// No net total: skip regardless of items.
	rec = completeRecord()
	rec.NetTotal = nil
	assert.Empty(t, check(rec))
}

func TestNegativeAmounts(t *testing.T) {
	rec := &models.InvoiceRecord{
		NetTotal:   models.Float(-100.00),
		TaxAmount:  models.Float(19.00),
		GrossTotal: models.Float(-81.00),
	}
	findings := checkNegativeAmounts(rec)
	require.Len(t, findings, 2)
	assert.Equal(t, "net_total", findings[0].Field)
	assert.Equal(t, "gross_total", findings[1].Field)

	// Zero is not negative; absent is skipped.
	assert.Empty(t, checkNegativeAmounts(&models.InvoiceRecord{NetTotal: models.Float(0)}))
	assert.Empty(t, checkNegativeAmounts(&models.InvoiceRecord{}))
}

func TestDuplicates(t *testing.T) {
	a := completeRecord()
	b := completeRecord()
	b.SourceFile = models.String("inv001-copy.pdf")
	c := completeRecord()
	c.InvoiceNumber = models.String("INV-2024-002")

	perRecord := checkDuplicates([]*models.InvoiceRecord{a, b, c})
	require.Len(t, perRecord, 3)

	// Both members of the colliding pair are flagged, the third is not.
	assert.Len(t, perRecord[0], 1)
	assert.Len(t, perRecord[1], 1)
	assert.Empty(t, perRecord[2])

	// Order independence: reversing the batch flags the same pair.
	reversed := checkDuplicates([]*models.InvoiceRecord{c, b, a})
	assert.Empty(t, reversed[0])
	assert.Len(t, reversed[1], 1)
	assert.Len(t, reversed[2], 1)
}

func TestDuplicatesRequireFullTriple(t *testing.T) {
	a := completeRecord()
	b := completeRecord()
	b.SellerName = models.String("Other Corp")
	c := completeRecord()
	c.InvoiceDate = models.String("2024-02-16")

	perRecord := checkDuplicates([]*models.InvoiceRecord{a, b, c})
	for i := range perRecord {
		assert.Empty(t, perRecord[i])
	}

	// Records without an invoice number never collide.
	d := completeRecord()
	d.InvoiceNumber = nil
	e := completeRecord()
	e.InvoiceNumber = nil
	perRecord = checkDuplicates([]*models.InvoiceRecord{d, e})
	assert.Empty(t, perRecord[0])
	assert.Empty(t, perRecord[1])
}
