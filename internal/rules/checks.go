package rules

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garyjia/invoice-qc/internal/models"
)

// Checks fill only Message and Field on their findings; the engine stamps
// the owning rule's name, severity, and record identity. Every check except
// required_fields skips silently when its inputs are absent, since absence
// is required_fields' job alone.

var validCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "INR": true, "JPY": true,
	"CNY": true, "CAD": true, "AUD": true, "CHF": true, "SEK": true,
}

func checkRequiredFields(rec *models.InvoiceRecord) []models.Finding {
	var findings []models.Finding

	missing := func(field string) {
		findings = append(findings, models.Finding{
			Message: fmt.Sprintf("Required field '%s' is missing or empty", field),
			Field:   field,
		})
	}

	requireString := func(field string, v *string) {
		if v == nil || strings.TrimSpace(*v) == "" {
			missing(field)
		}
	}

	requireString("invoice_number", rec.InvoiceNumber)
	requireString("invoice_date", rec.InvoiceDate)
	requireString("seller_name", rec.SellerName)
	requireString("buyer_name", rec.BuyerName)
	requireString("currency", rec.Currency)
	if rec.GrossTotal == nil {
		missing("gross_total")
	}
	return findings
}

func checkDateFormat(rec *models.InvoiceRecord) []models.Finding {
	var findings []models.Finding
	for _, d := range []struct {
		field string
		value *string
	}{
		{"invoice_date", rec.InvoiceDate},
		{"due_date", rec.DueDate},
	} {
		if d.value == nil {
			continue
		}
		if _, ok := parseISODate(*d.value); !ok {
			findings = append(findings, models.Finding{
				Message: fmt.Sprintf("Invalid %s format: %s", d.field, *d.value),
				Field:   d.field,
			})
		}
	}
	return findings
}

func checkCurrency(rec *models.InvoiceRecord) []models.Finding {
	if rec.Currency == nil || validCurrencies[*rec.Currency] {
		return nil
	}
	return []models.Finding{{
		Message: fmt.Sprintf("Unknown currency code: %s", *rec.Currency),
		Field:   "currency",
	}}
}

func checkDueDateLogic(rec *models.InvoiceRecord) []models.Finding {
	if rec.InvoiceDate == nil || rec.DueDate == nil {
		return nil
	}
	issue, ok1 := parseISODate(*rec.InvoiceDate)
	due, ok2 := parseISODate(*rec.DueDate)
	if !ok1 || !ok2 {
		// Unparseable dates are date_format's finding, not this rule's.
		return nil
	}
	if due.Before(issue) {
		return []models.Finding{{
			Message: fmt.Sprintf("Due date (%s) is before invoice date (%s)", *rec.DueDate, *rec.InvoiceDate),
			Field:   "due_date",
		}}
	}
	return nil
}

// withinTolerance compares a monetary difference against the tolerance with
// a small epsilon, so sums like 5000.00 + 950.00 - 5950.02 that land a few
// ulps above the boundary still count as exactly on it.
func withinTolerance(diff, tolerance float64) bool {
	return diff <= tolerance+1e-9
}

func checkTotalsMatch(tolerance float64) func(*models.InvoiceRecord) []models.Finding {
	return func(rec *models.InvoiceRecord) []models.Finding {
		if rec.NetTotal == nil || rec.TaxAmount == nil || rec.GrossTotal == nil {
			return nil
		}
		calculated := *rec.NetTotal + *rec.TaxAmount
		diff := math.Abs(calculated - *rec.GrossTotal)
		if withinTolerance(diff, tolerance) {
			return nil
		}
		return []models.Finding{{
			Message: fmt.Sprintf("Totals mismatch: %.2f + %.2f = %.2f, but gross_total is %.2f (diff: %.2f)",
				*rec.NetTotal, *rec.TaxAmount, calculated, *rec.GrossTotal, diff),
			Field: "gross_total",
		}}
	}
}

func checkLineItemsTotal(tolerance float64) func(*models.InvoiceRecord) []models.Finding {
	return func(rec *models.InvoiceRecord) []models.Finding {
		if rec.NetTotal == nil {
			return nil
		}
		sum := 0.0
		have := false
		for _, item := range rec.LineItems {
			if item.LineTotal != nil {
				sum += *item.LineTotal
				have = true
			}
		}
		if !have {
			return nil
		}
		diff := math.Abs(sum - *rec.NetTotal)
		if withinTolerance(diff, tolerance) {
			return nil
		}
		return []models.Finding{{
			Message: fmt.Sprintf("Line items sum (%.2f) doesn't match net_total (%.2f), diff: %.2f",
				sum, *rec.NetTotal, diff),
			Field: "line_items",
		}}
	}
}

func checkNegativeAmounts(rec *models.InvoiceRecord) []models.Finding {
	var findings []models.Finding
	for _, a := range []struct {
		field string
		value *float64
	}{
		{"net_total", rec.NetTotal},
		{"tax_amount", rec.TaxAmount},
		{"gross_total", rec.GrossTotal},
	} {
		if a.value != nil && *a.value < 0 {
			findings = append(findings, models.Finding{
				Message: fmt.Sprintf("Field '%s' has negative value: %.2f", a.field, *a.value),
				Field:   a.field,
			})
		}
	}
	return findings
}

// checkDuplicates is a pure grouping pass over the full batch keyed on the
// (invoice number, seller name, issue date) triple. Every record in a
// colliding group is flagged, not just the later occurrences. Records with
// no invoice number never collide; their absence is required_fields' domain.
func checkDuplicates(batch []*models.InvoiceRecord) [][]models.Finding {
	groups := make(map[string][]int)
	for i, rec := range batch {
		if rec.InvoiceNumber == nil || *rec.InvoiceNumber == "" {
			continue
		}
		key := duplicateKey(rec)
		groups[key] = append(groups[key], i)
	}

	findings := make([][]models.Finding, len(batch))
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			rec := batch[i]
			findings[i] = append(findings[i], models.Finding{
				Message: fmt.Sprintf("Duplicate invoice detected: %d records share invoice_number %s from %s",
					len(members), *rec.InvoiceNumber, deref(rec.SellerName)),
				Field: "invoice_number",
			})
		}
	}
	return findings
}

func duplicateKey(rec *models.InvoiceRecord) string {
	return deref(rec.InvoiceNumber) + "\x00" + deref(rec.SellerName) + "\x00" + deref(rec.InvoiceDate)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseISODate accepts a normalized YYYY-MM-DD date with a calendar year in
// [1900, 2100].
func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < 1900 || t.Year() > 2100 {
		return time.Time{}, false
	}
	return t, true
}
