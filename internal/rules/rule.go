// Package rules holds the quality-control rule set. Rules are plain data,
// not an inheritance hierarchy: each is a named record with a fixed severity,
// a scope, and a predicate, held in an ordered registry built once and passed
// explicitly into the engine. That keeps the set introspectable and every
// rule unit-testable on its own.
package rules

import "github.com/garyjia/invoice-qc/internal/models"

// Scope says whether a rule inspects one record or the whole batch.
type Scope string

const (
	ScopeRecord Scope = "record"
	ScopeBatch  Scope = "batch"
)

// DefaultTolerance is the monetary slack shared by the totals_match and
// line_items_total checks, absorbing rounding in source documents.
const DefaultTolerance = 0.02

// Rule is one named check. Exactly one of Check or BatchCheck is set,
// matching the rule's scope. A BatchCheck returns one findings slice per
// input record, aligned with the batch order, so the engine can attribute
// findings even when colliding records share an identity key.
type Rule struct {
	Name        string
	Description string
	Severity    models.Severity
	Scope       Scope

	Check      func(rec *models.InvoiceRecord) []models.Finding
	BatchCheck func(batch []*models.InvoiceRecord) [][]models.Finding
}

// Defaults returns the full rule set in its fixed evaluation order with the
// given monetary tolerance.
func Defaults(tolerance float64) []Rule {
	return []Rule{
		{
			Name:        "required_fields",
			Description: "Core invoice fields must be present and non-empty",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkRequiredFields,
		},
		{
			Name:        "date_format",
			Description: "Dates must be parseable and within reasonable range (1900-2100)",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkDateFormat,
		},
		{
			Name:        "currency_validation",
			Description: "Currency must be a recognized ISO code",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkCurrency,
		},
		{
			Name:        "due_date_logic",
			Description: "Due date must be on or after invoice date",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkDueDateLogic,
		},
		{
			Name:        "totals_match",
			Description: "Net total + tax amount should equal gross total (within tolerance)",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkTotalsMatch(tolerance),
		},
		{
			Name:        "line_items_total",
			Description: "Sum of line item totals should match net total",
			Severity:    models.SeverityWarning,
			Scope:       ScopeRecord,
			Check:       checkLineItemsTotal(tolerance),
		},
		{
			Name:        "no_negative_amounts",
			Description: "Invoice amounts should not be negative",
			Severity:    models.SeverityError,
			Scope:       ScopeRecord,
			Check:       checkNegativeAmounts,
		},
		{
			Name:        "no_duplicates",
			Description: "Invoices should not repeat the same number, seller, and date",
			Severity:    models.SeverityError,
			Scope:       ScopeBatch,
			BatchCheck:  checkDuplicates,
		},
	}
}
