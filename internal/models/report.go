package models

// Severity classifies a finding. Errors make a record invalid; warnings are
// informational only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one rule violation instance. Findings are immutable once
// produced by the rule engine.
type Finding struct {
	InvoiceID string   `json:"-"`
	Rule      string   `json:"rule"`
	Severity  Severity `json:"-"`
	Message   string   `json:"message"`
	Field     string   `json:"field,omitempty"`
}

// RecordResult is the validation outcome for a single invoice record.
type RecordResult struct {
	InvoiceID string    `json:"invoice_id"`
	IsValid   bool      `json:"is_valid"`
	Errors    []Finding `json:"errors"`
	Warnings  []Finding `json:"warnings"`
}

// Summary aggregates a batch: counts of valid/invalid records and per-rule
// occurrence counts split by severity.
type Summary struct {
	TotalInvoices   int            `json:"total_invoices"`
	ValidInvoices   int            `json:"valid_invoices"`
	InvalidInvoices int            `json:"invalid_invoices"`
	ErrorCounts     map[string]int `json:"error_counts"`
	WarningCounts   map[string]int `json:"warning_counts"`
}

// ValidationReport is the full batch result. Results keep the input record
// order; they are never re-sorted by validity or severity.
type ValidationReport struct {
	Summary Summary        `json:"summary"`
	Results []RecordResult `json:"results"`
}
