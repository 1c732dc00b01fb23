package models

// InvoiceRecord is the normalized shape of one extracted invoice document.
// Every extractable field is optional: a nil pointer means the extractor
// found nothing, which rules must be able to distinguish from a zero or an
// empty string. Records are built once by the extraction stage (or supplied
// pre-built by a caller) and never mutated afterwards.
type InvoiceRecord struct {
	InvoiceNumber     *string `json:"invoice_number"`
	ExternalReference *string `json:"external_reference"`
	SourceFile        *string `json:"source_file"`

	InvoiceDate *string `json:"invoice_date"` // YYYY-MM-DD when normalized
	DueDate     *string `json:"due_date"`

	SellerName    *string `json:"seller_name"`
	SellerAddress *string `json:"seller_address"`
	SellerTaxID   *string `json:"seller_tax_id"`

	BuyerName    *string `json:"buyer_name"`
	BuyerAddress *string `json:"buyer_address"`
	BuyerTaxID   *string `json:"buyer_tax_id"`

	Currency     *string  `json:"currency"`
	NetTotal     *float64 `json:"net_total"`
	TaxAmount    *float64 `json:"tax_amount"`
	GrossTotal   *float64 `json:"gross_total"`
	PaymentTerms *string  `json:"payment_terms"`

	LineItems []LineItem `json:"line_items"`
}

// LineItem is one row of the invoice's item table. Numeric cells that failed
// to parse stay nil; the row itself is kept.
type LineItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	LineTotal   *float64 `json:"line_total"`
}

// UnknownInvoiceID is the identity placeholder for records where neither an
// invoice number nor a source file name could be determined.
const UnknownInvoiceID = "unknown"

// ID returns the record's identity key: invoice number, falling back to the
// source document name, falling back to UnknownInvoiceID. It is the key used
// to correlate report entries back to their input records.
func (r *InvoiceRecord) ID() string {
	if r.InvoiceNumber != nil && *r.InvoiceNumber != "" {
		return *r.InvoiceNumber
	}
	if r.SourceFile != nil && *r.SourceFile != "" {
		return *r.SourceFile
	}
	return UnknownInvoiceID
}

// String returns a pointer to a copy of s. Convenience for building records
// literal-by-literal in callers and tests.
func String(s string) *string { return &s }

// Float returns a pointer to a copy of f.
func Float(f float64) *float64 { return &f }
