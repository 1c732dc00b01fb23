package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/garyjia/invoice-qc/internal/models"
)

// recordsSchema rejects input that is not a sequence of record-shaped
// mappings before any extraction or validation begins. It is deliberately
// loose about fields: per-field presence is a validation concern handled by
// required_fields, not a schema concern.
const recordsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"invoice_number":     {"type": ["string", "null"]},
			"external_reference": {"type": ["string", "null"]},
			"source_file":        {"type": ["string", "null"]},
			"invoice_date":       {"type": ["string", "null"]},
			"due_date":           {"type": ["string", "null"]},
			"seller_name":        {"type": ["string", "null"]},
			"seller_address":     {"type": ["string", "null"]},
			"seller_tax_id":      {"type": ["string", "null"]},
			"buyer_name":         {"type": ["string", "null"]},
			"buyer_address":      {"type": ["string", "null"]},
			"buyer_tax_id":       {"type": ["string", "null"]},
			"currency":           {"type": ["string", "null"]},
			"net_total":          {"type": ["number", "null"]},
			"tax_amount":         {"type": ["number", "null"]},
			"gross_total":        {"type": ["number", "null"]},
			"payment_terms":      {"type": ["string", "null"]},
			"line_items": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"description": {"type": ["string", "null"]},
						"quantity":    {"type": ["number", "null"]},
						"unit_price":  {"type": ["number", "null"]},
						"line_total":  {"type": ["number", "null"]}
					}
				}
			}
		}
	}
}`

var compiledRecordsSchema = jsonschema.MustCompileString("invoice-records.json", recordsSchema)

// DecodeRecords parses raw JSON into invoice records after checking it is
// structurally a batch of record-shaped objects. The shape error is reported
// once for the whole input, never per field.
func DecodeRecords(raw []byte) ([]*models.InvoiceRecord, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("input is not valid JSON: %w", err)
	}
	if err := compiledRecordsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("input is not a sequence of invoice records: %w", err)
	}

	var records []*models.InvoiceRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode invoice records: %w", err)
	}
	return records, nil
}
