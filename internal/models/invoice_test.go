package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceRecordID(t *testing.T) {
	rec := &InvoiceRecord{
		InvoiceNumber: String("INV-2024-001"),
		SourceFile:    String("invoice.pdf"),
	}
	assert.Equal(t, "INV-2024-001", rec.ID())

	rec.InvoiceNumber = nil
	assert.Equal(t, "invoice.pdf", rec.ID())

	rec.SourceFile = nil
	assert.Equal(t, UnknownInvoiceID, rec.ID())

	// Empty strings count as absent for identity purposes.
	rec.InvoiceNumber = String("")
	rec.SourceFile = String("scan-007.pdf")
	assert.Equal(t, "scan-007.pdf", rec.ID())
}
