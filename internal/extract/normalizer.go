package extract

import "github.com/garyjia/invoice-qc/internal/models"

// Normalize merges field and table extraction output into one InvoiceRecord,
// carrying forward the source document identity. This is a structural
// assembly step only; no validation logic lives here.
func Normalize(sourceFile string, fields FieldSet, items []models.LineItem) *models.InvoiceRecord {
	// A record with no table still serializes line_items as [], not null.
	if items == nil {
		items = []models.LineItem{}
	}
	rec := &models.InvoiceRecord{
		InvoiceNumber:     fields.InvoiceNumber,
		ExternalReference: fields.ExternalReference,
		InvoiceDate:       fields.InvoiceDate,
		DueDate:           fields.DueDate,
		SellerName:        fields.SellerName,
		SellerAddress:     fields.SellerAddress,
		SellerTaxID:       fields.SellerTaxID,
		BuyerName:         fields.BuyerName,
		BuyerAddress:      fields.BuyerAddress,
		BuyerTaxID:        fields.BuyerTaxID,
		Currency:          fields.Currency,
		NetTotal:          fields.NetTotal,
		TaxAmount:         fields.TaxAmount,
		GrossTotal:        fields.GrossTotal,
		PaymentTerms:      fields.PaymentTerms,
		LineItems:         items,
	}
	if sourceFile != "" {
		rec.SourceFile = &sourceFile
	}
	return rec
}
