package extract

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractTextBuildsFullRecord(t *testing.T) {
	text := sampleInvoiceText + `
Description          Qty    Unit Price    Total
Widget A             2      2,500.00      5,000.00
`
	rec := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop()).
		ExtractText(context.Background(), "invoice_001.txt", text)

	require.NotNil(t, rec.InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *rec.InvoiceNumber)
	require.NotNil(t, rec.SourceFile)
	assert.Equal(t, "invoice_001.txt", *rec.SourceFile)
	require.NotNil(t, rec.SellerName)
	assert.Equal(t, "Acme Corp", *rec.SellerName)
	require.NotNil(t, rec.GrossTotal)
	assert.Equal(t, 5950.00, *rec.GrossTotal)
	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, "Widget A", *rec.LineItems[0].Description)
}

func TestExtractTextNoTableSerializesEmptyLineItems(t *testing.T) {
	rec := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop()).
		ExtractText(context.Background(), "invoice_002.txt", "Invoice Number: INV-2\n")

	require.NotNil(t, rec.LineItems)
	assert.Empty(t, rec.LineItems)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"line_items":[]`)
}

func TestExtractFileUnreadablePathYieldsEmptyRecord(t *testing.T) {
	e := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop())
	rec := e.ExtractFile(context.Background(), "/does/not/exist/invoice_404.txt")

	require.NotNil(t, rec)
	require.NotNil(t, rec.SourceFile)
	assert.Equal(t, "invoice_404.txt", *rec.SourceFile)
	assert.Nil(t, rec.InvoiceNumber)
	assert.Nil(t, rec.GrossTotal)
	assert.NotNil(t, rec.LineItems)
}

func TestExtractBatchKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	for name, number := range map[string]string{
		"b.txt": "INV-2",
		"a.txt": "INV-1",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("Invoice Number: "+number+"\n"), 0o644))
	}

	e := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop(), WithWorkers(2))
	paths := []string{
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "a.txt"),
		"/does/not/exist/c.txt",
	}
	records := e.ExtractBatch(context.Background(), paths)

	require.Len(t, records, 3)
	assert.Equal(t, "INV-2", *records[0].InvoiceNumber)
	assert.Equal(t, "INV-1", *records[1].InvoiceNumber)
	assert.Equal(t, "c.txt", *records[2].SourceFile)
	assert.Nil(t, records[2].InvoiceNumber)
}

func TestExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("Invoice Number: INV-Z\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Invoice Number: INV-A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignore me"), 0o644))

	e := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop())
	records, err := e.ExtractDirectory(context.Background(), dir)
	require.NoError(t, err)

	// Lexical order, unsupported extensions skipped.
	require.Len(t, records, 2)
	assert.Equal(t, "INV-A", *records[0].InvoiceNumber)
	assert.Equal(t, "INV-Z", *records[1].InvoiceNumber)
}

func TestExtractDirectoryMissing(t *testing.T) {
	e := NewExtractor(NewPDFReader(zap.NewNop()), zap.NewNop())
	_, err := e.ExtractDirectory(context.Background(), "/does/not/exist")
	assert.Error(t, err)
}
