// Package extract turns raw invoice documents into normalized records.
// Extraction is best-effort and non-fatal: an unmatched pattern or a
// malformed value leaves the field absent, never fails the document.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/invoice-qc/internal/models"
)

// DocumentReader acquires raw text for a document path.
type DocumentReader interface {
	ReadText(path string) (string, error)
}

// Extractor runs the full extraction pipeline: document text acquisition,
// field and table extraction, and record normalization.
type Extractor struct {
	reader   DocumentReader
	fields   *FieldExtractor
	table    *TableExtractor
	fallback *AIFallback // nil unless AI-assisted extraction is configured
	workers  int
	logger   *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAIFallback enables AI-assisted re-extraction for documents where no
// invoice number could be pattern-matched.
func WithAIFallback(fb *AIFallback) Option {
	return func(e *Extractor) { e.fallback = fb }
}

// WithWorkers bounds batch extraction parallelism.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewExtractor creates a new extraction pipeline
func NewExtractor(reader DocumentReader, logger *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		reader:  reader,
		fields:  NewFieldExtractor(logger),
		table:   NewTableExtractor(logger),
		workers: 4,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText extracts a record from already-acquired document text.
func (e *Extractor) ExtractText(ctx context.Context, sourceFile, text string) *models.InvoiceRecord {
	fields := e.fields.Extract(text)
	items := e.table.Extract(text)
	rec := Normalize(sourceFile, fields, items)

	if rec.InvoiceNumber == nil && e.fallback != nil {
		merged, err := e.fallback.Extract(ctx, text, rec)
		if err != nil {
			e.logger.Warn("AI fallback extraction failed, keeping pattern result",
				zap.String("source_file", sourceFile),
				zap.Error(err))
			return rec
		}
		return merged
	}
	return rec
}

// ExtractFile extracts a record from one document. A file that cannot be
// read still yields a record carrying only its source identity, so the
// batch never loses a slot.
func (e *Extractor) ExtractFile(ctx context.Context, path string) *models.InvoiceRecord {
	name := filepath.Base(path)
	text, err := e.reader.ReadText(path)
	if err != nil {
		e.logger.Error("Failed to read document, emitting empty record",
			zap.String("path", path),
			zap.Error(err))
		return &models.InvoiceRecord{SourceFile: &name, LineItems: []models.LineItem{}}
	}
	return e.ExtractText(ctx, name, text)
}

// ExtractBatch extracts all given documents in parallel. Each worker writes
// to its own output slot; the result keeps the input order.
func (e *Extractor) ExtractBatch(ctx context.Context, paths []string) []*models.InvoiceRecord {
	records := make([]*models.InvoiceRecord, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, path := range paths {
		g.Go(func() error {
			records[i] = e.ExtractFile(gctx, path)
			return nil
		})
	}
	// Workers never return errors; per-document failures become empty records.
	_ = g.Wait()

	e.logger.Info("Batch extraction completed",
		zap.Int("documents", len(paths)))
	return records
}

// ExtractDirectory extracts every .pdf and .txt document in a directory, in
// lexical filename order.
func (e *Extractor) ExtractDirectory(ctx context.Context, dir string) ([]*models.InvoiceRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	e.logger.Info("Found documents to extract",
		zap.String("dir", dir),
		zap.Int("count", len(paths)))
	return e.ExtractBatch(ctx, paths), nil
}
