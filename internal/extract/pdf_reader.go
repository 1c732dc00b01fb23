package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFReader pulls the text layer out of PDF invoices via mupdf. Scanned
// documents without a text layer yield empty text; OCR is out of scope.
type PDFReader struct {
	logger *zap.Logger
}

// NewPDFReader creates a new PDF text reader
func NewPDFReader(logger *zap.Logger) *PDFReader {
	return &PDFReader{logger: logger}
}

// ReadText returns the concatenated text of all pages. Plain .txt files are
// read directly so the same reader serves both CLI input kinds.
func (r *PDFReader) ReadText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document not found: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".txt" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()
	for page := 0; page < pageCount; page++ {
		text, err := doc.Text(page)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.String("path", path),
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	r.logger.Debug("Extracted PDF text",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", sb.Len()))
	return sb.String(), nil
}
