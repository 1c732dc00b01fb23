package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
)

// TableExtractor heuristically locates the line-item table inside raw
// invoice text and parses its rows. It never drops a row for a cell that
// fails numeric parsing; whether an incomplete line item is acceptable is
// the rule engine's call, not the extractor's.
type TableExtractor struct {
	logger *zap.Logger
}

// NewTableExtractor creates a new table extractor
func NewTableExtractor(logger *zap.Logger) *TableExtractor {
	return &TableExtractor{logger: logger}
}

// Column roles recognized in a table header.
const (
	colDescription = "description"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colLineTotal   = "line_total"
	colIgnored     = ""
)

var columnSplitter = regexp.MustCompile(`\s{2,}|\t+`)

// Labels that end the table body. A totals block directly under the table
// must not be parsed as line items.
var tableFooter = regexp.MustCompile(`(?i)^(?:Subtotal|Net\s+Total|Net|Total|Grand\s+Total|Amount\s+Due|Tax|VAT|GST|Payment|Notes?)\b`)

// Extract finds one candidate table whose header names at least two of the
// known columns and parses its rows into line items. No table, or a table
// with no parseable rows, yields an empty slice; that is a valid outcome.
func (te *TableExtractor) Extract(text string) []models.LineItem {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		roles := headerRoles(line)
		if countRoles(roles) < 2 {
			continue
		}
		items := te.parseRows(lines[i+1:], roles)
		if len(items) > 0 {
			te.logger.Debug("Parsed line-item table",
				zap.Int("header_line", i),
				zap.Int("items", len(items)))
			return items
		}
	}
	return nil
}

// ExtractRows parses pre-split tabular rows (header first) into line items,
// for callers that already have a table structure rather than raw text.
func (te *TableExtractor) ExtractRows(rows [][]string) []models.LineItem {
	if len(rows) < 2 {
		return nil
	}
	roles := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		roles[i] = columnRole(cell)
	}
	if countRoles(roles) < 2 {
		return nil
	}

	var items []models.LineItem
	for _, row := range rows[1:] {
		if item, ok := parseCells(row, roles); ok {
			items = append(items, item)
		}
	}
	return items
}

func (te *TableExtractor) parseRows(lines []string, roles []string) []models.LineItem {
	var items []models.LineItem
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || tableFooter.MatchString(trimmed) {
			break
		}
		cells := columnSplitter.Split(trimmed, -1)
		if item, ok := parseCells(cells, roles); ok {
			items = append(items, item)
		}
	}
	return items
}

// parseCells maps row cells onto header roles by position. A numeric cell
// that fails to parse leaves that field absent rather than dropping the row.
func parseCells(cells []string, roles []string) (models.LineItem, bool) {
	var item models.LineItem
	any := false
	for idx, cell := range cells {
		if idx >= len(roles) {
			break
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		switch roles[idx] {
		case colDescription:
			item.Description = &cell
			any = true
		case colQuantity:
			item.Quantity = parseAmount(cell)
			any = true
		case colUnitPrice:
			item.UnitPrice = parseAmount(cell)
			any = true
		case colLineTotal:
			item.LineTotal = parseAmount(cell)
			any = true
		}
	}
	// A row that populated nothing is noise, not a line item.
	return item, any && item.Description != nil
}

func headerRoles(line string) []string {
	cells := columnSplitter.Split(strings.TrimSpace(line), -1)
	roles := make([]string, len(cells))
	for i, cell := range cells {
		roles[i] = columnRole(cell)
	}
	return roles
}

// columnRole classifies a header cell. "Unit Price" must be checked before
// the bare "price"/"amount" fallbacks so it does not land on line_total.
func columnRole(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case h == "":
		return colIgnored
	case strings.Contains(h, "description") || strings.Contains(h, "item") || strings.Contains(h, "product"):
		return colDescription
	case strings.Contains(h, "qty") || strings.Contains(h, "quantity"):
		return colQuantity
	case strings.Contains(h, "unit") || strings.Contains(h, "rate") || strings.Contains(h, "price"):
		return colUnitPrice
	case strings.Contains(h, "total") || strings.Contains(h, "amount"):
		return colLineTotal
	default:
		return colIgnored
	}
}

func countRoles(roles []string) int {
	seen := make(map[string]bool)
	for _, r := range roles {
		if r != colIgnored {
			seen[r] = true
		}
	}
	return len(seen)
}
