package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Label pattern candidates per field, in precedence order. The first pattern
// whose capture is non-empty after trimming wins; later candidates are never
// consulted. Keep the more specific labels first: "Grand Total" must be
// tried before the bare "Total" or the gross amount would shadow it.
var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s*(?:Number|No\.?|#)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
		regexp.MustCompile(`(?i)Bill\s*(?:Number|No\.?|#)\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
		regexp.MustCompile(`\bINV[-\s]?([0-9][0-9-]*)`),
	}

	externalRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:P\.?O\.?|Purchase\s+Order)\s*(?:Number|No\.?|#)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
		regexp.MustCompile(`(?i)Reference\s*(?:Number|No\.?|#)?\s*:?\s*([A-Z0-9][A-Z0-9-]*)`),
	}

	issueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s+Date\s*:?\s*([0-9]{4}[-/.][0-9]{2}[-/.][0-9]{2})`),
		regexp.MustCompile(`(?i)Invoice\s+Date\s*:?\s*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`),
		regexp.MustCompile(`(?i)\bDate\s*:?\s*([0-9]{4}[-/.][0-9]{2}[-/.][0-9]{2})`),
		regexp.MustCompile(`(?i)\bDate\s*:?\s*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`),
		regexp.MustCompile(`(?i)\bDate\s*:?\s*([0-9]{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+[0-9]{4})`),
	}

	dueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Due\s+Date\s*:?\s*([0-9]{4}[-/.][0-9]{2}[-/.][0-9]{2})`),
		regexp.MustCompile(`(?i)Due\s+Date\s*:?\s*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`),
		regexp.MustCompile(`(?i)Payment\s+Due\s*:?\s*([0-9]{4}[-/.][0-9]{2}[-/.][0-9]{2})`),
		regexp.MustCompile(`(?i)Payment\s+Due\s*:?\s*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`),
		regexp.MustCompile(`(?i)Due\s*(?:By)?\s*:?\s*([0-9]{4}[-/.][0-9]{2}[-/.][0-9]{2})`),
	}

	netTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Subtotal\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
		regexp.MustCompile(`(?i)Net\s+Total\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
		regexp.MustCompile(`(?i)\bNet\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
	}

	taxAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Tax|VAT|GST)\s+Amount\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
		regexp.MustCompile(`(?i)\b(?:Tax|VAT|GST)\s*(?:\([0-9.]+%\))?\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
	}

	grossTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Grand\s+Total\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
		regexp.MustCompile(`(?i)(?:Total|Amount)\s+Due\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
		regexp.MustCompile(`(?i)\bTotal\s*:?\s*[A-Z]{0,3}\s*[€$£¥￥]?\s*(-?[0-9][0-9,]*\.?[0-9]{0,2})`),
	}

	paymentTermsPattern = regexp.MustCompile(`(?i)(?:Payment\s+Terms|Terms)\s*:?\s*([^\n]+)`)

	currencyCodePattern   = regexp.MustCompile(`\b(USD|EUR|GBP|INR|JPY|CNY|CAD|AUD|CHF|SEK)\b`)
	currencySymbolPattern = regexp.MustCompile(`[€$£¥￥]`)

	taxIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:VAT|Tax|GST)\s*(?:ID|No\.?|Number)\s*:?\s*([A-Z0-9][A-Z0-9-]{4,})`),
		regexp.MustCompile(`(?i)(?:VAT|GST)\s*:?\s*([A-Z]{2}[A-Z0-9]{6,})`),
	}

	amountCleaner = strings.NewReplacer(",", "", "€", "", "$", "", "£", "", "¥", "", "￥", "", " ", "")
)

var currencySymbols = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
	"¥": "JPY",
	"￥": "JPY",
}

// Date layouts accepted by the extractor. ISO is preferred; the day-first
// layouts are tried before month-first, which is the documented tie-break
// for values like 03/04/2024 that parse under both.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2 January 2006",
	"2 Jan 2006",
}

// FieldSet holds everything the field extractor pulled out of the document
// text. Absent fields are nil, never zero values.
type FieldSet struct {
	InvoiceNumber     *string
	ExternalReference *string
	InvoiceDate       *string
	DueDate           *string
	SellerName        *string
	SellerAddress     *string
	SellerTaxID       *string
	BuyerName         *string
	BuyerAddress      *string
	BuyerTaxID        *string
	Currency          *string
	NetTotal          *float64
	TaxAmount         *float64
	GrossTotal        *float64
	PaymentTerms      *string
}

// FieldExtractor pattern-matches labeled fields out of raw invoice text.
type FieldExtractor struct {
	logger *zap.Logger
}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor(logger *zap.Logger) *FieldExtractor {
	return &FieldExtractor{logger: logger}
}

// Extract runs every field's pattern list against the text. Unmatched or
// unparseable fields stay nil; extraction never fails.
func (fe *FieldExtractor) Extract(text string) FieldSet {
	fs := FieldSet{
		InvoiceNumber:     firstMatch(invoiceNumberPatterns, text),
		ExternalReference: firstMatch(externalRefPatterns, text),
		InvoiceDate:       fe.extractDate(issueDatePatterns, text),
		DueDate:           fe.extractDate(dueDatePatterns, text),
		Currency:          extractCurrency(text),
		NetTotal:          firstAmount(netTotalPatterns, text),
		TaxAmount:         firstAmount(taxAmountPatterns, text),
		GrossTotal:        firstAmount(grossTotalPatterns, text),
		PaymentTerms:      firstMatch([]*regexp.Regexp{paymentTermsPattern}, text),
	}

	seller, buyer := extractParties(text)
	fs.SellerName, fs.SellerAddress, fs.SellerTaxID = seller.name, seller.address, seller.taxID
	fs.BuyerName, fs.BuyerAddress, fs.BuyerTaxID = buyer.name, buyer.address, buyer.taxID

	if fs.InvoiceNumber == nil {
		fe.logger.Debug("No invoice number matched any pattern")
	}
	return fs
}

// firstMatch returns the first non-empty trimmed capture across the ordered
// pattern list, or nil.
func firstMatch(patterns []*regexp.Regexp, text string) *string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			v := strings.TrimSpace(m[1])
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

// firstAmount matches like firstMatch but parses the capture as money.
// A capture that fails numeric parsing is treated as no match at all.
func firstAmount(patterns []*regexp.Regexp, text string) *float64 {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			if v := parseAmount(m[1]); v != nil {
				return v
			}
		}
	}
	return nil
}

// parseAmount strips currency symbols and thousands separators and parses
// the remainder. Returns nil on failure, never zero.
func parseAmount(s string) *float64 {
	cleaned := amountCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (fe *FieldExtractor) extractDate(patterns []*regexp.Regexp, text string) *string {
	raw := firstMatch(patterns, text)
	if raw == nil {
		return nil
	}
	if normalized, ok := normalizeDate(*raw); ok {
		return &normalized
	}
	fe.logger.Debug("Matched date does not parse under any accepted layout",
		zap.String("value", *raw))
	return nil
}

// normalizeDate parses a raw date string against the accepted layouts and
// renders it as YYYY-MM-DD.
func normalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func extractCurrency(text string) *string {
	if m := currencyCodePattern.FindStringSubmatch(text); len(m) > 1 {
		return &m[1]
	}
	if sym := currencySymbolPattern.FindString(text); sym != "" {
		if code, ok := currencySymbols[sym]; ok {
			return &code
		}
	}
	return nil
}

type partyBlock struct {
	name    *string
	address *string
	taxID   *string
}

var (
	sellerKeywords = regexp.MustCompile(`(?i)^(?:From|Seller|Vendor|Supplier)\b\s*:?\s*(.*)$`)
	buyerKeywords  = regexp.MustCompile(`(?i)^(?:To|Bill\s+To|Customer|Buyer)\b\s*:?\s*(.*)$`)
	// Labels that terminate a party block even without a blank line. Tax id
	// labels are deliberately not terminators so "VAT No: ..." lines stay
	// inside the block they belong to.
	blockTerminator = regexp.MustCompile(`(?i)^(?:Invoice|Date|Due|Description|Item|Qty|Subtotal|Total|Payment)\b`)
)

// extractParties scans the text line by line for seller and buyer sections.
// A section starts at a recognized keyword and runs until the next keyword,
// a terminator label, or a blank line. The first line is the party name, the
// rest its address block.
func extractParties(text string) (seller, buyer partyBlock) {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := sellerKeywords.FindStringSubmatch(line); m != nil && seller.name == nil {
			seller = collectParty(lines, i, m[1])
			continue
		}
		if m := buyerKeywords.FindStringSubmatch(line); m != nil && buyer.name == nil {
			buyer = collectParty(lines, i, m[1])
		}
	}
	return seller, buyer
}

func collectParty(lines []string, start int, inline string) partyBlock {
	var block []string
	if v := strings.TrimSpace(inline); v != "" {
		block = append(block, v)
	}
	for j := start + 1; j < len(lines); j++ {
		line := strings.TrimSpace(lines[j])
		if line == "" || sellerKeywords.MatchString(line) || buyerKeywords.MatchString(line) || blockTerminator.MatchString(line) {
			break
		}
		block = append(block, line)
	}

	var p partyBlock
	if len(block) == 0 {
		return p
	}
	p.name = &block[0]
	if len(block) > 1 {
		end := len(block)
		if end > 3 {
			end = 3
		}
		addr := strings.Join(block[1:end], " ")
		p.address = &addr
	}
	p.taxID = firstMatch(taxIDPatterns, strings.Join(block, "\n"))
	return p
}
