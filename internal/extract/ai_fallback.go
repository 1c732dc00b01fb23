package extract

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
)

// AIFallback re-extracts an invoice with an LLM when the pattern pipeline
// finds no invoice number. It is optional; the deterministic pattern path
// stays authoritative whenever it succeeds.
type AIFallback struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAIFallback creates a new AI-assisted fallback extractor
func NewAIFallback(apiKey, model string, logger *zap.Logger) *AIFallback {
	return &AIFallback{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Extract asks the model for a structured record. Only fields the pattern
// pipeline left absent are filled in; pattern-extracted values are kept.
func (a *AIFallback) Extract(ctx context.Context, text string, base *models.InvoiceRecord) (*models.InvoiceRecord, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at reading business invoices. Extract structured data from invoice text. Use null for any field you cannot find; never guess.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: a.buildPrompt(text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("AI extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no AI response")
	}

	var extracted models.InvoiceRecord
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extracted); err != nil {
		a.logger.Error("Failed to parse AI extraction result",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	merged := mergeRecords(base, &extracted)
	a.logger.Info("AI fallback extraction completed",
		zap.String("invoice_id", merged.ID()))
	return merged, nil
}

// mergeRecords overlays AI-extracted fields onto the pattern-extracted base,
// filling only the gaps.
func mergeRecords(base, ai *models.InvoiceRecord) *models.InvoiceRecord {
	out := *base
	if out.InvoiceNumber == nil {
		out.InvoiceNumber = ai.InvoiceNumber
	}
	if out.ExternalReference == nil {
		out.ExternalReference = ai.ExternalReference
	}
	if out.InvoiceDate == nil {
		out.InvoiceDate = ai.InvoiceDate
	}
	if out.DueDate == nil {
		out.DueDate = ai.DueDate
	}
	if out.SellerName == nil {
		out.SellerName = ai.SellerName
	}
	if out.SellerAddress == nil {
		out.SellerAddress = ai.SellerAddress
	}
	if out.SellerTaxID == nil {
		out.SellerTaxID = ai.SellerTaxID
	}
	if out.BuyerName == nil {
		out.BuyerName = ai.BuyerName
	}
	if out.BuyerAddress == nil {
		out.BuyerAddress = ai.BuyerAddress
	}
	if out.BuyerTaxID == nil {
		out.BuyerTaxID = ai.BuyerTaxID
	}
	if out.Currency == nil {
		out.Currency = ai.Currency
	}
	if out.NetTotal == nil {
		out.NetTotal = ai.NetTotal
	}
	if out.TaxAmount == nil {
		out.TaxAmount = ai.TaxAmount
	}
	if out.GrossTotal == nil {
		out.GrossTotal = ai.GrossTotal
	}
	if out.PaymentTerms == nil {
		out.PaymentTerms = ai.PaymentTerms
	}
	if len(out.LineItems) == 0 {
		out.LineItems = ai.LineItems
	}
	return &out
}

func (a *AIFallback) buildPrompt(text string) string {
	return fmt.Sprintf(`Extract invoice information from this text:

%s

Return JSON with this exact structure (null for missing fields):
{
  "invoice_number": "string or null",
  "external_reference": "string or null",
  "invoice_date": "YYYY-MM-DD or null",
  "due_date": "YYYY-MM-DD or null",
  "seller_name": "string or null",
  "seller_address": "string or null",
  "seller_tax_id": "string or null",
  "buyer_name": "string or null",
  "buyer_address": "string or null",
  "buyer_tax_id": "string or null",
  "currency": "ISO 4217 code or null",
  "net_total": number or null,
  "tax_amount": number or null,
  "gross_total": number or null,
  "payment_terms": "string or null",
  "line_items": [{"description": "string", "quantity": number, "unit_price": number, "line_total": number}]
}`, text)
}
