// Package validate runs the quality-control rule set over a batch of
// invoice records and aggregates the findings into a validation report.
package validate

import (
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/invoice-qc/internal/models"
	"github.com/garyjia/invoice-qc/internal/rules"
)

// Validator evaluates a fixed ordered rule set against invoice batches.
// Records are read-only to the engine; a fresh report is produced per run
// and two runs over the same batch yield identical reports.
type Validator struct {
	ruleSet []rules.Rule
	workers int
	logger  *zap.Logger
}

// NewValidator creates a validator with the given rule set. The set's order
// is the evaluation order.
func NewValidator(ruleSet []rules.Rule, logger *zap.Logger) *Validator {
	return &Validator{
		ruleSet: ruleSet,
		workers: runtime.GOMAXPROCS(0),
		logger:  logger,
	}
}

// Rules exposes the configured rule set for introspection surfaces.
func (v *Validator) Rules() []rules.Rule {
	return v.ruleSet
}

// ValidateRecord evaluates all per-record rules against one record. Batch
// rules need the whole batch and do not run here.
func (v *Validator) ValidateRecord(rec *models.InvoiceRecord) models.RecordResult {
	result := newResult(rec.ID())
	for _, rule := range v.ruleSet {
		if rule.Scope != rules.ScopeRecord {
			continue
		}
		appendFindings(&result, rule, rule.Check(rec))
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// ValidateBatch runs every rule against every record and aggregates the
// findings into a report. Per-record evaluation runs in parallel, each
// worker writing to its own slot; batch rules run once afterwards over the
// fully assembled batch. Result order matches input order.
func (v *Validator) ValidateBatch(records []*models.InvoiceRecord) models.ValidationReport {
	v.logger.Info("Validating invoice batch", zap.Int("records", len(records)))

	results := make([]models.RecordResult, len(records))

	g := new(errgroup.Group)
	g.SetLimit(v.workers)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = v.ValidateRecord(rec)
			return nil
		})
	}
	_ = g.Wait()

	// Cross-record rules run after the parallel stage, reading the complete
	// batch without mutation.
	for _, rule := range v.ruleSet {
		if rule.Scope != rules.ScopeBatch {
			continue
		}
		perRecord := rule.BatchCheck(records)
		for i, findings := range perRecord {
			appendFindings(&results[i], rule, findings)
		}
	}

	for i := range results {
		results[i].IsValid = len(results[i].Errors) == 0
	}

	return models.ValidationReport{
		Summary: summarize(results),
		Results: results,
	}
}

func newResult(invoiceID string) models.RecordResult {
	return models.RecordResult{
		InvoiceID: invoiceID,
		Errors:    []models.Finding{},
		Warnings:  []models.Finding{},
	}
}

// appendFindings stamps the owning rule's identity onto raw check output and
// files each finding under the matching severity bucket.
func appendFindings(result *models.RecordResult, rule rules.Rule, findings []models.Finding) {
	for _, f := range findings {
		f.InvoiceID = result.InvoiceID
		f.Rule = rule.Name
		f.Severity = rule.Severity
		if rule.Severity == models.SeverityWarning {
			result.Warnings = append(result.Warnings, f)
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
}

func summarize(results []models.RecordResult) models.Summary {
	summary := models.Summary{
		TotalInvoices: len(results),
		ErrorCounts:   map[string]int{},
		WarningCounts: map[string]int{},
	}
	for _, r := range results {
		if r.IsValid {
			summary.ValidInvoices++
		} else {
			summary.InvalidInvoices++
		}
		for _, f := range r.Errors {
			summary.ErrorCounts[f.Rule]++
		}
		for _, f := range r.Warnings {
			summary.WarningCounts[f.Rule]++
		}
	}
	return summary
}
