// Command invoiceqc is the batch-mode CLI around the invoice QC pipeline:
// extract documents to JSON, validate extracted JSON, or run both stages in
// one pass. Exit code 1 signals a batch containing invalid invoices.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/config"
	"github.com/garyjia/invoice-qc/internal/export"
	"github.com/garyjia/invoice-qc/internal/extract"
	"github.com/garyjia/invoice-qc/internal/models"
	"github.com/garyjia/invoice-qc/internal/rules"
	"github.com/garyjia/invoice-qc/internal/validate"
	"github.com/garyjia/invoice-qc/pkg/utils"
)

// errInvalidInvoices distinguishes "the batch had failures" from operational
// errors so main can exit 1 without printing a stack of wrapping.
var errInvalidInvoices = fmt.Errorf("batch contains invalid invoices")

func main() {
	_ = gotenv.Load()

	root := &cobra.Command{
		Use:           "invoiceqc",
		Short:         "Extract and validate invoice data from documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newExtractCmd(),
		newValidateCmd(),
		newFullRunCmd(),
		newRulesCmd(),
		newExportCmd(),
	)

	if err := root.Execute(); err != nil {
		if err != errInvalidInvoices {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return utils.NewLogger(utils.LoggerConfig{
		Level:      "info",
		OutputPath: "stderr",
		Format:     "console",
	})
}

func newPipeline(logger *zap.Logger) *extract.Extractor {
	cfg := config.Defaults()
	reader := extract.NewPDFReader(logger)
	opts := []extract.Option{extract.WithWorkers(cfg.Extractor.Workers)}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		opts = append(opts, extract.WithAIFallback(
			extract.NewAIFallback(key, cfg.OpenAI.Model, logger)))
	}
	return extract.NewExtractor(reader, logger, opts...)
}

func newExtractCmd() *cobra.Command {
	var pdfDir, output string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract invoice data from documents into JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			extractor := newPipeline(logger)
			records, err := extractor.ExtractDirectory(context.Background(), pdfDir)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}

			if err := writeJSON(output, records); err != nil {
				return err
			}
			fmt.Printf("Extracted %d invoices to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfDir, "pdf-dir", "", "Directory containing invoice documents")
	cmd.Flags().StringVar(&output, "output", "", "Output JSON file for extracted data")
	cmd.MarkFlagRequired("pdf-dir")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var input, reportPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate extracted invoice data",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			records, err := validate.DecodeRecords(raw)
			if err != nil {
				return err
			}

			validator := validate.NewValidator(rules.Defaults(rules.DefaultTolerance), logger)
			report := validator.ValidateBatch(records)

			if err := writeJSON(reportPath, report); err != nil {
				return err
			}
			printSummary(report)
			fmt.Printf("Validation report saved to %s\n", reportPath)

			if report.Summary.InvalidInvoices > 0 {
				return errInvalidInvoices
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input JSON file with extracted invoices")
	cmd.Flags().StringVar(&reportPath, "report", "", "Output JSON file for validation report")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("report")
	return cmd
}

func newFullRunCmd() *cobra.Command {
	var pdfDir, reportPath, saveExtracted string

	cmd := &cobra.Command{
		Use:   "full-run",
		Short: "Extract and validate invoices in one step",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			extractor := newPipeline(logger)
			records, err := extractor.ExtractDirectory(context.Background(), pdfDir)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			fmt.Printf("[1/2] Extracted %d invoices from %s\n", len(records), pdfDir)

			if saveExtracted != "" {
				if err := writeJSON(saveExtracted, records); err != nil {
					return err
				}
				fmt.Printf("Saved extracted data to %s\n", saveExtracted)
			}

			validator := validate.NewValidator(rules.Defaults(rules.DefaultTolerance), logger)
			report := validator.ValidateBatch(records)
			fmt.Println("[2/2] Validation complete")

			if err := writeJSON(reportPath, report); err != nil {
				return err
			}
			printSummary(report)
			fmt.Printf("Validation report saved to %s\n", reportPath)

			if report.Summary.InvalidInvoices > 0 {
				return errInvalidInvoices
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfDir, "pdf-dir", "", "Directory containing invoice documents")
	cmd.Flags().StringVar(&reportPath, "report", "", "Output JSON file for validation report")
	cmd.Flags().StringVar(&saveExtracted, "save-extracted", "", "Optionally save extracted data to this file")
	cmd.MarkFlagRequired("pdf-dir")
	cmd.MarkFlagRequired("report")
	return cmd
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the validation rules in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, r := range rules.Defaults(rules.DefaultTolerance) {
				fmt.Printf("%d. %-20s [%s, %s] %s\n", i+1, r.Name, r.Severity, r.Scope, r.Description)
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a validation report to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
			var report models.ValidationReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return fmt.Errorf("input is not a validation report: %w", err)
			}

			writer := export.NewExcelWriter(logger)
			if err := writer.Write(report, output); err != nil {
				return err
			}
			fmt.Printf("Report exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input validation report JSON file")
	cmd.Flags().StringVar(&output, "output", "", "Output .xlsx path")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printSummary(report models.ValidationReport) {
	s := report.Summary
	fmt.Println("==================================================")
	fmt.Println(" VALIDATION SUMMARY")
	fmt.Println("==================================================")
	fmt.Printf("Total Invoices:   %d\n", s.TotalInvoices)
	fmt.Printf("Valid Invoices:   %d\n", s.ValidInvoices)
	fmt.Printf("Invalid Invoices: %d\n", s.InvalidInvoices)

	printCounts("Errors", s.ErrorCounts)
	printCounts("Warnings", s.WarningCounts)
}

func printCounts(label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	// Highest count first, name as tie-break.
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Printf("\n%s:\n", label)
	for _, name := range names {
		fmt.Printf("  [%dx] %s\n", counts[name], name)
	}
}
