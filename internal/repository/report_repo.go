package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
)

// SavedReport is a persisted validation report with its storage metadata.
type SavedReport struct {
	ID              string                  `json:"id"`
	TotalInvoices   int                     `json:"total_invoices"`
	ValidInvoices   int                     `json:"valid_invoices"`
	InvalidInvoices int                     `json:"invalid_invoices"`
	Report          models.ValidationReport `json:"report"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ReportRepository handles validation report database operations
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Save persists a validation report and returns its generated id.
func (r *ReportRepository) Save(report models.ValidationReport) (string, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO validation_reports (
			id, total_invoices, valid_invoices, invalid_invoices, report_json
		) VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		id,
		report.Summary.TotalInvoices,
		report.Summary.ValidInvoices,
		report.Summary.InvalidInvoices,
		string(payload),
	)
	if err != nil {
		r.logger.Error("Failed to save validation report", zap.Error(err))
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Info("Validation report saved",
		zap.String("report_id", id),
		zap.Int("total_invoices", report.Summary.TotalInvoices))
	return id, nil
}

// ListRecent returns the most recently saved reports, newest first.
func (r *ReportRepository) ListRecent(limit int) ([]SavedReport, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, total_invoices, valid_invoices, invalid_invoices, report_json, created_at
		FROM validation_reports
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		r.logger.Error("Failed to query validation reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []SavedReport
	for rows.Next() {
		var saved SavedReport
		var payload string
		if err := rows.Scan(
			&saved.ID,
			&saved.TotalInvoices,
			&saved.ValidInvoices,
			&saved.InvalidInvoices,
			&payload,
			&saved.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &saved.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %s: %w", saved.ID, err)
		}
		reports = append(reports, saved)
	}
	return reports, rows.Err()
}

// Get loads one saved report by id.
func (r *ReportRepository) Get(id string) (*SavedReport, error) {
	query := `
		SELECT id, total_invoices, valid_invoices, invalid_invoices, report_json, created_at
		FROM validation_reports
		WHERE id = ?
	`
	var saved SavedReport
	var payload string
	err := r.db.QueryRow(query, id).Scan(
		&saved.ID,
		&saved.TotalInvoices,
		&saved.ValidInvoices,
		&saved.InvalidInvoices,
		&payload,
		&saved.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &saved.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}
	return &saved, nil
}
