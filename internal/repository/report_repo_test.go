package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/models"
	"github.com/garyjia/invoice-qc/pkg/database"
)

func newTestRepo(t *testing.T) *ReportRepository {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(filepath.Join("..", "..", "migrations")))
	return NewReportRepository(db.DB, logger)
}

func reportFixture(total, valid int) models.ValidationReport {
	results := make([]models.RecordResult, 0, total)
	for i := 0; i < total; i++ {
		results = append(results, models.RecordResult{
			InvoiceID: "INV-" + string(rune('A'+i)),
			IsValid:   i < valid,
			Errors:    []models.Finding{},
			Warnings:  []models.Finding{},
		})
	}
	return models.ValidationReport{
		Summary: models.Summary{
			TotalInvoices:   total,
			ValidInvoices:   valid,
			InvalidInvoices: total - valid,
			ErrorCounts:     map[string]int{},
			WarningCounts:   map[string]int{},
		},
		Results: results,
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)

	report := reportFixture(2, 1)
	report.Summary.ErrorCounts["required_fields"] = 1

	id, err := repo.Save(report)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	saved, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, 2, saved.TotalInvoices)
	assert.Equal(t, 1, saved.ValidInvoices)
	assert.Equal(t, 1, saved.InvalidInvoices)
	assert.Equal(t, 1, saved.Report.Summary.ErrorCounts["required_fields"])
	require.Len(t, saved.Report.Results, 2)
	assert.Equal(t, "INV-A", saved.Report.Results[0].InvoiceID)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestGetMissingReport(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get("no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListRecent(t *testing.T) {
	repo := newTestRepo(t)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		id, err := repo.Save(reportFixture(i+1, i))
		require.NoError(t, err)
		ids[id] = true
	}

	reports, err := repo.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, saved := range reports {
		assert.True(t, ids[saved.ID])
	}

	limited, err := repo.ListRecent(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListRecentEmpty(t *testing.T) {
	repo := newTestRepo(t)
	reports, err := repo.ListRecent(10)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
