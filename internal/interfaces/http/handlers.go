package http

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-qc/internal/extract"
	"github.com/garyjia/invoice-qc/internal/models"
	"github.com/garyjia/invoice-qc/internal/repository"
	"github.com/garyjia/invoice-qc/internal/validate"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	extractor *extract.Extractor
	validator *validate.Validator
	reports   *repository.ReportRepository
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance. The report repository may be
// nil when history persistence is not configured.
func NewHandlers(
	extractor *extract.Extractor,
	validator *validate.Validator,
	reports *repository.ReportRepository,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		extractor: extractor,
		validator: validator,
		reports:   reports,
		logger:    logger,
	}
}

// Response represents a standard JSON error envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// ExtractAndValidateResponse pairs extracted records with their report.
type ExtractAndValidateResponse struct {
	ExtractedInvoices []*models.InvoiceRecord `json:"extracted_invoices"`
	ValidationReport  models.ValidationReport `json:"validation_report"`
}

// RuleInfo describes one rule for the introspection endpoint.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Scope       string `json:"scope"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "invoice-qc",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ValidateJSON handles POST /api/validate-json. The body is
// {"invoices": [...]} with pre-extracted records; the input shape is checked
// once before validation, so a malformed body is a single structural error
// rather than per-field noise.
func (h *Handlers) ValidateJSON(c *gin.Context) {
	var body struct {
		Invoices json.RawMessage `json:"invoices"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "request body must be a JSON object with an 'invoices' array"})
		return
	}

	records, err := validate.DecodeRecords(body.Invoices)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	report := h.validator.ValidateBatch(records)
	c.JSON(http.StatusOK, report)
}

// ExtractAndValidate handles POST /api/extract-and-validate: multipart PDF
// uploads through the full pipeline.
func (h *Handlers) ExtractAndValidate(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "expected multipart form upload"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "no files uploaded"})
		return
	}

	tempDir, err := os.MkdirTemp("", "invoice-qc-upload-*")
	if err != nil {
		h.logger.Error("Failed to create upload directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to stage uploads"})
		return
	}
	defer os.RemoveAll(tempDir)

	var paths []string
	for i, file := range files {
		// One numbered subdirectory per upload: colliding base names must not
		// overwrite each other, and the base name itself must survive because
		// it becomes the record's source_file identity.
		dst := filepath.Join(tempDir, strconv.Itoa(i), filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			h.logger.Error("Failed to save uploaded file",
				zap.String("filename", file.Filename),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to stage uploads"})
			return
		}
		paths = append(paths, dst)
	}

	records := h.extractor.ExtractBatch(c.Request.Context(), paths)
	report := h.validator.ValidateBatch(records)

	c.JSON(http.StatusOK, ExtractAndValidateResponse{
		ExtractedInvoices: records,
		ValidationReport:  report,
	})
}

// ListRules handles GET /api/validation-rules
func (h *Handlers) ListRules(c *gin.Context) {
	ruleSet := h.validator.Rules()
	infos := make([]RuleInfo, 0, len(ruleSet))
	for _, r := range ruleSet {
		infos = append(infos, RuleInfo{
			Name:        r.Name,
			Description: r.Description,
			Severity:    string(r.Severity),
			Scope:       string(r.Scope),
		})
	}
	c.JSON(http.StatusOK, gin.H{"rules": infos})
}

// SaveValidation handles POST /api/save-validation
func (h *Handlers) SaveValidation(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "report history is not configured"})
		return
	}

	var report models.ValidationReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "request body must be a validation report"})
		return
	}

	id, err := h.reports.Save(report)
	if err != nil {
		h.logger.Error("Failed to save validation report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to save report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Validation report saved"})
}

// ValidationHistory handles GET /api/validation-history
func (h *Handlers) ValidationHistory(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "report history is not configured"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	reports, err := h.reports.ListRecent(limit)
	if err != nil {
		h.logger.Error("Failed to list validation reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load history"})
		return
	}
	if reports == nil {
		reports = []repository.SavedReport{}
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
