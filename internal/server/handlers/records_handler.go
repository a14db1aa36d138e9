package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecordService is the record use-case surface the handler depends on.
type RecordService interface {
	List(ctx context.Context, f records.Filter) ([]models.Record, error)
	Create(ctx context.Context, record models.Record) (models.Record, error)
	Update(ctx context.Context, id string, record models.Record) (models.Record, error)
	Delete(ctx context.Context, id string) error
}

// ReportService computes dashboard aggregates.
type ReportService interface {
	Summary(ctx context.Context, f records.Filter) (models.Summary, error)
	Monthly(ctx context.Context, f records.Filter) ([]models.MonthlyPoint, error)
}

// ExportService renders and mirrors records outside the API.
type ExportService interface {
	WriteWorkbook(ctx context.Context, f records.Filter, w io.Writer) error
	SyncSheets(ctx context.Context) (int, error)
}

// RecordsHandler serves the /api/records routes.
type RecordsHandler struct {
	records RecordService
	reports ReportService
	exports ExportService
	logger  *zap.Logger
}

// NewRecordsHandler constructs the records HTTP adapter.
func NewRecordsHandler(recordSvc RecordService, reportSvc ReportService, exportSvc ExportService, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{records: recordSvc, reports: reportSvc, exports: exportSvc, logger: logger}
}

// List returns the filtered records.
func (h *RecordsHandler) List(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	rows, err := h.records.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "Failed to read records")
		return
	}
	if rows == nil {
		rows = []models.Record{}
	}

	c.JSON(http.StatusOK, rows)
}

// Create stores a new record. Amounts missing from the body are stored as NaN.
func (h *RecordsHandler) Create(c *gin.Context) {
	record := models.NewBlankRecord()
	if err := c.ShouldBindJSON(&record); err != nil {
		h.logger.Warn("invalid record payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := h.records.Create(c.Request.Context(), record)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save record")
		return
	}

	c.JSON(http.StatusOK, created)
}

// Update fully replaces the record identified by :id.
func (h *RecordsHandler) Update(c *gin.Context) {
	record := models.NewBlankRecord()
	if err := c.ShouldBindJSON(&record); err != nil {
		h.logger.Warn("invalid record payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.records.Update(c.Request.Context(), c.Param("id"), record)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update record")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes the record identified by :id.
func (h *RecordsHandler) Delete(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

// Summary returns totals over the filtered records.
func (h *RecordsHandler) Summary(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	summary, err := h.reports.Summary(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "Failed to read records")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Monthly returns the per-month load and profit series.
func (h *RecordsHandler) Monthly(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	points, err := h.reports.Monthly(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "Failed to read records")
		return
	}
	if points == nil {
		points = []models.MonthlyPoint{}
	}

	c.JSON(http.StatusOK, points)
}

// ExportXLSX streams the filtered records as a workbook download.
func (h *RecordsHandler) ExportXLSX(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}

	// Rendered into memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.exports.WriteWorkbook(c.Request.Context(), f, &buf); err != nil {
		respondError(c, h.logger, err, "Failed to export records")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rtm-records.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SyncSheets mirrors every record to the configured spreadsheet.
func (h *RecordsHandler) SyncSheets(c *gin.Context) {
	n, err := h.exports.SyncSheets(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to sync records")
		return
	}

	h.logger.Info("records mirrored to sheets", zap.Int("rows", n))
	c.JSON(http.StatusOK, gin.H{"synced": n, "message": fmt.Sprintf("%d records synced", n)})
}

func (h *RecordsHandler) filter(c *gin.Context) (records.Filter, bool) {
	f, err := records.ParseFilter(c.Query("sort"), c.Query("from"), c.Query("to"), c.Query("months"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to read records")
		return records.Filter{}, false
	}
	return f, true
}
