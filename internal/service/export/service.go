package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository/sheets"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

// ErrSheetsDisabled is returned by SyncSheets when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("google sheets mirror is not configured")

const workbookSheet = "Records"

// RecordLister is the subset of the records service used for exports.
type RecordLister interface {
	List(ctx context.Context, f records.Filter) ([]models.Record, error)
}

// Service renders records into spreadsheet formats.
type Service struct {
	records    RecordLister
	sheets     sheets.Repository
	sheetRange string
	logger     *zap.Logger
}

// NewService wires the exporter. sheetsRepo may be nil, which disables SyncSheets.
func NewService(lister RecordLister, sheetsRepo sheets.Repository, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:    lister,
		sheets:     sheetsRepo,
		sheetRange: sheetRange,
		logger:     logger,
	}
}

// SheetsEnabled reports whether a spreadsheet mirror is configured.
func (s *Service) SheetsEnabled() bool { return s.sheets != nil }

// WriteWorkbook writes the filtered records as an XLSX workbook to w.
func (s *Service) WriteWorkbook(ctx context.Context, f records.Filter, w io.Writer) error {
	rows, err := s.records.List(ctx, f)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	book := excelize.NewFile()
	defer func() {
		if err := book.Close(); err != nil {
			s.logger.Warn("failed closing workbook", zap.Error(err))
		}
	}()

	if err := book.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, values := range table(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := values
		if err := book.SetSheetRow(workbookSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := book.SetPanes(workbookSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SyncSheets replaces the configured spreadsheet range with every stored record
// and returns the number of records written.
func (s *Service) SyncSheets(ctx context.Context) (int, error) {
	if s.sheets == nil {
		return 0, ErrSheetsDisabled
	}

	rows, err := s.records.List(ctx, records.Filter{Sort: records.SortDateAsc})
	if err != nil {
		return 0, fmt.Errorf("load records: %w", err)
	}

	if err := s.sheets.ClearRange(ctx, s.sheetRange); err != nil {
		return 0, err
	}
	if err := s.sheets.WriteRows(ctx, s.sheetRange, table(rows)); err != nil {
		return 0, err
	}

	s.logger.Info("records mirrored to google sheets", zap.Int("records", len(rows)), zap.String("range", s.sheetRange))
	return len(rows), nil
}

func table(rows []models.Record) [][]interface{} {
	out := make([][]interface{}, 0, len(rows)+1)

	header := make([]interface{}, len(models.RecordColumns))
	for i, column := range models.RecordColumns {
		header[i] = column
	}
	out = append(out, header)

	for _, row := range rows {
		out = append(out, row.Row())
	}
	return out
}
