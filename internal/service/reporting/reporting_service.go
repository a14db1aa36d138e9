package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

const monthLayout = "2006-01"

// RecordLister is the subset of the records service the reports read from.
type RecordLister interface {
	List(ctx context.Context, f records.Filter) ([]models.Record, error)
}

// Service exposes lightweight analytics over the stored records.
type Service struct {
	records RecordLister
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(lister RecordLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{records: lister, logger: logger}
}

// Summary totals profit, investment, loads and driver extras for the filtered records.
func (s *Service) Summary(ctx context.Context, f records.Filter) (models.Summary, error) {
	rows, err := s.records.List(ctx, f)
	if err != nil {
		return models.Summary{}, fmt.Errorf("load records: %w", err)
	}
	return summarize(rows), nil
}

// Monthly groups the filtered records by YYYY-MM, oldest month first.
func (s *Service) Monthly(ctx context.Context, f records.Filter) ([]models.MonthlyPoint, error) {
	rows, err := s.records.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	byMonth := make(map[string]*models.MonthlyPoint)
	for _, row := range rows {
		day, err := row.Day()
		if err != nil {
			s.logger.Debug("skip record with invalid date", zap.String("id", row.ID.String()), zap.String("date", row.Date))
			continue
		}

		key := day.Format(monthLayout)
		point, ok := byMonth[key]
		if !ok {
			point = &models.MonthlyPoint{Month: key}
			byMonth[key] = point
		}
		point.Loads++
		point.Profit += row.TotalProfit.OrZero()
	}

	points := make([]models.MonthlyPoint, 0, len(byMonth))
	for _, point := range byMonth {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	return points, nil
}

// WeeklyDigest renders a one-line profit summary for the seven days ending at end.
func (s *Service) WeeklyDigest(ctx context.Context, end time.Time) (string, error) {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -6)

	summary, err := s.Summary(ctx, records.Filter{From: start, To: end})
	if err != nil {
		return "", err
	}

	if summary.TotalLoads == 0 {
		return fmt.Sprintf("Weekly summary (%s-%s): no loads recorded.", start.Format(models.DateLayout), end.Format(models.DateLayout)), nil
	}

	return fmt.Sprintf("Weekly summary (%s-%s): %d loads, profit %.2f, invested %.2f, driver extras %.2f.",
		start.Format(models.DateLayout), end.Format(models.DateLayout),
		summary.TotalLoads, summary.TotalProfit, summary.TotalInvestment, summary.TotalExtraSpend), nil
}

func summarize(rows []models.Record) models.Summary {
	var summary models.Summary
	for _, row := range rows {
		summary.TotalProfit += row.TotalProfit.OrZero()
		summary.TotalInvestment += row.AmountSpend.OrZero()
		summary.TotalExtraSpend += row.ExtraSpend.OrZero()
		summary.TotalLoads++
	}
	return summary
}
