package reporting

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/service/records"
)

type stubLister struct {
	rows    []models.Record
	err     error
	filters []records.Filter
}

func (s *stubLister) List(_ context.Context, f records.Filter) ([]models.Record, error) {
	s.filters = append(s.filters, f)
	return s.rows, s.err
}

func row(date string, spend, extra, profit float64) models.Record {
	return models.Record{
		Date:        date,
		AmountSpend: models.Amount(spend),
		ExtraSpend:  models.Amount(extra),
		TotalProfit: models.Amount(profit),
	}
}

func TestSummary(t *testing.T) {
	lister := &stubLister{rows: []models.Record{
		row("2025-03-10", 900, 50, 500),
		row("2025-03-12", 1000, math.NaN(), 250.5),
		row("2025-04-01", math.NaN(), 10, math.NaN()),
	}}
	svc := NewService(lister, nil)

	summary, err := svc.Summary(context.Background(), records.Filter{Months: 6})
	require.NoError(t, err)

	assert.Equal(t, models.Summary{
		TotalProfit:     750.5,
		TotalInvestment: 1900,
		TotalLoads:      3,
		TotalExtraSpend: 60,
	}, summary)
	assert.Equal(t, []records.Filter{{Months: 6}}, lister.filters)
}

func TestMonthly(t *testing.T) {
	lister := &stubLister{rows: []models.Record{
		row("2025-04-01", 0, 0, 100),
		row("2025-03-10", 0, 0, 500),
		row("bad-date", 0, 0, 999),
		row("2025-03-28", 0, 0, math.NaN()),
	}}
	svc := NewService(lister, nil)

	points, err := svc.Monthly(context.Background(), records.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []models.MonthlyPoint{
		{Month: "2025-03", Loads: 2, Profit: 500},
		{Month: "2025-04", Loads: 1, Profit: 100},
	}, points)
}

func TestWeeklyDigest(t *testing.T) {
	end := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

	t.Run("with loads", func(t *testing.T) {
		lister := &stubLister{rows: []models.Record{row("2025-03-10", 900, 50, 500)}}
		svc := NewService(lister, nil)

		digest, err := svc.WeeklyDigest(context.Background(), end)
		require.NoError(t, err)
		assert.Equal(t, "Weekly summary (2025-03-08-2025-03-14): 1 loads, profit 500.00, invested 900.00, driver extras 50.00.", digest)

		require.Len(t, lister.filters, 1)
		assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), lister.filters[0].From)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), lister.filters[0].To)
	})

	t.Run("empty week", func(t *testing.T) {
		svc := NewService(&stubLister{}, nil)
		digest, err := svc.WeeklyDigest(context.Background(), end)
		require.NoError(t, err)
		assert.Contains(t, digest, "no loads recorded")
	})

	t.Run("store failure", func(t *testing.T) {
		svc := NewService(&stubLister{err: errors.New("disk gone")}, nil)
		_, err := svc.WeeklyDigest(context.Background(), end)
		assert.Error(t, err)
	})
}
