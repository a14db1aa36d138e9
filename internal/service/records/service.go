package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository"
)

// ErrInvalidFilter indicates a list query parameter could not be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

var recordMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "records_mutations_total",
		Help: "Record create/update/delete operations that reached the store",
	},
	[]string{"operation", "backend"},
)

// Sort orders accepted by the list endpoint.
const (
	SortDateAsc    = "date-asc"
	SortDateDesc   = "date-desc"
	SortProfitAsc  = "profit-asc"
	SortProfitDesc = "profit-desc"
)

// Filter narrows and orders a record listing. Zero values mean "no constraint".
type Filter struct {
	From   time.Time
	To     time.Time
	Months int
	Sort   string
}

// ParseFilter builds a Filter from raw query values.
func ParseFilter(sortOrder, from, to, months string) (Filter, error) {
	var f Filter

	switch sortOrder = strings.TrimSpace(strings.ToLower(sortOrder)); sortOrder {
	case "", SortDateAsc, SortDateDesc, SortProfitAsc, SortProfitDesc:
		f.Sort = sortOrder
	default:
		return Filter{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, sortOrder)
	}

	if from != "" {
		day, err := time.Parse(models.DateLayout, from)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidFilter)
		}
		f.From = day
	}
	if to != "" {
		day, err := time.Parse(models.DateLayout, to)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidFilter)
		}
		f.To = day
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("%w: to is before from", ErrInvalidFilter)
	}

	if months != "" && months != "all" {
		n, err := strconv.Atoi(months)
		if err != nil || n < 0 {
			return Filter{}, fmt.Errorf("%w: months must be a positive number", ErrInvalidFilter)
		}
		f.Months = n
	}

	return f, nil
}

// Service fronts the configured record store.
type Service struct {
	store  repository.RecordStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a records service around a store.
func NewService(store repository.RecordStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Backend names the store in use.
func (s *Service) Backend() string { return s.store.Backend() }

// List returns the records matching f in the requested order. Without a sort
// order the store's own order is kept.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Record, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	from := f.From
	if f.Months > 0 {
		now := s.now()
		cutoff := time.Date(now.Year(), now.Month()-time.Month(f.Months), now.Day(), 0, 0, 0, 0, time.UTC)
		if from.IsZero() || cutoff.After(from) {
			from = cutoff
		}
	}

	filtered := all
	if !from.IsZero() || !f.To.IsZero() {
		filtered = make([]models.Record, 0, len(all))
		for _, record := range all {
			day, err := record.Day()
			if err != nil {
				s.logger.Debug("skip record with unparseable date", zap.String("id", record.ID.String()), zap.String("date", record.Date))
				continue
			}
			if !from.IsZero() && day.Before(from) {
				continue
			}
			if !f.To.IsZero() && day.After(f.To) {
				continue
			}
			filtered = append(filtered, record)
		}
	}

	sortRecords(filtered, f.Sort)
	return filtered, nil
}

// Create persists a new record.
func (s *Service) Create(ctx context.Context, record models.Record) (models.Record, error) {
	record.ID = ""
	created, err := s.store.Create(ctx, record)
	if err != nil {
		return models.Record{}, fmt.Errorf("create record: %w", err)
	}
	recordMutations.WithLabelValues("create", s.store.Backend()).Inc()
	return created, nil
}

// Update replaces the record identified by id.
func (s *Service) Update(ctx context.Context, id string, record models.Record) (models.Record, error) {
	updated, err := s.store.Update(ctx, strings.TrimSpace(id), record)
	if err != nil {
		return models.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	recordMutations.WithLabelValues("update", s.store.Backend()).Inc()
	return updated, nil
}

// Delete removes the record identified by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	recordMutations.WithLabelValues("delete", s.store.Backend()).Inc()
	return nil
}

func sortRecords(records []models.Record, order string) {
	if order == "" {
		return
	}

	field, direction, _ := strings.Cut(order, "-")
	key := func(r models.Record) float64 {
		if field == "profit" {
			return sortable(r.TotalProfit.Float())
		}
		day, err := r.Day()
		if err != nil {
			return math.Inf(-1)
		}
		return float64(day.Unix())
	}

	sort.SliceStable(records, func(i, j int) bool {
		if direction == "asc" {
			return key(records[i]) < key(records[j])
		}
		return key(records[i]) > key(records[j])
	})
}

// sortable maps NaN to -Inf so that comparisons stay a strict weak order.
func sortable(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
