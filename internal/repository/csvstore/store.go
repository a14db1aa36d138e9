package csvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository"
)

// BackendName is reported by Store.Backend.
const BackendName = "csv"

// Store keeps every record in a single CSV file. Each mutation reads the whole
// file, edits it in memory and rewrites it; mu serializes those cycles.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

var _ repository.RecordStore = (*Store)(nil)

// New returns a store backed by the file at path. The file does not need to exist yet.
func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("csv file path must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}, nil
}

// Backend implements repository.RecordStore.
func (s *Store) Backend() string { return BackendName }

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// List returns every record in file order.
func (s *Store) List(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Create stores the record under max(existing ids)+1.
func (s *Store) Create(ctx context.Context, record models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return models.Record{}, err
	}

	record.ID = models.RecordID(strconv.Itoa(nextID(records)))
	records = append(records, record)

	if err := s.write(records); err != nil {
		return models.Record{}, err
	}

	s.logger.Debug("record created", zap.String("id", record.ID.String()))
	return record, nil
}

// Update replaces the record with the given id.
func (s *Store) Update(ctx context.Context, id string, record models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}

	target, err := strconv.Atoi(id)
	if err != nil {
		return models.Record{}, repository.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return models.Record{}, err
	}

	index := -1
	for i, existing := range records {
		if n, err := strconv.Atoi(existing.ID.String()); err == nil && n == target {
			index = i
			break
		}
	}
	if index == -1 {
		return models.Record{}, repository.ErrNotFound
	}

	record.ID = models.RecordID(strconv.Itoa(target))
	records[index] = record

	if err := s.write(records); err != nil {
		return models.Record{}, err
	}

	s.logger.Debug("record updated", zap.String("id", record.ID.String()))
	return record, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := strconv.Atoi(id)
	if err != nil {
		return repository.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}

	kept := make([]models.Record, 0, len(records))
	for _, existing := range records {
		if n, err := strconv.Atoi(existing.ID.String()); err == nil && n == target {
			continue
		}
		kept = append(kept, existing)
	}
	if len(kept) == len(records) {
		return repository.ErrNotFound
	}

	if err := s.write(kept); err != nil {
		return err
	}

	s.logger.Debug("record deleted", zap.String("id", id))
	return nil
}

func (s *Store) read() ([]models.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	records := []models.Record{}
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return records, nil
}

// write replaces the file atomically through a sibling temp file.
func (s *Store) write(records []models.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := gocsv.MarshalFile(&records, tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func nextID(records []models.Record) int {
	highest := 0
	for _, record := range records {
		if n, err := strconv.Atoi(record.ID.String()); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
