package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
)

// ErrNotFound indicates no record carries the requested id.
var ErrNotFound = errors.New("record not found")

// ErrInvalidRecord indicates the backend refused the record payload.
var ErrInvalidRecord = errors.New("invalid record")

// RecordStore is the persistence contract shared by the CSV and MongoDB backends.
type RecordStore interface {
	List(ctx context.Context) ([]models.Record, error)
	Create(ctx context.Context, record models.Record) (models.Record, error)
	Update(ctx context.Context, id string, record models.Record) (models.Record, error)
	Delete(ctx context.Context, id string) error
	Backend() string
}
