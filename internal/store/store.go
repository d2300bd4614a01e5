package store

import (
	"context"
	"errors"
	"time"

	"github.com/joescharf/procd/internal/models"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunListFilter specifies filters for listing runs.
type RunListFilter struct {
	Command string
	Mode    models.RunMode
	Limit   int
}

// Store defines the persistence interface for the run journal.
type Store interface {
	CreateRun(ctx context.Context, run *models.Run) error
	FinishRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, filter RunListFilter) ([]*models.Run, error)
	DeleteRunsBefore(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
