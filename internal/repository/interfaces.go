// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"epl2-service/internal/model"
)

// ErrNotFound is returned when a job does not exist
var ErrNotFound = errors.New("job not found")

// JobRepository defines print job data access operations
type JobRepository interface {
	// CRUD operations
	Create(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkForwarded records a successful forward to target
	MarkForwarded(ctx context.Context, id uuid.UUID, target string, at time.Time) error

	// Listing and filtering; the payload is not loaded
	List(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error)

	// Analytics and cleanup
	GetStats(ctx context.Context) (*model.JobStats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
