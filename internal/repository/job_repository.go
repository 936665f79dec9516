// internal/repository/job_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"epl2-service/internal/database"
	"epl2-service/internal/model"
)

const defaultListLimit = 50

// jobRepository implements JobRepository on PostgreSQL
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new job with its payload and report
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, name, source, size_bytes, status, command_count,
			error_count, payload, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Name, job.Source, job.SizeBytes, job.Status,
		job.CommandCount, job.ErrorCount, job.Payload, job.Report, job.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create job", zap.String("job_id", job.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job including its payload
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `
		SELECT id, name, source, size_bytes, status, command_count, error_count,
			   payload, report, created_at, forwarded_at, forward_target
		FROM print_jobs WHERE id = $1
	`

	job := &model.PrintJob{Report: &model.JobReport{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Name, &job.Source, &job.SizeBytes, &job.Status,
		&job.CommandCount, &job.ErrorCount, &job.Payload, job.Report,
		&job.CreatedAt, &job.ForwardedAt, &job.ForwardTarget,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w with id: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Delete removes a job
func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(result, id)
}

// MarkForwarded sets the forwarded status, time and target
func (r *jobRepository) MarkForwarded(ctx context.Context, id uuid.UUID, target string, at time.Time) error {
	query := `
		UPDATE print_jobs SET status = $2, forwarded_at = $3, forward_target = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, model.JobStatusForwarded, at, target)
	if err != nil {
		return fmt.Errorf("failed to mark job forwarded: %w", err)
	}
	return requireRow(result, id)
}

// List returns one page of jobs, newest first, and the total matching count
func (r *jobRepository) List(ctx context.Context, filter *model.JobFilter) ([]*model.PrintJob, int, error) {
	if filter == nil {
		filter = &model.JobFilter{}
	}

	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.Since)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM print_jobs %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := fmt.Sprintf(`
		SELECT id, name, source, size_bytes, status, command_count, error_count,
			   report, created_at, forwarded_at, forward_target
		FROM print_jobs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job := &model.PrintJob{Report: &model.JobReport{}}
		if err := rows.Scan(
			&job.ID, &job.Name, &job.Source, &job.SizeBytes, &job.Status,
			&job.CommandCount, &job.ErrorCount, job.Report,
			&job.CreatedAt, &job.ForwardedAt, &job.ForwardTarget,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	r.logger.Debug("Listed jobs",
		zap.Int("count", len(jobs)),
		zap.Int("total", total),
		zap.Duration("duration", time.Since(start)),
	)
	return jobs, total, nil
}

// GetStats returns aggregate counts over all stored jobs
func (r *jobRepository) GetStats(ctx context.Context) (*model.JobStats, error) {
	stats := &model.JobStats{ByStatus: make(map[model.JobStatus]int64)}

	query := `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), COALESCE(SUM(command_count), 0),
			   COALESCE(SUM(error_count), 0), MIN(created_at)
		FROM print_jobs
	`
	var oldest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Bytes, &stats.Commands, &stats.Errors, &oldest,
	); err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestJob = &oldest.Time
	}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM print_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status model.JobStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	return stats, rows.Err()
}

// DeleteOlderThan removes jobs created before cutoff
func (r *jobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM print_jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func requireRow(result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w with id: %s", ErrNotFound, id)
	}
	return nil
}
