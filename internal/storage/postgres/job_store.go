package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// JobStore persists job records in Postgres.
type JobStore struct {
	pool dbPool
}

// NewJobStore creates a Postgres-backed JobStore using the provided config.
func NewJobStore(ctx context.Context, cfg PoolConfig) (*JobStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &JobStore{pool: pool}, nil
}

// NewJobStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewJobStoreWithPool(pool dbPool) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Create stores a new job record.
func (s *JobStore) Create(ctx context.Context, job storage.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	status := job.Status
	if status == "" {
		status = storage.JobStatusQueued
	}
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO jobs (
	id, url, status, error_message,
	pages_crawled, products_found, products_stored, images_downloaded, errors,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		job.ID,
		job.URL,
		string(status),
		job.Error,
		job.Stats.PagesCrawled,
		job.Stats.ProductsFound,
		job.Stats.ProductsStored,
		job.Stats.ImagesDownloaded,
		job.Stats.Errors,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get returns the job, or storage.ErrNotFound.
func (s *JobStore) Get(ctx context.Context, jobID string) (storage.Job, error) {
	var job storage.Job
	var status string
	err := s.pool.QueryRow(ctx, `
SELECT id, url, status, error_message,
       pages_crawled, products_found, products_stored, images_downloaded, errors,
       created_at, started_at, finished_at
FROM jobs WHERE id = $1`, jobID).Scan(
		&job.ID,
		&job.URL,
		&status,
		&job.Error,
		&job.Stats.PagesCrawled,
		&job.Stats.ProductsFound,
		&job.Stats.ProductsStored,
		&job.Stats.ImagesDownloaded,
		&job.Stats.Errors,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Job{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Job{}, fmt.Errorf("get job: %w", err)
	}
	job.Status = storage.JobStatus(status)
	return job, nil
}

// MarkRunning transitions the job to running and records its start time.
func (s *JobStore) MarkRunning(ctx context.Context, jobID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, started_at = $2 WHERE id = $3`,
		string(storage.JobStatusRunning), at, jobID,
	)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Complete finalizes the job with its terminal status and stats.
func (s *JobStore) Complete(ctx context.Context, jobID string, status storage.JobStatus, errMsg string, stats crawler.RunStats, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE jobs SET
	status = $1,
	error_message = $2,
	pages_crawled = $3,
	products_found = $4,
	products_stored = $5,
	images_downloaded = $6,
	errors = $7,
	finished_at = $8
WHERE id = $9`,
		string(status),
		errMsg,
		stats.PagesCrawled,
		stats.ProductsFound,
		stats.ProductsStored,
		stats.ImagesDownloaded,
		stats.Errors,
		at,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns jobs newest first, at most limit entries when limit > 0.
func (s *JobStore) List(ctx context.Context, limit int) ([]storage.Job, error) {
	query := `
SELECT id, url, status, error_message,
       pages_crawled, products_found, products_stored, images_downloaded, errors,
       created_at, started_at, finished_at
FROM jobs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $1"
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []storage.Job
	for rows.Next() {
		var job storage.Job
		var status string
		err := rows.Scan(
			&job.ID,
			&job.URL,
			&status,
			&job.Error,
			&job.Stats.PagesCrawled,
			&job.Stats.ProductsFound,
			&job.Stats.ProductsStored,
			&job.Stats.ImagesDownloaded,
			&job.Stats.Errors,
			&job.CreatedAt,
			&job.StartedAt,
			&job.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Status = storage.JobStatus(status)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}
