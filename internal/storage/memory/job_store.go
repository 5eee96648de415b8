package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// JobStore keeps job records in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]storage.Job
}

// NewJobStore returns an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]storage.Job)}
}

// Create stores a new job record.
func (s *JobStore) Create(_ context.Context, job storage.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %q already exists", job.ID)
	}
	if job.Status == "" {
		job.Status = storage.JobStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	s.jobs[job.ID] = job
	return nil
}

// Get returns the job, or storage.ErrNotFound.
func (s *JobStore) Get(_ context.Context, jobID string) (storage.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return storage.Job{}, storage.ErrNotFound
	}
	return job, nil
}

// MarkRunning transitions the job to running and records its start time.
func (s *JobStore) MarkRunning(_ context.Context, jobID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return storage.ErrNotFound
	}
	job.Status = storage.JobStatusRunning
	job.StartedAt = &at
	s.jobs[jobID] = job
	return nil
}

// Complete finalizes the job with its terminal status and stats.
func (s *JobStore) Complete(_ context.Context, jobID string, status storage.JobStatus, errMsg string, stats crawler.RunStats, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return storage.ErrNotFound
	}
	job.Status = status
	job.Error = errMsg
	job.Stats = stats
	job.FinishedAt = &at
	s.jobs[jobID] = job
	return nil
}

// List returns jobs newest first, at most limit entries when limit > 0.
func (s *JobStore) List(_ context.Context, limit int) ([]storage.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]storage.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
