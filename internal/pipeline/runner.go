package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/logging"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/metrics"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/notify"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints job identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Harvester runs a crawl and returns the product candidates it found.
// Implemented by crawler.Engine.
type Harvester interface {
	Run(ctx context.Context, baseURL string) (crawler.Result, error)
}

// Runner owns the harvest job lifecycle: it records the job, runs the
// crawl, pushes candidates through the processor, finalizes the job
// record, and sends the completion notification.
type Runner struct {
	harvester Harvester
	processor *Processor
	jobs      storage.JobStore
	notifier  notify.Notifier
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger

	// JobTimeout bounds a single run end to end. Zero disables it.
	JobTimeout time.Duration

	wg sync.WaitGroup
}

// NewRunner constructs a runner.
func NewRunner(harvester Harvester, processor *Processor, jobs storage.JobStore, notifier notify.Notifier, clock Clock, ids IDGenerator, logger *zap.Logger) (*Runner, error) {
	if harvester == nil {
		return nil, fmt.Errorf("harvester is required")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		harvester: harvester,
		processor: processor,
		jobs:      jobs,
		notifier:  notifier,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}, nil
}

// Submit records a queued job for the URL and starts the harvest in the
// background. The returned job carries the generated id.
func (r *Runner) Submit(ctx context.Context, rawURL string) (storage.Job, error) {
	normalized, err := validateTargetURL(rawURL)
	if err != nil {
		return storage.Job{}, err
	}
	jobID, err := r.ids.NewID()
	if err != nil {
		return storage.Job{}, fmt.Errorf("generate job id: %w", err)
	}
	job := storage.Job{
		ID:        jobID,
		URL:       normalized,
		Status:    storage.JobStatusQueued,
		CreatedAt: r.clock.Now(),
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		return storage.Job{}, fmt.Errorf("create job: %w", err)
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// The job outlives the submit request, so it runs on its own
		// context rather than the HTTP request's.
		r.run(context.Background(), job)
	}()
	return job, nil
}

// Wait blocks until all in-flight jobs finish. Used during shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// validateTargetURL normalizes the harvest target and rejects anything
// that is not an absolute http(s) URL.
func validateTargetURL(rawURL string) (string, error) {
	normalized, err := crawler.NormalizeURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	u, err := url.Parse(normalized)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("target url %q must be absolute http(s)", rawURL)
	}
	return normalized, nil
}

func (r *Runner) run(ctx context.Context, job storage.Job) {
	logger := logging.ForJob(r.logger, job.ID)
	metrics.IncActiveJobs()
	defer metrics.DecActiveJobs()
	if r.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.JobTimeout)
		defer cancel()
	}

	if err := r.jobs.MarkRunning(ctx, job.ID, r.clock.Now()); err != nil {
		logger.Error("failed to mark job running", zap.Error(err))
	}
	logger.Info("harvest started", zap.String("url", job.URL))

	status := storage.JobStatusSuccess
	errMsg := ""
	result, err := r.harvester.Run(ctx, job.URL)
	stats := result.Stats
	if err != nil {
		// Keep whatever counters the crawl managed to accumulate.
		status = storage.JobStatusFailed
		errMsg = err.Error()
		logger.Error("crawl failed", zap.Error(err))
	} else {
		stats.Merge(r.processor.Process(ctx, result.Products))
	}

	finishedAt := r.clock.Now()
	if err := r.jobs.Complete(ctx, job.ID, status, errMsg, stats, finishedAt); err != nil {
		logger.Error("failed to finalize job", zap.Error(err))
	}
	logger.Info("harvest finished",
		zap.String("status", string(status)),
		zap.Int("pages_crawled", stats.PagesCrawled),
		zap.Int("products_stored", stats.ProductsStored),
	)
	metrics.ObserveJob(string(status), stats)

	if err := r.notifier.Notify(ctx, notify.Message{
		JobID:      job.ID,
		URL:        job.URL,
		Status:     status,
		Error:      errMsg,
		Stats:      stats,
		FinishedAt: finishedAt,
	}); err != nil {
		logger.Warn("completion notification failed", zap.Error(err))
	}
}
