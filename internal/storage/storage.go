// Package storage defines the persistence boundary: harvested products with
// their enriched attributes, and the job records that track each run.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
)

// Sentinel errors shared by every store implementation.
var (
	// ErrDuplicate is returned when a product with the same source URL is
	// already stored. The orchestrator treats it as a skip, not a failure.
	ErrDuplicate = errors.New("product already stored for source url")
	// ErrNotFound is returned for missing job or product records.
	ErrNotFound = errors.New("record not found")
)

// Product is one stored harvest result.
type Product struct {
	ID            int64             `json:"id"`
	SourceURL     string            `json:"source_url"`
	Name          string            `json:"name"`
	JewelType     string            `json:"jewel_type,omitempty"`
	Metal         string            `json:"metal,omitempty"`
	Gemstone      string            `json:"gemstone,omitempty"`
	GemstoneColor string            `json:"gemstone_color,omitempty"`
	MetalColor    string            `json:"metal_color,omitempty"`
	Color         string            `json:"color,omitempty"`
	PriceAmount   *float64          `json:"price_amount,omitempty"`
	PriceCurrency string            `json:"price_currency,omitempty"`
	Description   string            `json:"description,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Vibe          string            `json:"vibe,omitempty"`
	ImageDir      string            `json:"image_dir,omitempty"`
	ImageURLs     []string          `json:"image_urls,omitempty"`
	RawMetadata   map[string]string `json:"raw_metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ProductFilter narrows List results. Zero-valued fields are ignored.
type ProductFilter struct {
	JewelType string
	Metal     string
	Gemstone  string
	Vibe      string
	Limit     int
	Offset    int
}

// FilterValues holds, per facet, the distinct stored values with their
// product counts. The filter API exposes them for faceted browsing.
type FilterValues struct {
	JewelTypes map[string]int `json:"jewel_types"`
	Metals     map[string]int `json:"metals"`
	Gemstones  map[string]int `json:"gemstones"`
	Vibes      map[string]int `json:"vibes"`
}

// JobStatus is the lifecycle state of a harvest job.
type JobStatus string

// Job lifecycle states. Transitions are queued -> running -> success|failed.
const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// Job is one harvest run record.
type Job struct {
	ID         string           `json:"job_id"`
	URL        string           `json:"url"`
	Status     JobStatus        `json:"status"`
	Error      string           `json:"error,omitempty"`
	Stats      crawler.RunStats `json:"stats"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// ProductStore persists harvested products with at-most-once semantics
// keyed by source URL.
type ProductStore interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	// Insert stores a product and returns its id, or ErrDuplicate when the
	// source URL is already present.
	Insert(ctx context.Context, p Product) (int64, error)
	List(ctx context.Context, f ProductFilter) ([]Product, error)
	FilterValues(ctx context.Context) (FilterValues, error)
	Count(ctx context.Context, f ProductFilter) (int, error)
}

// JobStore persists job records.
type JobStore interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, jobID string) (Job, error)
	MarkRunning(ctx context.Context, jobID string, at time.Time) error
	// Complete finalizes a job with its terminal status, optional error
	// message, and the run statistics gathered so far.
	Complete(ctx context.Context, jobID string, status JobStatus, errMsg string, stats crawler.RunStats, at time.Time) error
	List(ctx context.Context, limit int) ([]Job, error)
}
