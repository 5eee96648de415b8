// Package metrics exposes Prometheus collectors for the harvester service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
)

var (
	harvestJobsTotal           *prometheus.CounterVec
	harvestPagesCrawledTotal   prometheus.Counter
	harvestProductsFoundTotal  prometheus.Counter
	harvestProductsStoredTotal prometheus.Counter
	harvestImagesTotal         prometheus.Counter
	harvestErrorsTotal         prometheus.Counter
	harvestActiveJobs          prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		harvestJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_jobs_total",
				Help: "Total number of harvest jobs finished, labeled by status.",
			},
			[]string{"status"},
		)

		harvestPagesCrawledTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_pages_crawled_total",
				Help: "Total number of pages rendered across all harvest jobs.",
			},
		)

		harvestProductsFoundTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_products_found_total",
				Help: "Total number of validated product pages discovered.",
			},
		)

		harvestProductsStoredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_products_stored_total",
				Help: "Total number of products persisted.",
			},
		)

		harvestImagesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_images_downloaded_total",
				Help: "Total number of product images downloaded.",
			},
		)

		harvestErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvest_errors_total",
				Help: "Total number of page and pipeline errors across jobs.",
			},
		)

		harvestActiveJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_active_jobs",
				Help: "Number of harvest jobs currently running.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveJob records a finished job and folds its run counters into the
// aggregate totals.
func ObserveJob(status string, stats crawler.RunStats) {
	Init()
	harvestJobsTotal.WithLabelValues(status).Inc()
	harvestPagesCrawledTotal.Add(float64(stats.PagesCrawled))
	harvestProductsFoundTotal.Add(float64(stats.ProductsFound))
	harvestProductsStoredTotal.Add(float64(stats.ProductsStored))
	harvestImagesTotal.Add(float64(stats.ImagesDownloaded))
	harvestErrorsTotal.Add(float64(stats.Errors))
}

// IncActiveJobs increments the active jobs gauge.
func IncActiveJobs() {
	Init()
	harvestActiveJobs.Inc()
}

// DecActiveJobs decrements the active jobs gauge.
func DecActiveJobs() {
	Init()
	harvestActiveJobs.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
