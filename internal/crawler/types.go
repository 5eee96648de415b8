// Package crawler implements the autonomous crawl engine: the frontier
// scheduler, the page classifier, the link extraction strategies, and the
// in-run pattern learning loop.
package crawler

import "time"

// PageType is the classifier verdict for a fetched page.
type PageType string

// Page type verdicts.
const (
	PageTypeProduct  PageType = "product"
	PageTypeCategory PageType = "category"
	PageTypeListing  PageType = "listing"
	PageTypeHome     PageType = "home"
	PageTypeOther    PageType = "other"
)

// CrawlTask is one unit of scheduled work. Tasks are created when a link is
// discovered or the queue is seeded and are consumed exactly once.
type CrawlTask struct {
	URL      string
	Priority int
	Expected PageType

	// seq preserves discovery order for priority tie-breaking.
	seq int
}

// Classification is the verdict for one fetched page, together with the raw
// scores that produced it.
type Classification struct {
	Type          PageType
	ProductScore  int
	CategoryScore int
}

// Page is the rendered result returned by the Render Fetcher.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Title      string
	HTML       string
	Links      []string
	Duration   time.Duration
}

// RawProduct is a harvested candidate: a page the classifier judged to be a
// single product. It is immutable once produced and ownership transfers to
// the processing pipeline.
type RawProduct struct {
	SourceURL string
	Title     string
	HTML      string
	ImageURLs []string
}

// RunStats aggregates the counters surfaced on the job record.
type RunStats struct {
	PagesCrawled     int `json:"pages_crawled"`
	ProductsFound    int `json:"products_found"`
	ProductsStored   int `json:"products_stored"`
	ImagesDownloaded int `json:"images_downloaded"`
	Errors           int `json:"errors"`
}

// Merge adds the counters from other into s.
func (s *RunStats) Merge(other RunStats) {
	s.PagesCrawled += other.PagesCrawled
	s.ProductsFound += other.ProductsFound
	s.ProductsStored += other.ProductsStored
	s.ImagesDownloaded += other.ImagesDownloaded
	s.Errors += other.Errors
}
