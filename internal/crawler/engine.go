package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// promisingLinkCap limits how many generic links a home/other page may feed
// back into the frontier.
const promisingLinkCap = 20

// commonCatalogPaths are seeded alongside the homepage when a site exposes
// no usable sitemap.
var commonCatalogPaths = []string{"/products", "/collections", "/collections/all", "/shop", "/catalog"}

// Config holds the crawl-session knobs. It is decoupled from Viper so the
// engine stays testable on its own.
type Config struct {
	Concurrency         int
	PageBudget          int
	MaxImagesPerProduct int
}

// Result is everything one crawl run produces.
type Result struct {
	Products []RawProduct
	Stats    RunStats
}

// Engine drains the frontier against the Render Fetcher with a fixed
// concurrency ceiling, classifying pages and feeding discovered links back in
// until the frontier empties or the page budget is reached.
type Engine struct {
	cfg      Config
	renderer Renderer
	sitemap  *SitemapResolver
	analyst  StructureAnalyst
	retry    *RetryPolicy
	logger   *zap.Logger
}

// NewEngine constructs an Engine. The analyst may be nil; the sitemap
// resolver probe uses the plain fetcher.
func NewEngine(cfg Config, renderer Renderer, probe Fetcher, analyst StructureAnalyst, logger *zap.Logger) (*Engine, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("crawl concurrency must be > 0")
	}
	if cfg.PageBudget <= 0 {
		return nil, fmt.Errorf("page budget must be > 0")
	}
	if cfg.MaxImagesPerProduct <= 0 {
		cfg.MaxImagesPerProduct = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		renderer: renderer,
		sitemap:  NewSitemapResolver(probe),
		analyst:  analyst,
		retry:    NewRetryPolicy(),
		logger:   logger,
	}, nil
}

// Run crawls baseURL until the frontier empties or the page budget is
// reached, and returns all validated product candidates in discovery order.
func (e *Engine) Run(ctx context.Context, baseURL string) (Result, error) {
	normalized, err := NormalizeURL(baseURL)
	if err != nil {
		return Result{}, fmt.Errorf("normalize base url: %w", err)
	}

	frontier := NewFrontier(e.cfg.PageBudget)
	patterns := NewPatternStore()
	e.seed(ctx, frontier, normalized)

	var (
		mu       sync.Mutex
		products []RawProduct
	)
	sem := make(chan struct{}, e.cfg.Concurrency)

	for ctx.Err() == nil {
		batchSize := minInt(2*e.cfg.Concurrency, frontier.Len(), frontier.Remaining())
		batch := frontier.PopBatch(batchSize)
		if len(batch) == 0 {
			break
		}

		var (
			wg         sync.WaitGroup
			discovered []CrawlTask
		)
		for _, task := range batch {
			wg.Add(1)
			go func(task CrawlTask) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}
				found, candidate := e.processTask(ctx, task, frontier, patterns)
				mu.Lock()
				discovered = append(discovered, found...)
				if candidate != nil {
					products = append(products, *candidate)
				}
				mu.Unlock()
			}(task)
		}
		wg.Wait()

		frontier.Merge(discovered)
	}

	stats := frontier.Stats()
	e.logger.Info("crawl finished",
		zap.String("base_url", normalized),
		zap.Int("pages_crawled", stats.PagesCrawled),
		zap.Int("products_found", stats.ProductsFound),
		zap.Int("errors", stats.Errors),
	)
	return Result{Products: products, Stats: stats}, nil
}

// seed fills the frontier from the sitemap probe, the homepage, and the
// common catalog paths.
func (e *Engine) seed(ctx context.Context, frontier *Frontier, baseURL string) {
	seeds := []CrawlTask{{URL: baseURL, Priority: PriorityHomepage, Expected: PageTypeHome}}

	productURLs, err := e.sitemap.Resolve(ctx, baseURL)
	if err != nil {
		e.logger.Debug("sitemap probe failed", zap.Error(err))
	}
	for _, u := range productURLs {
		if sameDomainURLs(u, baseURL) {
			seeds = append(seeds, CrawlTask{URL: u, Priority: PrioritySitemapProduct, Expected: PageTypeProduct})
		}
	}

	for _, path := range commonCatalogPaths {
		seeds = append(seeds, CrawlTask{
			URL:      strings.TrimSuffix(baseURL, "/") + path,
			Priority: PrioritySeedCategory,
			Expected: PageTypeCategory,
		})
	}

	frontier.Seed(seeds)
	e.logger.Info("frontier seeded",
		zap.Int("sitemap_products", len(productURLs)),
		zap.Int("queued", frontier.Len()),
	)
}

// processTask runs one frontier task end to end and returns the tasks it
// discovered plus the product candidate, if any. Failures are isolated: they
// are counted and logged, never propagated to sibling workers.
func (e *Engine) processTask(ctx context.Context, task CrawlTask, frontier *Frontier, patterns *PatternStore) ([]CrawlTask, *RawProduct) {
	if !frontier.MarkVisited(task.URL) {
		return nil, nil
	}

	page, err := e.renderer.Render(ctx, task.URL)
	if err != nil {
		frontier.RecordError()
		e.logger.Warn("fetch failed", zap.String("url", task.URL), zap.Error(err))
		return nil, nil
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		frontier.RecordError()
		e.logger.Warn("fetch returned non-2xx", zap.String("url", task.URL), zap.Int("status", page.StatusCode))
		return nil, nil
	}
	frontier.RecordPageCrawled()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		frontier.RecordError()
		e.logger.Warn("parse failed", zap.String("url", task.URL), zap.Error(err))
		return nil, nil
	}

	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = task.URL
	}

	sig := ExtractSignals(doc)
	cls := Classify(pageURL, sig, patterns.URLPatterns())
	e.logger.Debug("page classified",
		zap.String("url", pageURL),
		zap.String("type", string(cls.Type)),
		zap.Int("product_score", cls.ProductScore),
		zap.Int("category_score", cls.CategoryScore),
	)

	switch cls.Type {
	case PageTypeProduct:
		candidate := RawProduct{
			SourceURL: pageURL,
			Title:     page.Title,
			HTML:      page.HTML,
			ImageURLs: ExtractProductImages(doc, pageURL, e.cfg.MaxImagesPerProduct),
		}
		if !ValidateProduct(candidate) {
			e.logger.Debug("candidate failed validation, downgraded", zap.String("url", pageURL))
			return nil, nil
		}
		patterns.LearnProductURL(pageURL)
		frontier.RecordProductFound()
		return nil, &candidate

	case PageTypeCategory, PageTypeListing:
		var tasks []CrawlTask
		for _, link := range ExtractProductLinks(doc, pageURL, patterns) {
			tasks = append(tasks, CrawlTask{URL: link, Priority: PriorityCategoryLink, Expected: PageTypeProduct})
		}
		for _, link := range ExtractPaginationLinks(doc, pageURL, patterns) {
			tasks = append(tasks, CrawlTask{URL: link, Priority: PriorityPagination, Expected: PageTypeListing})
		}
		return tasks, nil

	case PageTypeHome:
		analyzeHomepage(ctx, doc, page.HTML, patterns, e.analyst, e.retry, e.logger)
		return e.promisingTasks(page, doc, pageURL), nil

	default:
		return e.promisingTasks(page, doc, pageURL), nil
	}
}

// promisingTasks ranks generic outbound links, preferring the renderer's
// resolved link set when it provided one.
func (e *Engine) promisingTasks(page Page, doc *goquery.Document, pageURL string) []CrawlTask {
	if len(page.Links) > 0 {
		base, err := parseBase(pageURL)
		if err != nil {
			return nil
		}
		set := newLinkSet()
		for _, href := range page.Links {
			if link, ok := resolveLink(base, href); ok && sameDomain(link, base.Hostname()) {
				set.add(link)
			}
		}
		tasks := make([]CrawlTask, 0, len(set.urls))
		for _, link := range set.urls {
			if score := ScoreGenericLink(link); score > 0 {
				tasks = append(tasks, CrawlTask{URL: link, Priority: score})
			}
		}
		sortTasksByPriority(tasks)
		if len(tasks) > promisingLinkCap {
			tasks = tasks[:promisingLinkCap]
		}
		return tasks
	}
	return ExtractPromisingLinks(doc, pageURL, promisingLinkCap)
}

func sameDomainURLs(a, b string) bool {
	base, err := parseBase(b)
	if err != nil {
		return false
	}
	return sameDomain(a, base.Hostname())
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
