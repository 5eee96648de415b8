// Package pipeline turns raw product pages into stored, enriched products
// and manages the harvest job lifecycle around a crawl.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/crawler"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/enrich"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/extract"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/normalize"
	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// ImageStore downloads a product's photos and reports the directory key
// and how many images landed.
type ImageStore interface {
	Download(ctx context.Context, sourceURL string, imageURLs []string) (string, int)
}

// ProcessorConfig bounds the processing stage. Its concurrency limit is
// independent of the crawl pool so slow enrichment calls do not stall
// page rendering.
type ProcessorConfig struct {
	Concurrency int
	// MaxProducts caps how many products a single run may store.
	// Zero means unlimited.
	MaxProducts int
}

// Processor runs raw product candidates through extraction, normalization,
// enrichment, image download, and persistence.
type Processor struct {
	cfg      ProcessorConfig
	products storage.ProductStore
	images   ImageStore
	enricher *enrich.Enricher
	logger   *zap.Logger
}

// NewProcessor constructs a processor. The image store may be nil, in
// which case images are not downloaded.
func NewProcessor(cfg ProcessorConfig, products storage.ProductStore, images ImageStore, enricher *enrich.Enricher, logger *zap.Logger) (*Processor, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("processor concurrency must be positive, got %d", cfg.Concurrency)
	}
	if products == nil {
		return nil, fmt.Errorf("product store is required")
	}
	if enricher == nil {
		return nil, fmt.Errorf("enricher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		cfg:      cfg,
		products: products,
		images:   images,
		enricher: enricher,
		logger:   logger,
	}, nil
}

// Process runs every candidate through the pipeline and returns aggregate
// counters. Individual candidate failures are counted, never fatal.
func (p *Processor) Process(ctx context.Context, candidates []crawler.RawProduct) crawler.RunStats {
	var (
		stats   crawler.RunStats
		statsMu sync.Mutex
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, p.cfg.Concurrency)
	slots := newSlotTracker(p.cfg.MaxProducts)
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(raw crawler.RawProduct) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := p.processOne(ctx, raw, slots)
			statsMu.Lock()
			stats.ProductsStored += outcome.stored
			stats.ImagesDownloaded += outcome.images
			stats.Errors += outcome.errors
			statsMu.Unlock()
		}(candidate)
	}
	wg.Wait()
	return stats
}

type outcome struct {
	stored int
	images int
	errors int
}

func (p *Processor) processOne(ctx context.Context, raw crawler.RawProduct, slots *slotTracker) outcome {
	logger := p.logger.With(zap.String("source_url", raw.SourceURL))

	if slots.full() {
		logger.Debug("product cap reached, skipping candidate")
		return outcome{}
	}

	exists, err := p.products.ExistsBySourceURL(ctx, raw.SourceURL)
	if err != nil {
		logger.Error("duplicate check failed", zap.Error(err))
		return outcome{errors: 1}
	}
	if exists {
		logger.Debug("product already stored, skipping")
		return outcome{}
	}

	meta, err := extract.Extract(raw.HTML, raw.Title)
	if err != nil {
		logger.Error("metadata extraction failed", zap.Error(err))
		return outcome{errors: 1}
	}

	product := buildProduct(raw, meta)

	req := enrich.Request{
		Name:      product.Name,
		Metal:     product.Metal,
		Gemstone:  product.Gemstone,
		JewelType: product.JewelType,
	}
	if product.PriceAmount != nil {
		req.PriceAmount = *product.PriceAmount
		req.HasPrice = true
	}
	if len(raw.ImageURLs) > 0 {
		req.ImageURL = raw.ImageURLs[0]
	}
	enrichment, err := p.enricher.Enrich(ctx, req)
	if err != nil {
		var skip *enrich.SkipError
		if errors.As(err, &skip) {
			logger.Info("product rejected during enrichment", zap.String("reason", skip.Reason))
			return outcome{}
		}
		logger.Error("enrichment failed", zap.Error(err))
		return outcome{errors: 1}
	}
	applyEnrichment(&product, enrichment)

	// Reserve a slot under the cap before the expensive side effects so
	// concurrent candidates cannot overshoot the per-run maximum.
	if !slots.reserve() {
		logger.Debug("product cap reached, skipping candidate")
		return outcome{}
	}

	imageCount := 0
	if p.images != nil && len(raw.ImageURLs) > 0 {
		product.ImageDir, imageCount = p.images.Download(ctx, raw.SourceURL, raw.ImageURLs)
	}

	if _, err := p.products.Insert(ctx, product); err != nil {
		slots.release()
		if errors.Is(err, storage.ErrDuplicate) {
			logger.Debug("product stored concurrently, skipping")
			return outcome{images: imageCount}
		}
		logger.Error("product insert failed", zap.Error(err))
		return outcome{images: imageCount, errors: 1}
	}

	logger.Info("product stored",
		zap.String("name", product.Name),
		zap.String("jewel_type", product.JewelType),
		zap.String("vibe", product.Vibe),
		zap.Int("images", imageCount),
	)
	return outcome{stored: 1, images: imageCount}
}

// slotTracker enforces the per-run stored-product cap. Reservations are
// taken before persistence and released when an insert does not land.
type slotTracker struct {
	mu   sync.Mutex
	max  int
	used int
}

func newSlotTracker(max int) *slotTracker {
	return &slotTracker{max: max}
}

func (t *slotTracker) full() bool {
	if t.max <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used >= t.max
}

func (t *slotTracker) reserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.max > 0 && t.used >= t.max {
		return false
	}
	t.used++
	return true
}

func (t *slotTracker) release() {
	t.mu.Lock()
	t.used--
	t.mu.Unlock()
}

func buildProduct(raw crawler.RawProduct, meta extract.Metadata) storage.Product {
	product := storage.Product{
		SourceURL:   raw.SourceURL,
		Name:        meta.Name,
		JewelType:   normalize.JewelType(meta.JewelType),
		Metal:       normalize.Metal(meta.Metal),
		Gemstone:    normalize.Gemstone(meta.Gemstone),
		Color:       normalize.Color(meta.Color),
		Description: meta.Description,
		ImageURLs:   raw.ImageURLs,
		RawMetadata: meta.Raw,
	}
	if meta.Price.HasAmount {
		amount := meta.Price.Amount
		product.PriceAmount = &amount
		product.PriceCurrency = normalize.Currency(meta.Price.Currency)
	}
	return product
}

func applyEnrichment(product *storage.Product, e enrich.Enrichment) {
	if e.JewelryType != "" {
		product.JewelType = normalize.JewelType(e.JewelryType)
	}
	if e.Gemstone != "" && product.Gemstone == "" {
		product.Gemstone = normalize.Gemstone(e.Gemstone)
	}
	product.GemstoneColor = normalize.Color(e.GemstoneColor)
	product.MetalColor = normalize.Color(e.MetalColor)
	product.Summary = e.Summary
	product.Vibe = e.Vibe
}
