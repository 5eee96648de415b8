package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRenderer serves canned pages keyed by normalized URL and records every
// render call so tests can assert the dedup invariant and dispatch order.
type fakeRenderer struct {
	mu    sync.Mutex
	pages map[string]Page
	calls map[string]int
	order []string
}

func newFakeRenderer(pages map[string]Page) *fakeRenderer {
	return &fakeRenderer{pages: pages, calls: make(map[string]int)}
}

func (r *fakeRenderer) Render(_ context.Context, rawURL string) (Page, error) {
	r.mu.Lock()
	r.calls[rawURL]++
	r.order = append(r.order, rawURL)
	r.mu.Unlock()

	page, ok := r.pages[rawURL]
	if !ok {
		return Page{}, fmt.Errorf("no route for %s", rawURL)
	}
	if page.StatusCode == 0 {
		page.StatusCode = 200
	}
	if page.FinalURL == "" {
		page.FinalURL = rawURL
	}
	page.URL = rawURL
	return page, nil
}

func (r *fakeRenderer) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

func (r *fakeRenderer) maxCallsPerURL() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, n := range r.calls {
		if n > max {
			max = n
		}
	}
	return max
}

func productPage(name string) Page {
	return Page{
		Title: name,
		HTML: fmt.Sprintf(`<html><body><h1>%s</h1><span class="price">$1,299.00</span>
			<button>Add to Cart</button><img src="/img/%s.jpg"></body></html>`, name, name),
	}
}

func testSite() map[string]Page {
	var cards strings.Builder
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&cards, `<div class="product-card"><a href="/products/ring-%d"><img src="/img/ring-%d.jpg"></a></div>`, i, i)
	}

	pages := map[string]Page{
		"https://shop.test": {
			Title: "Shop",
			HTML:  `<html><body><nav><a href="/collections/rings">Rings</a></nav></body></html>`,
		},
		"https://shop.test/collections/rings": {
			Title: "Rings",
			HTML:  `<html><body>` + cards.String() + `</body></html>`,
		},
	}
	for i := 1; i <= 6; i++ {
		pages[fmt.Sprintf("https://shop.test/products/ring-%d", i)] = productPage(fmt.Sprintf("ring-%d", i))
	}
	return pages
}

func newTestEngine(t *testing.T, cfg Config, renderer Renderer, probe Fetcher) *Engine {
	t.Helper()
	if probe == nil {
		probe = newFakeFetcher(nil)
	}
	engine, err := NewEngine(cfg, renderer, probe, nil, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestEngineHarvestsProductsThroughCategoryPages(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer(testSite())
	engine := newTestEngine(t, Config{Concurrency: 4, PageBudget: 50}, renderer, nil)

	result, err := engine.Run(context.Background(), "https://shop.test")
	require.NoError(t, err)

	var got []string
	for _, p := range result.Products {
		got = append(got, p.SourceURL)
	}
	want := make([]string, 0, 6)
	for i := 1; i <= 6; i++ {
		want = append(want, fmt.Sprintf("https://shop.test/products/ring-%d", i))
	}
	require.ElementsMatch(t, want, got)

	require.Equal(t, 6, result.Stats.ProductsFound)
	require.Equal(t, 8, result.Stats.PagesCrawled)
	// Every URL is fetched at most once, missing routes included.
	require.Equal(t, 1, renderer.maxCallsPerURL())
}

func TestEngineRespectsPageBudget(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer(testSite())
	engine := newTestEngine(t, Config{Concurrency: 4, PageBudget: 3}, renderer, nil)

	result, err := engine.Run(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.LessOrEqual(t, renderer.totalCalls(), 3)
	require.LessOrEqual(t, result.Stats.PagesCrawled, 3)
}

func TestEngineSeedsSitemapProductsFirst(t *testing.T) {
	t.Parallel()

	probe := newFakeFetcher(map[string]string{
		"https://shop.test/sitemap.xml": `<urlset>
			<url><loc>https://shop.test/products/ring-1</loc></url>
			<url><loc>https://shop.test/products/ring-2</loc></url>
		</urlset>`,
	})
	renderer := newFakeRenderer(map[string]Page{
		"https://shop.test/products/ring-1": productPage("ring-1"),
		"https://shop.test/products/ring-2": productPage("ring-2"),
	})
	engine := newTestEngine(t, Config{Concurrency: 1, PageBudget: 20}, renderer, probe)

	result, err := engine.Run(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.Equal(t, 2, result.Stats.ProductsFound)

	// Sitemap-sourced product URLs carry the top priority, so the first
	// batch is exactly those two URLs.
	require.GreaterOrEqual(t, len(renderer.order), 2)
	require.ElementsMatch(t,
		[]string{"https://shop.test/products/ring-1", "https://shop.test/products/ring-2"},
		renderer.order[:2])
}

func TestEngineCountsFetchFailuresWithoutHalting(t *testing.T) {
	t.Parallel()

	renderer := newFakeRenderer(map[string]Page{
		"https://shop.test": {StatusCode: 503, HTML: "<html></html>"},
	})
	engine := newTestEngine(t, Config{Concurrency: 2, PageBudget: 10}, renderer, nil)

	result, err := engine.Run(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.Empty(t, result.Products)
	require.Equal(t, 0, result.Stats.PagesCrawled)
	require.GreaterOrEqual(t, result.Stats.Errors, 1)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(Config{Concurrency: 0, PageBudget: 10}, newFakeRenderer(nil), newFakeFetcher(nil), nil, zap.NewNop())
	require.Error(t, err)

	_, err = NewEngine(Config{Concurrency: 2, PageBudget: 0}, newFakeRenderer(nil), newFakeFetcher(nil), nil, zap.NewNop())
	require.Error(t, err)
}
