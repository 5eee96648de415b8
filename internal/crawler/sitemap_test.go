package crawler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bodies keyed by URL and records every fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	fetched []string
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (int, []byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()
	body, ok := f.bodies[rawURL]
	if !ok {
		return 404, nil, nil
	}
	return 200, []byte(body), nil
}

func (f *fakeFetcher) count(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == rawURL {
			n++
		}
	}
	return n
}

func TestSitemapResolveExpandsNestedIndexExactlyOnce(t *testing.T) {
	t.Parallel()

	index := `<?xml version="1.0"?>
		<sitemapindex>
			<sitemap><loc>https://shop.test/sitemap_products_1.xml</loc></sitemap>
			<sitemap><loc>https://shop.test/sitemap_pages.xml</loc></sitemap>
			<sitemap><loc>https://shop.test/sitemap.xml</loc></sitemap>
		</sitemapindex>`
	productSet := `<?xml version="1.0"?>
		<urlset>
			<url><loc>https://shop.test/products/ring-1</loc></url>
			<url><loc>https://shop.test/products/ring-2</loc></url>
			<url><loc>https://shop.test/products/ring-1</loc></url>
		</urlset>`
	pageSet := `<?xml version="1.0"?>
		<urlset>
			<url><loc>https://shop.test/about</loc></url>
			<url><loc>https://shop.test/p/pendant-9</loc></url>
		</urlset>`

	fetcher := newFakeFetcher(map[string]string{
		"https://shop.test/sitemap.xml":            index,
		"https://shop.test/sitemap_products_1.xml": productSet,
		"https://shop.test/sitemap_pages.xml":      pageSet,
	})

	got, err := NewSitemapResolver(fetcher).Resolve(context.Background(), "https://shop.test")
	require.NoError(t, err)

	// Product URLs surface exactly once; non-product entries are filtered;
	// the self-referencing index entry does not loop.
	require.Equal(t, []string{
		"https://shop.test/products/ring-1",
		"https://shop.test/products/ring-2",
		"https://shop.test/p/pendant-9",
	}, got)
	require.Equal(t, 1, fetcher.count("https://shop.test/sitemap.xml"))
	require.Equal(t, 1, fetcher.count("https://shop.test/sitemap_products_1.xml"))
}

func TestSitemapResolveStopsProbingOnceProductsFound(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{
		"https://shop.test/sitemap.xml": `<?xml version="1.0"?>
			<urlset><url><loc>https://shop.test/products/ring-1</loc></url></urlset>`,
	})

	got, err := NewSitemapResolver(fetcher).Resolve(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.Equal(t, []string{"https://shop.test/products/ring-1"}, got)
	require.Equal(t, 0, fetcher.count("https://shop.test/sitemap_index.xml"))
}

func TestSitemapResolveDepthBound(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{}
	// A chain of nested indexes deeper than the recursion bound, with the
	// product set only at the very bottom.
	for i := 0; i < 6; i++ {
		bodies[fmt.Sprintf("https://shop.test/level-%d.xml", i)] = fmt.Sprintf(
			`<sitemapindex><sitemap><loc>https://shop.test/level-%d.xml</loc></sitemap></sitemapindex>`, i+1)
	}
	bodies["https://shop.test/sitemap.xml"] = `<sitemapindex><sitemap><loc>https://shop.test/level-0.xml</loc></sitemap></sitemapindex>`
	bodies["https://shop.test/level-6.xml"] = `<urlset><url><loc>https://shop.test/products/deep</loc></url></urlset>`

	got, err := NewSitemapResolver(newFakeFetcher(bodies)).Resolve(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.NotContains(t, got, "https://shop.test/products/deep")
}

func TestSitemapResolveNoSitemap(t *testing.T) {
	t.Parallel()

	got, err := NewSitemapResolver(newFakeFetcher(nil)).Resolve(context.Background(), "https://shop.test")
	require.NoError(t, err)
	require.Empty(t, got)
}
