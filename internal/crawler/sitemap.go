package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// maxSitemapDepth bounds recursive sitemap-index expansion. Nested indexes
// can reference each other, so the resolver also tracks visited sitemap URLs
// separately from page URLs.
const maxSitemapDepth = 3

// wellKnownSitemapPaths are probed in order until one yields product URLs.
var wellKnownSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemap_products_1.xml",
	"/wp-sitemap.xml",
}

// narrowProductKeywords is the stricter keyword check applied to sitemap
// entries, where URL text is the only available signal.
var narrowProductKeywords = []string{"/product", "/item", "/p/"}

type sitemapIndex struct {
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	URLs []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// SitemapResolver discovers product URLs from a site's sitemap tree using a
// plain HTTP fetcher.
type SitemapResolver struct {
	fetcher Fetcher
}

// NewSitemapResolver builds a resolver over the given fetcher.
func NewSitemapResolver(fetcher Fetcher) *SitemapResolver {
	return &SitemapResolver{fetcher: fetcher}
}

// Resolve probes the well-known sitemap paths of baseURL and returns every
// discoverable product URL exactly once. Probing stops as soon as any path
// yields product URLs.
func (r *SitemapResolver) Resolve(ctx context.Context, baseURL string) ([]string, error) {
	root, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	visited := make(map[string]struct{})
	found := newLinkSet()

	for _, path := range wellKnownSitemapPaths {
		probe := *root
		probe.Path = path
		probe.RawQuery = ""
		if err := r.expand(ctx, probe.String(), visited, found, 0); err != nil {
			continue
		}
		if found.len() > 0 {
			break
		}
	}
	return found.urls, nil
}

// expand fetches one sitemap document and recurses into nested indexes.
func (r *SitemapResolver) expand(ctx context.Context, sitemapURL string, visited map[string]struct{}, found *linkSet, depth int) error {
	if depth > maxSitemapDepth {
		return nil
	}
	normalized, err := NormalizeURL(sitemapURL)
	if err != nil {
		return fmt.Errorf("normalize sitemap url: %w", err)
	}
	if _, seen := visited[normalized]; seen {
		return nil
	}
	visited[normalized] = struct{}{}

	status, body, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return fmt.Errorf("fetch sitemap: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("sitemap fetch status %d", status)
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		for _, ref := range index.Sitemaps {
			loc := strings.TrimSpace(ref.Loc)
			if loc == "" {
				continue
			}
			// Nested index failures should not abandon siblings.
			_ = r.expand(ctx, loc, visited, found, depth+1)
		}
		return nil
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return fmt.Errorf("parse sitemap xml: %w", err)
	}
	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" || !isNarrowProductURL(loc) {
			continue
		}
		if normalized, err := NormalizeURL(loc); err == nil {
			found.add(normalized)
		}
	}
	return nil
}

func isNarrowProductURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range narrowProductKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
