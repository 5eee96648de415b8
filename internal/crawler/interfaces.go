package crawler

import "context"

// Renderer fetches a URL with a real browser, waits for dynamic content to
// settle, scrolls to the bottom to surface lazy-loaded elements, and returns
// the rendered DOM together with every resolved link on the page.
type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
}

// Fetcher performs a plain HTTP GET with no JavaScript execution. The sitemap
// resolver uses it for XML documents where rendering would be wasted work.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (status int, body []byte, err error)
}

// StructureAnalyst is the optional AI collaborator consulted during homepage
// analysis. It proposes CSS selectors likely to wrap product links. Absence
// of the analyst must never abort a run.
type StructureAnalyst interface {
	AnalyzeStructure(ctx context.Context, html string) ([]string, error)
}
