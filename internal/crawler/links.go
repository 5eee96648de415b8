package crawler

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// enoughLinks is the short-circuit point of the extraction chain: once a
// strategy has accumulated this many candidates the later fallbacks are
// skipped.
const enoughLinks = 5

// structuralCardSelectors is the fixed list of "product card" selectors the
// second strategy applies.
var structuralCardSelectors = []string{
	".product-card a[href]",
	".product-item a[href]",
	".product-tile a[href]",
	"li.product a[href]",
	".grid-item a[href]",
	"[class*='product-grid'] a[href]",
	"[class*='collection-item'] a[href]",
	"[itemtype*='Product'] a[href]",
}

// ancestorCardClasses qualify an anchor's ancestry for the contextual
// heuristic strategy.
var ancestorCardClasses = []string{"product", "item", "card"}

// linkSet accumulates deduplicated normalized URLs in discovery order.
type linkSet struct {
	seen map[string]struct{}
	urls []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[string]struct{})}
}

func (ls *linkSet) add(url string) {
	if _, dup := ls.seen[url]; dup {
		return
	}
	ls.seen[url] = struct{}{}
	ls.urls = append(ls.urls, url)
}

func (ls *linkSet) len() int { return len(ls.urls) }

// ExtractProductLinks runs the ordered fallback chain for outbound product
// links on a category/listing page: learned selectors, structural card
// selectors, contextual anchor heuristics, and finally image-wrapping
// anchors. Each strategy adds to the shared result set and the chain stops
// early once a strategy leaves enough candidates behind.
func ExtractProductLinks(doc *goquery.Document, pageURL string, patterns *PatternStore) []string {
	base, err := parseBase(pageURL)
	if err != nil {
		return nil
	}
	host := base.Hostname()
	set := newLinkSet()

	// Strategy 1: selectors learned earlier in this run.
	for _, sel := range patterns.LinkSelectors() {
		hits := collectAnchors(doc, sel, base, host, set)
		patterns.RecordLinkSelector(sel, hits)
	}
	if set.len() >= enoughLinks {
		return set.urls
	}

	// Strategy 2: fixed structural product-card selectors.
	for _, sel := range structuralCardSelectors {
		if hits := collectAnchors(doc, sel, base, host, set); hits > 0 {
			patterns.RecordLinkSelector(sel, hits)
		}
	}
	if set.len() >= enoughLinks {
		return set.urls
	}

	// Strategy 3: any same-domain anchor with a product-keyword URL whose
	// ancestor (within 3 levels) carries a product/item/card class.
	learned := patterns.URLPatterns()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !sameDomain(link, host) {
			return
		}
		if !matchesProductKeyword(link, learned) {
			return
		}
		if !hasCardAncestor(s, 3) {
			return
		}
		set.add(link)
	})
	if set.len() >= enoughLinks {
		return set.urls
	}

	// Strategy 4: anchors that wrap an image, at path depth >= 2.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if s.Find("img").Length() == 0 {
			return
		}
		href, _ := s.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !sameDomain(link, host) {
			return
		}
		if pathDepth(link) < 2 {
			return
		}
		set.add(link)
	})

	return set.urls
}

// collectAnchors adds every same-domain anchor matched by sel and returns
// the number of new links it contributed.
func collectAnchors(doc *goquery.Document, sel string, base *url.URL, host string, set *linkSet) int {
	before := set.len()
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			// The selector may have matched the card, not the anchor.
			href, ok = s.Find("a[href]").Attr("href")
			if !ok {
				return
			}
		}
		link, ok := resolveLink(base, href)
		if !ok || !sameDomain(link, host) {
			return
		}
		set.add(link)
	})
	return set.len() - before
}

func hasCardAncestor(s *goquery.Selection, levels int) bool {
	node := s.Parent()
	for i := 0; i < levels && node.Length() > 0; i++ {
		class, _ := node.Attr("class")
		lower := strings.ToLower(class)
		for _, marker := range ancestorCardClasses {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		node = node.Parent()
	}
	return false
}

// ExtractPromisingLinks ranks same-domain links on a home/other page by the
// generic priority heuristic and returns at most max of them, best first.
func ExtractPromisingLinks(doc *goquery.Document, pageURL string, max int) []CrawlTask {
	base, err := parseBase(pageURL)
	if err != nil {
		return nil
	}
	host := base.Hostname()
	set := newLinkSet()
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !sameDomain(link, host) {
			return
		}
		set.add(link)
	})

	tasks := make([]CrawlTask, 0, len(set.urls))
	for _, link := range set.urls {
		if score := ScoreGenericLink(link); score > 0 {
			tasks = append(tasks, CrawlTask{URL: link, Priority: score})
		}
	}
	sortTasksByPriority(tasks)
	if len(tasks) > max {
		tasks = tasks[:max]
	}
	return tasks
}

func sortTasksByPriority(tasks []CrawlTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority > tasks[j].Priority
	})
}

// pageParamNames are the query parameters recognized as page numbers.
var pageParamNames = []string{"page", "p", "pg"}

// commonPaginationSelectors are tried after learned pagination selectors.
var commonPaginationSelectors = []string{
	"a[rel='next']",
	".pagination a[href]",
	".pager a[href]",
	"a.next[href]",
	"li.next a[href]",
	"[class*='pagination'] a[href]",
}

// ExtractPaginationLinks runs the pagination chain: learned selectors,
// rel=next/common selectors, query-parameter synthesis, then literal
// numbered anchors.
func ExtractPaginationLinks(doc *goquery.Document, pageURL string, patterns *PatternStore) []string {
	base, err := parseBase(pageURL)
	if err != nil {
		return nil
	}
	host := base.Hostname()
	set := newLinkSet()

	for _, sel := range patterns.PaginationSelectors() {
		hits := collectAnchors(doc, sel, base, host, set)
		patterns.RecordPaginationSelector(sel, hits)
	}
	if set.len() >= enoughLinks {
		return set.urls
	}

	for _, sel := range commonPaginationSelectors {
		if hits := collectAnchors(doc, sel, base, host, set); hits > 0 {
			patterns.RecordPaginationSelector(sel, hits)
		}
	}
	if set.len() >= enoughLinks {
		return set.urls
	}

	for _, synthesized := range synthesizePageURLs(pageURL, 3) {
		set.add(synthesized)
	}
	if set.len() >= enoughLinks {
		return set.urls
	}

	// Literal numbered anchors ("2", "3", ...).
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if _, err := strconv.Atoi(text); err != nil {
			return
		}
		href, _ := s.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !sameDomain(link, host) {
			return
		}
		set.add(link)
	})

	return set.urls
}

// synthesizePageURLs increments a known page parameter on the current URL
// and returns the next n page URLs. When no page parameter is present the
// first known name is seeded at page 2.
func synthesizePageURLs(pageURL string, n int) []string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	q := u.Query()
	param := ""
	current := 1
	for _, name := range pageParamNames {
		if v := q.Get(name); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				param = name
				current = parsed
				break
			}
		}
	}
	if param == "" {
		param = pageParamNames[0]
	}

	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		next := *u
		nq := next.Query()
		nq.Set(param, strconv.Itoa(current+i))
		next.RawQuery = nq.Encode()
		if normalized, err := NormalizeURL(next.String()); err == nil {
			out = append(out, normalized)
		}
	}
	return out
}
