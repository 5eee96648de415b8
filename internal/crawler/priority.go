package crawler

import "strings"

// Frontier priorities. Higher runs sooner.
const (
	PrioritySitemapProduct = 100
	PriorityCategoryLink   = 95
	PriorityHomepage       = 90
	PrioritySeedCategory   = 85
	PriorityPagination     = 85
	maxGenericPriority     = 90
)

// productURLKeywords mark URLs that very likely lead to a single product.
var productURLKeywords = []string{
	"/product", "/item", "/p/", "/jewelry", "/jewellery", "/ring",
	"/necklace", "/bracelet", "/earring", "/pendant", "/bangle",
}

// categoryURLKeywords mark URLs that likely lead to listings of products.
var categoryURLKeywords = []string{
	"/collection", "/collections", "/category", "/categories", "/shop",
	"/catalog", "/c/", "/browse", "/all",
}

// ScoreGenericLink computes the 0-90 priority for a link discovered on a
// home or otherwise unclassified page. Keyword matches and a URL-depth bonus
// add up; anything on the skip-list scores zero.
func ScoreGenericLink(rawURL string) int {
	if ShouldSkip(rawURL) {
		return 0
	}
	lower := strings.ToLower(rawURL)
	score := 0
	for _, kw := range productURLKeywords {
		if strings.Contains(lower, kw) {
			score += 25
			break
		}
	}
	for _, kw := range categoryURLKeywords {
		if strings.Contains(lower, kw) {
			score += 15
			break
		}
	}
	score += depthBonus(pathDepth(rawURL))
	if score > maxGenericPriority {
		score = maxGenericPriority
	}
	return score
}

// depthBonus favors the shallow-but-not-root paths where catalog structure
// usually lives.
func depthBonus(depth int) int {
	switch depth {
	case 0:
		return 0
	case 1:
		return 10
	case 2, 3:
		return 15
	default:
		return 5
	}
}

// matchesProductKeyword reports whether a URL carries any product keyword,
// static or learned.
func matchesProductKeyword(rawURL string, learned []string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range productURLKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range learned {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matchesCategoryKeyword reports whether a URL carries a category keyword.
func matchesCategoryKeyword(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range categoryURLKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
