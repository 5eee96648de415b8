package crawler

import "strings"

// skipPathPatterns mark URLs that are never worth a fetch: transactional
// flows, account pages, and legal boilerplate.
var skipPathPatterns = []string{
	"/checkout", "/cart", "/basket", "/login", "/signin", "/sign-in",
	"/register", "/signup", "/sign-up", "/account", "/wishlist",
	"/privacy", "/terms", "/refund", "/shipping-policy", "/track",
	"/customer-service", "/help", "/faq", "/blog", "/careers",
}

// skipExtensions mark static assets and documents.
var skipExtensions = []string{
	".css", ".js", ".json", ".xml", ".ico", ".svg", ".png", ".jpg",
	".jpeg", ".gif", ".webp", ".woff", ".woff2", ".ttf", ".pdf", ".zip",
}

// skipSchemes are non-HTTP link targets that show up in href attributes.
var skipSchemes = []string{"mailto:", "tel:", "javascript:"}

// ShouldSkip reports whether a URL matches the static skip-list and must be
// dropped without a fetch.
func ShouldSkip(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, scheme := range skipSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, pattern := range skipPathPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
