package crawler

import "strings"

// currencyMarkers are price indicators accepted by the validation heuristic.
var currencyMarkers = []string{"$", "€", "£", "₹", "¥", "usd", "eur", "gbp", "inr"}

// ValidateProduct runs the product heuristic on a candidate: it passes when
// at least one indicator is present — a currency/price symbol, a purchase
// call-to-action phrase, the literal substring "product", or a discovered
// image. A failing candidate is downgraded to "other" and dropped.
func ValidateProduct(candidate RawProduct) bool {
	lower := strings.ToLower(candidate.HTML)

	for _, marker := range currencyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if strings.Contains(lower, "product") {
		return true
	}
	return len(candidate.ImageURLs) >= 1
}
