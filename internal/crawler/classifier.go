package crawler

import (
	"net/url"
	"strings"
)

// Classifier score thresholds. The ordering of the decision rule and these
// values together encode the precision/recall trade-off of the whole engine;
// changing either changes which pages get harvested.
const (
	productScoreThreshold    = 40
	categoryScoreThreshold   = 30
	listingGridCardThreshold = 10
	listingCardThreshold     = 3
	shallowCategoryDepth     = 2
)

// Classify scores a fetched page across independent signals and returns the
// verdict. It is deterministic: identical (url, signals, learned patterns)
// always produce the same result.
func Classify(rawURL string, sig PageSignals, learnedPatterns []string) Classification {
	product, category := scoreSignals(rawURL, sig, learnedPatterns)
	return Classification{
		Type:          Decide(rawURL, product, category, sig.CardCount),
		ProductScore:  product,
		CategoryScore: category,
	}
}

func scoreSignals(rawURL string, sig PageSignals, learnedPatterns []string) (product, category int) {
	if matchesProductKeyword(rawURL, learnedPatterns) {
		product += 20
	}
	if matchesCategoryKeyword(rawURL) && pathDepth(rawURL) <= shallowCategoryDepth {
		category += 20
	}

	if sig.HasProductMarkup {
		product += 30
	}
	if sig.HasCollectionMarkup {
		category += 20
	}

	if sig.HasSchemaPrice {
		product += 15
	} else if sig.HasPriceElement {
		product += 10
	}

	if sig.HasCTAText {
		product += 15
	}
	if sig.HasCTAElement {
		product += 15
	}

	if sig.H1Count == 1 {
		product += 10
	}

	switch {
	case sig.CardCount >= 6:
		category += 30
		product -= 20
	case sig.CardCount >= 3:
		category += 20
		product -= 10
	case sig.CardCount <= 1:
		product += 5
	}

	category += 15 * sig.FilterControlCount

	switch {
	case sig.ImageCount >= 3 && sig.ImageCount <= 15:
		product += 5
	case sig.ImageCount > 15:
		category += 5
	}

	if sig.BreadcrumbLinks >= 3 {
		product += 10
	}

	return product, category
}

// Decide applies the decision rule, in order: an explicit "/product" URL
// substring forces product; then the product threshold; then the category
// threshold, split by card count into a long listing grid versus a curated
// category page; then a bare card count; the root path reads as home;
// everything else is other.
func Decide(rawURL string, productScore, categoryScore, cardCount int) PageType {
	if strings.Contains(strings.ToLower(rawURL), "/product") {
		return PageTypeProduct
	}
	if productScore >= productScoreThreshold {
		return PageTypeProduct
	}
	if categoryScore >= categoryScoreThreshold {
		if cardCount >= listingGridCardThreshold {
			return PageTypeListing
		}
		return PageTypeCategory
	}
	if cardCount >= listingCardThreshold {
		return PageTypeListing
	}
	if isRootPath(rawURL) {
		return PageTypeHome
	}
	return PageTypeOther
}

func isRootPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Path == "" || u.Path == "/"
}
