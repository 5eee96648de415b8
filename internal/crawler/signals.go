package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSignals is the structured signal bundle the classifier scores. Building
// it once from the parsed document keeps the scoring function pure and
// testable without markup.
type PageSignals struct {
	HasProductMarkup    bool
	HasCollectionMarkup bool
	HasPriceElement     bool
	HasSchemaPrice      bool
	HasCTAText          bool
	HasCTAElement       bool
	H1Count             int
	CardCount           int
	FilterControlCount  int
	ImageCount          int
	BreadcrumbLinks     int
}

// ctaPhrases are purchase calls to action recognized in page text.
var ctaPhrases = []string{"add to cart", "buy now", "add to bag", "purchase", "add to basket"}

// cardSelectors identify product-card-like elements on listing pages.
var cardSelectors = []string{
	".product-card", ".product-item", ".product-tile", ".grid-item",
	"li.product", "[class*='product-grid-item']", "[class*='collection-item']",
}

// filterSelectors identify the filter/sort/refine controls of category pages.
var filterSelectors = []string{
	"[class*='filter']", "[class*='sort']", "[class*='refine']", "[class*='facet']",
}

// ExtractSignals reduces a parsed document to the signal bundle.
func ExtractSignals(doc *goquery.Document) PageSignals {
	sig := PageSignals{}

	doc.Find("[itemtype]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		itemType, _ := s.Attr("itemtype")
		switch {
		case strings.Contains(itemType, "Product"):
			sig.HasProductMarkup = true
		case strings.Contains(itemType, "ItemList"), strings.Contains(itemType, "CollectionPage"):
			sig.HasCollectionMarkup = true
		}
		return !(sig.HasProductMarkup && sig.HasCollectionMarkup)
	})
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, `"Product"`) {
			sig.HasProductMarkup = true
		}
		if strings.Contains(text, `"ItemList"`) || strings.Contains(text, `"CollectionPage"`) {
			sig.HasCollectionMarkup = true
		}
		return !(sig.HasProductMarkup && sig.HasCollectionMarkup)
	})

	if doc.Find("[itemprop='price'], [property='product:price:amount']").Length() > 0 {
		sig.HasSchemaPrice = true
		sig.HasPriceElement = true
	} else if doc.Find("[class*='price'], [class*='Price'], [id*='price']").Length() > 0 {
		sig.HasPriceElement = true
	}

	bodyText := strings.ToLower(doc.Text())
	for _, phrase := range ctaPhrases {
		if strings.Contains(bodyText, phrase) {
			sig.HasCTAText = true
			break
		}
	}
	if doc.Find("button[class*='cart'], button[class*='buy'], [class*='add-to-cart'], form[action*='cart']").Length() > 0 {
		sig.HasCTAElement = true
	}

	sig.H1Count = doc.Find("h1").Length()

	for _, sel := range cardSelectors {
		if n := doc.Find(sel).Length(); n > sig.CardCount {
			sig.CardCount = n
		}
	}

	for _, sel := range filterSelectors {
		if doc.Find(sel).Length() > 0 {
			sig.FilterControlCount++
		}
	}

	sig.ImageCount = doc.Find("img").Length()

	sig.BreadcrumbLinks = doc.Find("[class*='breadcrumb'] a, nav[aria-label='breadcrumb'] a, [itemtype*='BreadcrumbList'] a").Length()

	return sig
}

// productImageSelectors are tried in order when harvesting candidate images.
var productImageSelectors = []string{
	"img[class*='product']",
	"img[class*='gallery']",
	"img[itemprop='image']",
	".product-image img",
	".product-gallery img",
}

// ExtractProductImages returns up to max absolute image URLs for a candidate
// product page, trying each selector until one yields results.
func ExtractProductImages(doc *goquery.Document, pageURL string, max int) []string {
	base, err := parseBase(pageURL)
	if err != nil {
		return nil
	}
	var images []string
	seen := make(map[string]struct{})
	for _, sel := range productImageSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if len(images) >= max {
				return
			}
			src, ok := s.Attr("src")
			if !ok || src == "" || strings.HasPrefix(src, "data:") {
				return
			}
			abs, ok := resolveLink(base, src)
			if !ok {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			images = append(images, abs)
		})
		if len(images) > 0 {
			break
		}
	}
	return images
}
