// Package extract pulls structured jewelry metadata out of rendered product
// pages: name, price, metal, gemstone, type, color, and description.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is the raw extraction result, before normalization.
type Metadata struct {
	Name        string
	Price       PriceInfo
	Metal       string
	Gemstone    string
	JewelType   string
	Color       string
	Description string
	Raw         map[string]string
}

// PriceInfo carries the parsed price fields. Amount prefers the sale price
// when the page shows both.
type PriceInfo struct {
	Amount        float64
	HasAmount     bool
	Currency      string
	OriginalPrice float64
	HasOriginal   bool
	SalePrice     float64
	HasSale       bool
}

var (
	metalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(white\s+gold|yellow\s+gold|rose\s+gold|pink\s+gold)\b`),
		regexp.MustCompile(`(?i)\b\d+\s*(?:k|kt|karat)\s*(?:white\s+|yellow\s+|rose\s+)?gold\b`),
		regexp.MustCompile(`(?i)\b(platinum|palladium|sterling\s+silver|silver)\b`),
		regexp.MustCompile(`(?i)\b(titanium|stainless\s+steel)\b`),
	}
	gemstonePattern = regexp.MustCompile(`(?i)\b(diamond|ruby|sapphire|emerald|pearl|amethyst|topaz|garnet|opal|turquoise|aquamarine|peridot|citrine|tanzanite|cubic\s+zirconia|CZ|moissanite)\b`)
	colorPattern    = regexp.MustCompile(`(?i)\b(white|yellow|rose|pink|black|blue|green|red|purple|silver|gold)\b`)
)

// jewelTypeKeywords maps page-text keywords to a jewelry type.
var jewelTypeKeywords = []struct {
	jewelType string
	keywords  []string
}{
	{"ring", []string{"ring", "band"}},
	{"necklace", []string{"necklace", "pendant", "chain"}},
	{"earring", []string{"earring", "stud", "hoop"}},
	{"bracelet", []string{"bracelet", "bangle", "cuff"}},
	{"brooch", []string{"brooch", "pin"}},
	{"anklet", []string{"anklet"}},
	{"watch", []string{"watch"}},
}

// Extract parses a rendered product page and returns its raw metadata.
// pageTitle is the browser title, used as the last-resort product name.
func Extract(html, pageTitle string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Metadata{}, fmt.Errorf("parse product html: %w", err)
	}

	text := doc.Text()
	meta := Metadata{
		Name:        extractName(doc, pageTitle),
		Price:       extractPrice(doc),
		Metal:       extractMetal(text),
		Gemstone:    strings.TrimSpace(gemstonePattern.FindString(text)),
		JewelType:   extractJewelType(text),
		Color:       strings.TrimSpace(colorPattern.FindString(text)),
		Description: extractDescription(doc),
		Raw:         extractRawMetadata(doc),
	}
	return meta, nil
}

func extractName(doc *goquery.Document, pageTitle string) string {
	if v := firstText(doc, "[itemprop='name']"); v != "" {
		return v
	}
	if v, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	for _, sel := range []string{"h1[class*='product']", "h1[class*='title']", "h1"} {
		if v := firstText(doc, sel); v != "" {
			return v
		}
	}
	if strings.TrimSpace(pageTitle) != "" {
		return strings.TrimSpace(pageTitle)
	}
	return "Unknown Product"
}

func extractPrice(doc *goquery.Document) PriceInfo {
	var info PriceInfo

	container := firstMatch(doc,
		"[class*='product-price']", "[class*='product_price']", "[class*='price-wrapper']",
		"div[class*='price']", "span[class*='price']")
	if container != nil {
		if sale := firstMatchSel(container,
			"ins", "[class*='sale-price']", "[class*='discount-price']", "span[class*='sale']"); sale != nil {
			saleText := sale.Text()
			if amount, ok := ParseAmount(saleText); ok {
				info.SalePrice, info.HasSale = amount, true
			}
			if info.Currency == "" {
				info.Currency = DetectCurrency(saleText)
			}
		}
		if orig := firstMatchSel(container,
			"del", "[class*='original-price']", "[class*='regular-price']", "span[class*='mrp']"); orig != nil {
			origText := orig.Text()
			if amount, ok := ParseAmount(origText); ok {
				info.OriginalPrice, info.HasOriginal = amount, true
			}
			if info.Currency == "" {
				info.Currency = DetectCurrency(origText)
			}
		}
		switch {
		case info.HasSale:
			info.Amount, info.HasAmount = info.SalePrice, true
		case info.HasOriginal:
			info.Amount, info.HasAmount = info.OriginalPrice, true
		}
	}

	if !info.HasAmount {
		if el := doc.Find("[itemprop='price']").First(); el.Length() > 0 {
			raw, ok := el.Attr("content")
			if !ok || strings.TrimSpace(raw) == "" {
				raw = el.Text()
			}
			if amount, parsed := ParseAmount(raw); parsed {
				info.Amount, info.HasAmount = amount, true
			}
		}
	}

	if !info.HasAmount && container != nil {
		priceText := container.Text()
		if money := container.Find("[class*='money']").First(); money.Length() > 0 {
			priceText = money.Text()
		}
		if amount, ok := ParseAmount(priceText); ok {
			info.Amount, info.HasAmount = amount, true
		}
		if info.Currency == "" {
			info.Currency = DetectCurrency(priceText)
		}
	}

	if info.Currency == "" {
		if el := doc.Find("[itemprop='priceCurrency']").First(); el.Length() > 0 {
			code, ok := el.Attr("content")
			if !ok || strings.TrimSpace(code) == "" {
				code = el.Text()
			}
			info.Currency = strings.TrimSpace(code)
		}
	}
	return info
}

func extractMetal(text string) string {
	for _, p := range metalPatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func extractJewelType(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range jewelTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.jewelType
			}
		}
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if v := firstText(doc, "[itemprop='description']"); len(v) > 20 {
		return v
	}
	for _, sel := range []string{"meta[property='og:description']", "meta[name='description']"} {
		if v, ok := doc.Find(sel).Attr("content"); ok {
			if trimmed := strings.TrimSpace(v); len(trimmed) > 20 {
				return trimmed
			}
		}
	}
	if v := firstText(doc, "[class*='description']", "[class*='details']"); len(v) > 20 {
		return v
	}
	return ""
}

// extractRawMetadata collects schema.org and Open Graph properties verbatim
// for reference on the stored product record.
func extractRawMetadata(doc *goquery.Document) map[string]string {
	raw := make(map[string]string)
	doc.Find("[itemprop]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("itemprop")
		value, ok := s.Attr("content")
		if !ok || strings.TrimSpace(value) == "" {
			value = s.Text()
		}
		value = strings.TrimSpace(value)
		if prop != "" && value != "" {
			raw["schema_"+prop] = value
		}
	})
	doc.Find("meta[property^='og:']").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		value, _ := s.Attr("content")
		if prop != "" && strings.TrimSpace(value) != "" {
			raw[prop] = strings.TrimSpace(value)
		}
	})
	return raw
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if v := strings.TrimSpace(el.Text()); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			return el
		}
	}
	return nil
}

func firstMatchSel(root *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if el := root.Find(sel).First(); el.Length() > 0 {
			return el
		}
	}
	return nil
}
