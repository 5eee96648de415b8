package crawler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// topSelectorCount limits how many class-frequency selectors homepage
// analysis may learn.
const topSelectorCount = 5

// selectorKeywords qualify an anchor class token as product-structure
// vocabulary worth learning.
var selectorKeywords = []string{"product", "item", "card", "tile", "collection"}

// analyzeHomepage seeds the pattern store from the rendered homepage. It
// samples anchor class-name frequency, keeping the top selectors whose class
// matches structure vocabulary, and optionally consults the AI structure
// analyst with bounded retry. Analyst failure is logged and ignored.
func analyzeHomepage(ctx context.Context, doc *goquery.Document, html string, patterns *PatternStore, analyst StructureAnalyst, retry *RetryPolicy, logger *zap.Logger) {
	learnAnchorClassSelectors(doc, patterns)

	if analyst == nil {
		return
	}
	selectors, err := analyzeWithRetry(ctx, analyst, html, retry)
	if err != nil {
		logger.Warn("structure analysis unavailable", zap.Error(err))
		return
	}
	for _, sel := range selectors {
		patterns.RecordLinkSelector(sel, 1)
	}
}

func learnAnchorClassSelectors(doc *goquery.Document, patterns *PatternStore) {
	counts := make(map[string]int)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		class, ok := s.Attr("class")
		if !ok {
			return
		}
		for _, token := range strings.Fields(class) {
			lower := strings.ToLower(token)
			for _, kw := range selectorKeywords {
				if strings.Contains(lower, kw) {
					counts[token]++
					break
				}
			}
		}
	})

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > topSelectorCount {
		tokens = tokens[:topSelectorCount]
	}
	for _, token := range tokens {
		patterns.RecordLinkSelector("a."+token, counts[token])
	}
}

func analyzeWithRetry(ctx context.Context, analyst StructureAnalyst, html string, retry *RetryPolicy) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < retry.MaxAttempts(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retry.Backoff(attempt)):
			}
		}
		selectors, err := analyst.AnalyzeStructure(ctx, html)
		if err == nil {
			return selectors, nil
		}
		lastErr = err
		if !retry.ShouldRetry(err, attempt+1) {
			break
		}
	}
	return nil, lastErr
}
