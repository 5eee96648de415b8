package crawler

import (
	"sort"
	"strings"
	"sync"
)

// PatternStore is the run-scoped knowledge base of learned URL patterns and
// CSS selectors. It grows monotonically during a run and is discarded at run
// end. Writers go one at a time behind the store's mutex.
type PatternStore struct {
	mu                  sync.Mutex
	urlPatterns         []string
	linkSelectors       map[string]int
	paginationSelectors map[string]int
}

// NewPatternStore returns an empty store.
func NewPatternStore() *PatternStore {
	return &PatternStore{
		linkSelectors:       make(map[string]int),
		paginationSelectors: make(map[string]int),
	}
}

// LearnProductURL records the first path segment of a confirmed product URL
// as a learned URL pattern, if not already present.
func (s *PatternStore) LearnProductURL(rawURL string) {
	seg := firstPathSegment(rawURL)
	if seg == "" {
		return
	}
	pattern := "/" + seg
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.urlPatterns {
		if existing == pattern {
			return
		}
	}
	s.urlPatterns = append(s.urlPatterns, pattern)
}

// URLPatterns returns the learned URL substrings.
func (s *PatternStore) URLPatterns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.urlPatterns))
	copy(out, s.urlPatterns)
	return out
}

// RecordLinkSelector adds hits observed for a product-link selector.
func (s *PatternStore) RecordLinkSelector(selector string, hits int) {
	selector = strings.TrimSpace(selector)
	if selector == "" || hits <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkSelectors[selector] += hits
}

// RecordPaginationSelector adds hits observed for a pagination selector.
func (s *PatternStore) RecordPaginationSelector(selector string, hits int) {
	selector = strings.TrimSpace(selector)
	if selector == "" || hits <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paginationSelectors[selector] += hits
}

// LinkSelectors returns learned product-link selectors ordered by observed
// hit frequency, highest first.
func (s *PatternStore) LinkSelectors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByHits(s.linkSelectors)
}

// PaginationSelectors returns learned pagination selectors by hit frequency.
func (s *PatternStore) PaginationSelectors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByHits(s.paginationSelectors)
}

func sortedByHits(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for sel := range m {
		out = append(out, sel)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
