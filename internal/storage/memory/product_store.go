// Package memory provides in-memory store implementations used in tests and
// for running the service without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// ProductStore keeps products in memory, keyed by source URL for duplicate
// detection.
type ProductStore struct {
	mu       sync.RWMutex
	nextID   int64
	products []storage.Product
	byURL    map[string]struct{}
}

// NewProductStore returns an empty in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		nextID: 1,
		byURL:  make(map[string]struct{}),
	}
}

// ExistsBySourceURL reports whether a product with the URL is stored.
func (s *ProductStore) ExistsBySourceURL(_ context.Context, sourceURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byURL[sourceURL]
	return ok, nil
}

// Insert stores the product, assigning an id. Returns storage.ErrDuplicate
// when the source URL is already present.
func (s *ProductStore) Insert(_ context.Context, p storage.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byURL[p.SourceURL]; ok {
		return 0, storage.ErrDuplicate
	}
	p.ID = s.nextID
	s.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products = append(s.products, p)
	s.byURL[p.SourceURL] = struct{}{}
	return p.ID, nil
}

// List returns stored products matching the filter, newest first.
func (s *ProductStore) List(_ context.Context, f storage.ProductFilter) ([]storage.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]storage.Product, 0, len(s.products))
	for _, p := range s.products {
		if matchesFilter(p, f) {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Count returns the number of stored products matching the filter,
// ignoring Limit and Offset.
func (s *ProductStore) Count(_ context.Context, f storage.ProductFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.products {
		if matchesFilter(p, f) {
			n++
		}
	}
	return n, nil
}

// FilterValues returns the distinct facet values with product counts.
func (s *ProductStore) FilterValues(_ context.Context) (storage.FilterValues, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fv := storage.FilterValues{
		JewelTypes: make(map[string]int),
		Metals:     make(map[string]int),
		Gemstones:  make(map[string]int),
		Vibes:      make(map[string]int),
	}
	for _, p := range s.products {
		countValue(fv.JewelTypes, p.JewelType)
		countValue(fv.Metals, p.Metal)
		countValue(fv.Gemstones, p.Gemstone)
		countValue(fv.Vibes, p.Vibe)
	}
	return fv, nil
}

func matchesFilter(p storage.Product, f storage.ProductFilter) bool {
	if f.JewelType != "" && p.JewelType != f.JewelType {
		return false
	}
	if f.Metal != "" && p.Metal != f.Metal {
		return false
	}
	if f.Gemstone != "" && p.Gemstone != f.Gemstone {
		return false
	}
	if f.Vibe != "" && p.Vibe != f.Vibe {
		return false
	}
	return true
}

func countValue(m map[string]int, v string) {
	if v == "" {
		return
	}
	m[v]++
}
