package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pricefeed_api/internal/feed/catalog"
)

// Store is an in-process catalog. It is safe for concurrent readers once populated.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]*catalog.Product
	categories map[int64]string
	images     map[int64]string
	// terms is keyed by taxonomy, then slug
	terms        map[string]map[string]string
	productTerms map[int64]map[string][]string
	labels       map[string]string
}

var _ catalog.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		products:     make(map[int64]*catalog.Product),
		categories:   make(map[int64]string),
		images:       make(map[int64]string),
		terms:        make(map[string]map[string]string),
		productTerms: make(map[int64]map[string][]string),
		labels:       make(map[string]string),
	}
}

func (s *Store) AddProduct(p *catalog.Product) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return s
}

func (s *Store) AddCategory(id int64, name string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[id] = name
	return s
}

func (s *Store) AddImage(id int64, url string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = url
	return s
}

func (s *Store) AddTerm(taxonomy, slug, name string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms[taxonomy] == nil {
		s.terms[taxonomy] = make(map[string]string)
	}
	s.terms[taxonomy][slug] = name
	return s
}

// AssignTerms attaches taxonomy terms (by slug) to a product.
func (s *Store) AssignTerms(productID int64, taxonomy string, slugs ...string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.productTerms[productID] == nil {
		s.productTerms[productID] = make(map[string][]string)
	}
	s.productTerms[productID][taxonomy] = append(s.productTerms[productID][taxonomy], slugs...)
	return s
}

func (s *Store) AddAttributeLabel(slug, label string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[slug] = label
	return s
}

func (s *Store) Product(_ context.Context, id int64) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id], nil
}

func (s *Store) ProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *catalog.Product
	for _, p := range s.products {
		if p.ParentID != 0 || p.Slug != slug {
			continue
		}
		if found == nil || p.ID < found.ID {
			found = p
		}
	}
	return found, nil
}

func (s *Store) Variations(_ context.Context, parentID int64) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*catalog.Product
	for _, p := range s.products {
		if p.ParentID == parentID && p.Type == catalog.TypeVariation {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) PublishedVariationParents(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []int64
	for _, p := range s.products {
		if p.Type != catalog.TypeVariation || !p.IsPublished() || p.ParentID == 0 {
			continue
		}
		if _, ok := seen[p.ParentID]; ok {
			continue
		}
		seen[p.ParentID] = struct{}{}
		out = append(out, p.ParentID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) List(_ context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[int64]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var matched []*catalog.Product
	for _, p := range s.products {
		if !p.IsPublished() {
			continue
		}
		if p.Type == catalog.TypeVariation && !q.IncludeVariations {
			continue
		}
		if _, ok := excluded[p.ID]; ok {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	result := &catalog.ListResult{Total: len(matched)}
	offset := q.Offset()
	if offset >= len(matched) {
		return result, nil
	}
	end := len(matched)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}
	result.Products = matched[offset:end]
	return result, nil
}

func (s *Store) CategoryName(_ context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories[id], nil
}

func (s *Store) TermName(_ context.Context, taxonomy, slug string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms[taxonomy][slug], nil
}

func (s *Store) ProductTermNames(_ context.Context, productID int64, taxonomy string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slugs := s.productTerms[productID][taxonomy]
	names := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if name, ok := s.terms[taxonomy][slug]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) AttributeLabel(_ context.Context, slug string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[strings.TrimPrefix(slug, catalog.TaxonomyPrefix)], nil
}

func (s *Store) ImageURL(_ context.Context, imageID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images[imageID], nil
}
