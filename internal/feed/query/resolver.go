package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pricefeed_api/internal/feed/catalog"
)

type Mode string

const (
	ModeIDs     Mode = "ids"
	ModeSlugs   Mode = "slugs"
	ModeCatalog Mode = "catalog"
)

// Params selects the products of one feed request. IDs take precedence over Slugs;
// with neither set the whole catalog is paginated.
type Params struct {
	IDs        []int64
	Slugs      []string
	Variations bool
	Limit      int
	Page       int
}

func (p Params) Mode() Mode {
	switch {
	case len(p.IDs) > 0:
		return ModeIDs
	case len(p.Slugs) > 0:
		return ModeSlugs
	default:
		return ModeCatalog
	}
}

// Item is a product to normalize. IsVariant marks variations.
type Item struct {
	Product   *catalog.Product
	IsVariant bool
}

type Result struct {
	Mode  Mode
	Items []Item
	// Count and MaxPages are only set in catalog mode.
	Count    int
	MaxPages int
}

func (r *Result) Paginated() bool {
	return r.Mode == ModeCatalog
}

type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Resolver picks the raw product set of a request. Unpublished entries never make it out.
type Resolver struct {
	store  catalog.ProductReader
	limits Limits
	log    *zap.Logger
}

func NewResolver(store catalog.ProductReader, limits Limits, logger *zap.Logger) *Resolver {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = 10
	}
	return &Resolver{store: store, limits: limits, log: logger.Named("query")}
}

func (r *Resolver) Resolve(ctx context.Context, p Params) (*Result, error) {
	mode := p.Mode()
	var (
		res *Result
		err error
	)
	switch mode {
	case ModeIDs:
		res, err = r.byIDs(ctx, p.IDs)
	case ModeSlugs:
		res, err = r.bySlugs(ctx, p.Slugs)
	default:
		res, err = r.catalogPage(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	r.log.Debug("products resolved", zap.String("mode", string(mode)), zap.Int("items", len(res.Items)))
	return res, nil
}

func (r *Resolver) byIDs(ctx context.Context, ids []int64) (*Result, error) {
	res := &Result{Mode: ModeIDs, Items: []Item{}}
	for _, id := range ids {
		p, err := r.store.Product(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %d: %w", id, err)
		}
		if p == nil || !p.IsPublished() {
			continue
		}
		if item, ok := itemFor(p, false); ok {
			res.Items = append(res.Items, item)
		}
	}
	return res, nil
}

func (r *Resolver) bySlugs(ctx context.Context, slugs []string) (*Result, error) {
	res := &Result{Mode: ModeSlugs, Items: []Item{}}
	for _, slug := range slugs {
		p, err := r.store.ProductBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %q: %w", slug, err)
		}
		if p == nil || !p.IsPublished() {
			continue
		}
		res.Items = append(res.Items, Item{Product: p})
	}
	return res, nil
}

func (r *Resolver) catalogPage(ctx context.Context, p Params) (*Result, error) {
	q := catalog.ListQuery{
		IncludeVariations: p.Variations,
		Limit:             r.pageSize(p.Limit),
		Page:              p.Page,
	}
	if q.Page < 1 {
		q.Page = 1
	}

	if p.Variations {
		parents, err := r.store.PublishedVariationParents(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load variation parents: %w", err)
		}
		q.ExcludeIDs = parents
	}

	list, err := r.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	res := &Result{
		Mode:     ModeCatalog,
		Items:    []Item{},
		Count:    list.Total,
		MaxPages: (list.Total + q.Limit - 1) / q.Limit,
	}
	for _, product := range list.Products {
		if item, ok := itemFor(product, p.Variations); ok {
			res.Items = append(res.Items, item)
		}
	}
	return res, nil
}

// itemFor classifies a published product. Variations need a price; variable products are
// dropped when their variations are listed on their own.
func itemFor(p *catalog.Product, expand bool) (Item, bool) {
	if p.ParentID != 0 {
		if !p.HasPrice() {
			return Item{}, false
		}
		return Item{Product: p, IsVariant: true}, true
	}
	if expand && p.IsVariable() {
		return Item{}, false
	}
	return Item{Product: p}, true
}

func (r *Resolver) pageSize(limit int) int {
	if limit <= 0 {
		return r.limits.DefaultPageSize
	}
	if r.limits.MaxPageSize > 0 && limit > r.limits.MaxPageSize {
		return r.limits.MaxPageSize
	}
	return limit
}
