package normalize

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"pricefeed_api/config/values"
	"pricefeed_api/internal/feed/catalog"
)

type Options struct {
	ShopURL         string
	SubtitleMetaKey string
	Aliases         values.SpecAliases
}

// Normalizer flattens catalog products into feed records. Catalog lookups that fail are
// logged and leave the affected fields empty.
type Normalizer struct {
	store       catalog.Store
	shopURL     string
	subtitleKey string
	aliases     aliasTable
	log         *zap.Logger
}

func New(store catalog.Store, opts Options, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		store:       store,
		shopURL:     strings.TrimRight(opts.ShopURL, "/"),
		subtitleKey: opts.SubtitleMetaKey,
		aliases:     newAliasTable(opts.Aliases),
		log:         logger.Named("normalize"),
	}
}

// Normalize builds the record of p. With isVariant set, p is a variation and the shared
// fields are taken from its parent.
func (n *Normalizer) Normalize(ctx context.Context, p *catalog.Product, isVariant bool) *Record {
	rec := &Record{
		PageUnique:   p.ID,
		CurrentPrice: p.Price,
		OldPrice:     p.RegularPrice,
		Availability: p.StockStatus,
		ShortDesc:    p.ShortDescription,
	}
	if !p.DateCreated.IsZero() {
		created := p.DateCreated
		rec.Date = &created
	}

	owner := p
	var parent *catalog.Product
	if isVariant {
		parent = n.parent(ctx, p)
		if parent != nil {
			owner = parent
			rec.ParentID = parent.ID
		} else {
			rec.ParentID = p.ParentID
		}
	}
	rec.Title = owner.Name
	rec.Subtitle = owner.MetaValue(n.subtitleKey)
	rec.CategoryName = n.categoryName(ctx, owner)
	rec.ImageLink = n.imageLink(ctx, p, parent)
	rec.PageURL = n.permalink(p, parent)
	if rec.ShortDesc == "" && parent != nil {
		rec.ShortDesc = parent.ShortDescription
	}

	spec := NewSpecTable()
	switch {
	case isVariant:
		n.addSelectedAttributes(ctx, spec, p.VariationAttributes)
	case p.IsVariable():
		variations := n.variations(ctx, p)
		rec.CurrentPrice, rec.OldPrice, rec.Availability = variablePrices(p, variations)
		n.addSelectedAttributes(ctx, spec, p.DefaultAttributes)
		n.addVisibleAttributes(ctx, spec, p)
	default:
		n.addVisibleAttributes(ctx, spec, p)
	}

	rec.Registry = lookup(spec, n.aliases.registry)
	rec.Guarantee = lookup(spec, n.aliases.guarantee)

	sku := p.SKU
	if sku == "" && parent != nil {
		sku = parent.SKU
	}
	if sku != "" && !n.aliases.hasIdentifier(spec) {
		spec.Set(n.aliases.identifierKey, sku)
	}

	rec.Spec = []*SpecTable{}
	if spec.Len() > 0 {
		rec.Spec = append(rec.Spec, spec)
	}
	return rec
}

func (n *Normalizer) parent(ctx context.Context, p *catalog.Product) *catalog.Product {
	if p.ParentID == 0 {
		return nil
	}
	parent, err := n.store.Product(ctx, p.ParentID)
	if err != nil {
		n.log.Warn("failed to load parent product",
			zap.Int64("product_id", p.ID), zap.Int64("parent_id", p.ParentID), zap.Error(err))
		return nil
	}
	return parent
}

func (n *Normalizer) variations(ctx context.Context, p *catalog.Product) []*catalog.Product {
	variations, err := n.store.Variations(ctx, p.ID)
	if err != nil {
		n.log.Warn("failed to load variations", zap.Int64("product_id", p.ID), zap.Error(err))
		return nil
	}
	return variations
}

// categoryName resolves the last category of p.
func (n *Normalizer) categoryName(ctx context.Context, p *catalog.Product) *string {
	if len(p.CategoryIDs) == 0 {
		return nil
	}
	id := p.CategoryIDs[len(p.CategoryIDs)-1]
	name, err := n.store.CategoryName(ctx, id)
	if err != nil {
		n.log.Warn("failed to resolve category", zap.Int64("category_id", id), zap.Error(err))
		return nil
	}
	if name == "" {
		return nil
	}
	return &name
}

func (n *Normalizer) imageLink(ctx context.Context, p, parent *catalog.Product) *string {
	imageID := p.ImageID
	if imageID == 0 && parent != nil {
		imageID = parent.ImageID
	}
	if imageID == 0 {
		return nil
	}
	url, err := n.store.ImageURL(ctx, imageID)
	if err != nil {
		n.log.Warn("failed to resolve image", zap.Int64("image_id", imageID), zap.Error(err))
		return nil
	}
	if url == "" {
		return nil
	}
	return &url
}
