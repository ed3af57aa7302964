package normalize

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"pricefeed_api/internal/feed/catalog"
)

const variationKeyPrefix = "attribute_"

// addSelectedAttributes writes chosen attribute options (of a variation or the defaults of
// a variable product). Empty options are skipped.
func (n *Normalizer) addSelectedAttributes(ctx context.Context, spec *SpecTable, selected catalog.AttributeValues) {
	for _, pair := range selected {
		if pair.Value == "" {
			continue
		}
		key := strings.TrimPrefix(pair.Key, variationKeyPrefix)
		value := pair.Value
		if catalog.IsTaxonomy(key) {
			value = n.termName(ctx, key, value)
			key = n.attributeLabel(ctx, key)
		}
		spec.Set(decodeKey(key), decodeValue(value))
	}
}

// addVisibleAttributes writes the visible attributes of p without overwriting keys
// already present.
func (n *Normalizer) addVisibleAttributes(ctx context.Context, spec *SpecTable, p *catalog.Product) {
	for _, attr := range p.Attributes {
		if !attr.Visible {
			continue
		}
		name := attr.Name
		values := attr.Options
		if catalog.IsTaxonomy(attr.Name) {
			name = n.attributeLabel(ctx, attr.Name)
			values = n.productTermNames(ctx, p.ID, attr.Name)
		}
		spec.SetIfAbsent(name, strings.Join(values, ", "))
	}
}

func (n *Normalizer) termName(ctx context.Context, taxonomy, slug string) string {
	name, err := n.store.TermName(ctx, taxonomy, slug)
	if err != nil {
		n.log.Warn("failed to resolve term", zap.String("taxonomy", taxonomy), zap.String("slug", slug), zap.Error(err))
		return ""
	}
	return name
}

func (n *Normalizer) productTermNames(ctx context.Context, productID int64, taxonomy string) []string {
	names, err := n.store.ProductTermNames(ctx, productID, taxonomy)
	if err != nil {
		n.log.Warn("failed to resolve product terms",
			zap.Int64("product_id", productID), zap.String("taxonomy", taxonomy), zap.Error(err))
		return nil
	}
	return names
}

// attributeLabel falls back to the bare slug when no label is registered.
func (n *Normalizer) attributeLabel(ctx context.Context, name string) string {
	label, err := n.store.AttributeLabel(ctx, name)
	if err != nil {
		n.log.Warn("failed to resolve attribute label", zap.String("attribute", name), zap.Error(err))
	}
	if label == "" {
		return strings.TrimPrefix(name, catalog.TaxonomyPrefix)
	}
	return label
}

func decodeKey(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

func decodeValue(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}
