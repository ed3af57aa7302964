package normalize

import (
	"net/url"
	"strings"

	"pricefeed_api/internal/feed/catalog"
)

func (n *Normalizer) productURL(slug string) string {
	return n.shopURL + "/product/" + url.PathEscape(slug) + "/"
}

// permalink returns the product page. A variation links to its parent's page with the
// selected options preset.
func (n *Normalizer) permalink(p, parent *catalog.Product) string {
	if parent == nil {
		return n.productURL(p.Slug)
	}

	var query []string
	for _, pair := range p.VariationAttributes {
		if pair.Value == "" {
			continue
		}
		key := catalog.VariationAttributeKey(pair.Key)
		query = append(query, url.QueryEscape(decodeKey(key))+"="+url.QueryEscape(decodeValue(pair.Value)))
	}
	link := n.productURL(parent.Slug)
	if len(query) > 0 {
		link += "?" + strings.Join(query, "&")
	}
	return link
}
