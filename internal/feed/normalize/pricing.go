package normalize

import (
	"github.com/shopspring/decimal"

	"pricefeed_api/internal/feed/catalog"
)

// variablePrices resolves the prices shown for a variable product, in order:
// the variation matching the default attributes, then the cheapest in-stock variation
// (used for both prices), then the minimum of the variation price range.
func variablePrices(p *catalog.Product, variations []*catalog.Product) (current, old decimal.NullDecimal, stock catalog.StockStatus) {
	if v := catalog.MatchVariation(variations, p.DefaultAttributes); v != nil {
		return v.Price, v.RegularPrice, v.StockStatus
	}

	if cheapest, ok := minInStockPrice(variations); ok && !cheapest.IsZero() {
		price := decimal.NewNullDecimal(cheapest)
		return price, price, p.StockStatus
	}

	return rangeMin(variations, func(v *catalog.Product) decimal.NullDecimal { return v.Price }),
		rangeMin(variations, func(v *catalog.Product) decimal.NullDecimal { return v.RegularPrice }),
		p.StockStatus
}

func minInStockPrice(variations []*catalog.Product) (decimal.Decimal, bool) {
	var (
		cheapest decimal.Decimal
		found    bool
	)
	for _, v := range variations {
		if !v.IsPublished() || !v.StockStatus.IsInStock() || !v.Price.Valid {
			continue
		}
		if !found || v.Price.Decimal.LessThan(cheapest) {
			cheapest = v.Price.Decimal
			found = true
		}
	}
	return cheapest, found
}

// rangeMin is the lowest value of field among published, priced variations.
func rangeMin(variations []*catalog.Product, field func(*catalog.Product) decimal.NullDecimal) decimal.NullDecimal {
	var out decimal.NullDecimal
	for _, v := range variations {
		if !v.IsPublished() || !v.HasPrice() {
			continue
		}
		value := field(v)
		if !value.Valid {
			continue
		}
		if !out.Valid || value.Decimal.LessThan(out.Decimal) {
			out = value
		}
	}
	return out
}
