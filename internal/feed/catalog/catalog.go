package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	TypeSimple    ProductType = "simple"
	TypeVariable  ProductType = "variable"
	TypeVariation ProductType = "variation"
	TypeGrouped   ProductType = "grouped"
	TypeExternal  ProductType = "external"
)

type Status string

const (
	StatusPublish Status = "publish"
	StatusPrivate Status = "private"
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusTrash   Status = "trash"
)

type StockStatus string

const (
	InStock     StockStatus = "instock"
	OutOfStock  StockStatus = "outofstock"
	OnBackorder StockStatus = "onbackorder"
)

// IsInStock reports whether the item can be bought now or on backorder.
func (s StockStatus) IsInStock() bool {
	return s != OutOfStock
}

// TaxonomyPrefix marks attributes whose values are shared taxonomy terms.
const TaxonomyPrefix = "pa_"

// IsTaxonomy reports whether an attribute name refers to a taxonomy.
func IsTaxonomy(name string) bool {
	return strings.HasPrefix(name, TaxonomyPrefix)
}

// Attribute is an attribute declared on a top-level product.
// For taxonomy attributes Options holds term slugs, otherwise free text values.
type Attribute struct {
	Name    string
	Options []string
	Visible bool
}

// Pair is one entry of an ordered attribute map.
type Pair struct {
	Key   string
	Value string
}

// AttributeValues is an ordered name -> value map, e.g. the selected options of a variation.
type AttributeValues []Pair

func (v AttributeValues) Get(key string) (string, bool) {
	for _, p := range v {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Product is the catalog view of a product or a variation.
type Product struct {
	ID               int64
	ParentID         int64
	Type             ProductType
	Status           Status
	Name             string
	Slug             string
	Price            decimal.NullDecimal
	RegularPrice     decimal.NullDecimal
	StockStatus      StockStatus
	CategoryIDs      []int64
	ImageID          int64
	ShortDescription string
	SKU              string
	DateCreated      time.Time
	Attributes       []Attribute
	// VariationAttributes holds the options selected by a variation. An empty value means "any".
	VariationAttributes AttributeValues
	// DefaultAttributes holds the pre-selected options of a variable product.
	DefaultAttributes AttributeValues
	Meta              map[string]string
}

func (p *Product) IsPublished() bool {
	return p.Status == StatusPublish
}

func (p *Product) IsVariable() bool {
	return p.Type == TypeVariable
}

// HasPrice reports whether the product carries a non-empty, non-zero price.
func (p *Product) HasPrice() bool {
	return p.Price.Valid && !p.Price.Decimal.IsZero()
}

func (p *Product) MetaValue(key string) string {
	if p.Meta == nil {
		return ""
	}
	return p.Meta[key]
}

// ListQuery describes a paginated catalog listing. Only published entries are listed,
// newest ID first.
type ListQuery struct {
	IncludeVariations bool
	ExcludeIDs        []int64
	// Limit <= 0 lists everything on a single page.
	Limit int
	Page  int
}

// Offset returns the number of entries to skip for the requested page.
func (q ListQuery) Offset() int {
	if q.Limit <= 0 || q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type ListResult struct {
	Products []*Product
	Total    int
}

// ProductReader reads products and variations. Lookups return nil, nil for unknown entries.
type ProductReader interface {
	Product(ctx context.Context, id int64) (*Product, error)
	// ProductBySlug resolves a top-level product by slug regardless of its status.
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	// Variations returns all variations of a parent regardless of status, by ascending ID.
	Variations(ctx context.Context, parentID int64) ([]*Product, error)
	// PublishedVariationParents returns the distinct parent IDs of published variations.
	PublishedVariationParents(ctx context.Context) ([]int64, error)
	List(ctx context.Context, q ListQuery) (*ListResult, error)
}

// TaxonomyReader resolves display names. Unknown entries yield an empty string.
type TaxonomyReader interface {
	CategoryName(ctx context.Context, id int64) (string, error)
	TermName(ctx context.Context, taxonomy, slug string) (string, error)
	ProductTermNames(ctx context.Context, productID int64, taxonomy string) ([]string, error)
	// AttributeLabel returns the label of a taxonomy attribute slug (without prefix).
	AttributeLabel(ctx context.Context, slug string) (string, error)
}

type MediaReader interface {
	ImageURL(ctx context.Context, imageID int64) (string, error)
}

// Store is the full catalog capability used by the feed.
type Store interface {
	ProductReader
	TaxonomyReader
	MediaReader
}

// ParsePrice parses a stored price. An empty string is a missing price.
func ParsePrice(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
