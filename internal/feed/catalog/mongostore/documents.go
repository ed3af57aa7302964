package mongostore

import (
	"fmt"
	"time"

	"pricefeed_api/internal/feed/catalog"
)

const (
	productsCollection   = "products"
	categoriesCollection = "categories"
	mediaCollection      = "media"
	termsCollection      = "terms"
	labelsCollection     = "attribute_labels"
)

type productDoc struct {
	ID                  int64               `bson:"_id"`
	ParentID            int64               `bson:"parent_id"`
	Type                string              `bson:"type"`
	Status              string              `bson:"status"`
	Name                string              `bson:"name"`
	Slug                string              `bson:"slug"`
	Price               string              `bson:"price,omitempty"`
	RegularPrice        string              `bson:"regular_price,omitempty"`
	StockStatus         string              `bson:"stock_status"`
	CategoryIDs         []int64             `bson:"category_ids,omitempty"`
	ImageID             int64               `bson:"image_id,omitempty"`
	ShortDescription    string              `bson:"short_description,omitempty"`
	SKU                 string              `bson:"sku,omitempty"`
	DateCreated         time.Time           `bson:"date_created"`
	Attributes          []attributeDoc      `bson:"attributes,omitempty"`
	VariationAttributes []pairDoc           `bson:"variation_attributes,omitempty"`
	DefaultAttributes   []pairDoc           `bson:"default_attributes,omitempty"`
	Terms               map[string][]string `bson:"terms,omitempty"`
	Meta                map[string]string   `bson:"meta,omitempty"`
}

type attributeDoc struct {
	Name    string   `bson:"name"`
	Options []string `bson:"options"`
	Visible bool     `bson:"visible"`
}

type pairDoc struct {
	Name  string `bson:"name"`
	Value string `bson:"value"`
}

type categoryDoc struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

type mediaDoc struct {
	ID  int64  `bson:"_id"`
	URL string `bson:"url"`
}

type termDoc struct {
	Taxonomy string `bson:"taxonomy"`
	Slug     string `bson:"slug"`
	Name     string `bson:"name"`
}

type labelDoc struct {
	Slug  string `bson:"_id"`
	Label string `bson:"label"`
}

func (d *productDoc) toProduct() (*catalog.Product, error) {
	price, err := catalog.ParsePrice(d.Price)
	if err != nil {
		return nil, fmt.Errorf("product %d has invalid price: %w", d.ID, err)
	}
	regular, err := catalog.ParsePrice(d.RegularPrice)
	if err != nil {
		return nil, fmt.Errorf("product %d has invalid regular price: %w", d.ID, err)
	}

	p := &catalog.Product{
		ID:               d.ID,
		ParentID:         d.ParentID,
		Type:             catalog.ProductType(d.Type),
		Status:           catalog.Status(d.Status),
		Name:             d.Name,
		Slug:             d.Slug,
		Price:            price,
		RegularPrice:     regular,
		StockStatus:      catalog.StockStatus(d.StockStatus),
		CategoryIDs:      d.CategoryIDs,
		ImageID:          d.ImageID,
		ShortDescription: d.ShortDescription,
		SKU:              d.SKU,
		DateCreated:      d.DateCreated,
		Meta:             d.Meta,
	}
	for _, a := range d.Attributes {
		p.Attributes = append(p.Attributes, catalog.Attribute{Name: a.Name, Options: a.Options, Visible: a.Visible})
	}
	for _, a := range d.VariationAttributes {
		p.VariationAttributes = append(p.VariationAttributes, catalog.Pair{Key: a.Name, Value: a.Value})
	}
	for _, a := range d.DefaultAttributes {
		p.DefaultAttributes = append(p.DefaultAttributes, catalog.Pair{Key: a.Name, Value: a.Value})
	}
	return p, nil
}
