package memory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pricefeed_api/internal/feed/catalog"
)

// fixture is the on-disk layout of a catalog snapshot.
type fixture struct {
	Categories map[int64]string `yaml:"categories"`
	Images     map[int64]string `yaml:"images"`
	// Terms maps taxonomy -> slug -> display name.
	Terms           map[string]map[string]string `yaml:"terms"`
	AttributeLabels map[string]string            `yaml:"attribute_labels"`
	Products        []fixtureProduct             `yaml:"products"`
}

type fixtureProduct struct {
	ID                  int64               `yaml:"id"`
	ParentID            int64               `yaml:"parent_id"`
	Type                string              `yaml:"type"`
	Status              string              `yaml:"status"`
	Name                string              `yaml:"name"`
	Slug                string              `yaml:"slug"`
	Price               string              `yaml:"price"`
	RegularPrice        string              `yaml:"regular_price"`
	StockStatus         string              `yaml:"stock_status"`
	CategoryIDs         []int64             `yaml:"category_ids"`
	ImageID             int64               `yaml:"image_id"`
	ShortDescription    string              `yaml:"short_description"`
	SKU                 string              `yaml:"sku"`
	DateCreated         time.Time           `yaml:"date_created"`
	Attributes          []fixtureAttribute  `yaml:"attributes"`
	VariationAttributes []fixturePair       `yaml:"variation_attributes"`
	DefaultAttributes   []fixturePair       `yaml:"default_attributes"`
	Terms               map[string][]string `yaml:"terms"`
	Meta                map[string]string   `yaml:"meta"`
}

type fixtureAttribute struct {
	Name    string   `yaml:"name"`
	Options []string `yaml:"options"`
	Visible bool     `yaml:"visible"`
}

type fixturePair struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// LoadFile builds a store from a YAML catalog snapshot.
func LoadFile(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var fx fixture
	if err := yaml.NewDecoder(file).Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to decode catalog fixture %s: %w", path, err)
	}
	return fx.build()
}

func (fx *fixture) build() (*Store, error) {
	s := NewStore()
	for id, name := range fx.Categories {
		s.AddCategory(id, name)
	}
	for id, url := range fx.Images {
		s.AddImage(id, url)
	}
	for taxonomy, terms := range fx.Terms {
		for slug, name := range terms {
			s.AddTerm(taxonomy, slug, name)
		}
	}
	for slug, label := range fx.AttributeLabels {
		s.AddAttributeLabel(slug, label)
	}

	for _, fp := range fx.Products {
		p, err := fp.toProduct()
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", fp.ID, err)
		}
		s.AddProduct(p)
		for taxonomy, slugs := range fp.Terms {
			s.AssignTerms(p.ID, taxonomy, slugs...)
		}
	}
	return s, nil
}

func (fp fixtureProduct) toProduct() (*catalog.Product, error) {
	price, err := catalog.ParsePrice(fp.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	regular, err := catalog.ParsePrice(fp.RegularPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid regular price: %w", err)
	}

	p := &catalog.Product{
		ID:               fp.ID,
		ParentID:         fp.ParentID,
		Type:             catalog.ProductType(fp.Type),
		Status:           catalog.Status(fp.Status),
		Name:             fp.Name,
		Slug:             fp.Slug,
		Price:            price,
		RegularPrice:     regular,
		StockStatus:      catalog.StockStatus(fp.StockStatus),
		CategoryIDs:      fp.CategoryIDs,
		ImageID:          fp.ImageID,
		ShortDescription: fp.ShortDescription,
		SKU:              fp.SKU,
		DateCreated:      fp.DateCreated,
		Meta:             fp.Meta,
	}
	if p.Type == "" {
		p.Type = catalog.TypeSimple
		if p.ParentID != 0 {
			p.Type = catalog.TypeVariation
		}
	}
	if p.Status == "" {
		p.Status = catalog.StatusPublish
	}
	if p.StockStatus == "" {
		p.StockStatus = catalog.InStock
	}
	for _, a := range fp.Attributes {
		p.Attributes = append(p.Attributes, catalog.Attribute{Name: a.Name, Options: a.Options, Visible: a.Visible})
	}
	for _, a := range fp.VariationAttributes {
		p.VariationAttributes = append(p.VariationAttributes, catalog.Pair{Key: a.Name, Value: a.Value})
	}
	for _, a := range fp.DefaultAttributes {
		p.DefaultAttributes = append(p.DefaultAttributes, catalog.Pair{Key: a.Name, Value: a.Value})
	}
	return p, nil
}
