package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricefeed_api/config/values"
	"pricefeed_api/internal/feed/catalog"
	"pricefeed_api/internal/feed/catalog/memory"
)

var created = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func price(s string) decimal.NullDecimal {
	p, err := catalog.ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func newFixture() *memory.Store {
	s := memory.NewStore().
		AddCategory(3, "کفش").
		AddCategory(4, "ورزشی").
		AddImage(5, "https://cdn.shop.example/shoe.jpg").
		AddImage(6, "https://cdn.shop.example/shoe-blue.jpg").
		AddTerm("pa_color", "red", "قرمز").
		AddTerm("pa_color", "blue", "آبی").
		AddTerm("pa_size", "42", "42").
		AddTerm("pa_size", "43", "43").
		AddAttributeLabel("color", "رنگ").
		AddAttributeLabel("size", "سایز")

	s.AddProduct(&catalog.Product{
		ID:          10,
		Type:        catalog.TypeVariable,
		Status:      catalog.StatusPublish,
		Name:        "کفش ورزشی",
		Slug:        "sport-shoe",
		StockStatus: catalog.InStock,
		CategoryIDs: []int64{3, 4},
		ImageID:     5,
		SKU:         "SH-10",
		DateCreated: created,
		Attributes: []catalog.Attribute{
			{Name: "pa_color", Options: []string{"red", "blue"}, Visible: true},
			{Name: "pa_size", Options: []string{"42", "43"}, Visible: true},
			{Name: "گارانتی", Options: []string{"18 ماه"}, Visible: true},
			{Name: "internal", Options: []string{"x"}, Visible: false},
		},
		DefaultAttributes: catalog.AttributeValues{{Key: "pa_color", Value: "red"}, {Key: "pa_size", Value: "42"}},
		Meta:              map[string]string{"product_english_name": "Sport shoe"},
	}).AssignTerms(10, "pa_color", "red", "blue").AssignTerms(10, "pa_size", "42", "43")

	s.AddProduct(&catalog.Product{
		ID: 11, ParentID: 10, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
		Price: price("120000"), RegularPrice: price("150000"), StockStatus: catalog.InStock,
		DateCreated:         created,
		VariationAttributes: catalog.AttributeValues{{Key: "attribute_pa_color", Value: "red"}, {Key: "attribute_pa_size", Value: "42"}},
	})
	s.AddProduct(&catalog.Product{
		ID: 12, ParentID: 10, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
		Price: price("100000"), RegularPrice: price("100000"), StockStatus: catalog.InStock,
		ImageID: 6, SKU: "SH-12",
		VariationAttributes: catalog.AttributeValues{{Key: "attribute_pa_color", Value: "blue"}, {Key: "attribute_pa_size", Value: "43"}},
	})
	return s
}

func newNormalizer(store catalog.Store) *Normalizer {
	return New(store, Options{
		ShopURL:         "https://www.shop.example/",
		SubtitleMetaKey: "product_english_name",
		Aliases:         values.DefaultSpecAliases(),
	}, zap.NewNop())
}

func TestVariableProductUsesDefaultVariation(t *testing.T) {
	store := newFixture()
	parent, _ := store.Product(context.Background(), 10)

	rec := newNormalizer(store).Normalize(context.Background(), parent, false)

	assert.Equal(t, int64(10), rec.PageUnique)
	assert.Equal(t, int64(0), rec.ParentID)
	assert.Equal(t, "کفش ورزشی", rec.Title)
	assert.Equal(t, "Sport shoe", rec.Subtitle)
	assert.Equal(t, "120000", rec.CurrentPrice.Decimal.String())
	assert.Equal(t, "150000", rec.OldPrice.Decimal.String())
	require.NotNil(t, rec.CategoryName)
	assert.Equal(t, "ورزشی", *rec.CategoryName)
	require.NotNil(t, rec.ImageLink)
	assert.Equal(t, "https://cdn.shop.example/shoe.jpg", *rec.ImageLink)
	assert.Equal(t, "https://www.shop.example/product/sport-shoe/", rec.PageURL)
	assert.Equal(t, &created, rec.Date)

	require.Len(t, rec.Spec, 1)
	spec := rec.Spec[0]
	assert.Equal(t, []string{"رنگ", "سایز", "گارانتی", "شناسه کالا"}, spec.Keys())
	v, _ := spec.Get("رنگ")
	assert.Equal(t, "قرمز", v)
	assert.Equal(t, "18 ماه", rec.Guarantee)
	v, _ = spec.Get("گارانتی")
	assert.Equal(t, "18 ماه", v, "guarantee stays in the spec table")
	v, _ = spec.Get("شناسه کالا")
	assert.Equal(t, "SH-10", v)
}

func TestVariableProductFallsBackToCheapestInStock(t *testing.T) {
	store := memory.NewStore().
		AddProduct(&catalog.Product{
			ID: 20, Type: catalog.TypeVariable, Status: catalog.StatusPublish, Slug: "bag",
			StockStatus:       catalog.InStock,
			DefaultAttributes: catalog.AttributeValues{{Key: "color", Value: "green"}},
		}).
		AddProduct(&catalog.Product{ID: 21, ParentID: 20, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("90000"), RegularPrice: price("99000"), StockStatus: catalog.InStock,
			VariationAttributes: catalog.AttributeValues{{Key: "attribute_color", Value: "black"}}}).
		AddProduct(&catalog.Product{ID: 22, ParentID: 20, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("50000"), RegularPrice: price("55000"), StockStatus: catalog.OutOfStock,
			VariationAttributes: catalog.AttributeValues{{Key: "attribute_color", Value: "white"}}}).
		AddProduct(&catalog.Product{ID: 23, ParentID: 20, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("95000"), StockStatus: catalog.OnBackorder,
			VariationAttributes: catalog.AttributeValues{{Key: "attribute_color", Value: "brown"}}})
	parent, _ := store.Product(context.Background(), 20)

	rec := newNormalizer(store).Normalize(context.Background(), parent, false)

	assert.Equal(t, "90000", rec.CurrentPrice.Decimal.String())
	assert.Equal(t, "90000", rec.OldPrice.Decimal.String())
	assert.Equal(t, catalog.InStock, rec.Availability)
}

func TestVariableProductPartialDefaultsFallBackToCheapestInStock(t *testing.T) {
	store := newFixture()
	parent, _ := store.Product(context.Background(), 10)
	partial := *parent
	partial.DefaultAttributes = catalog.AttributeValues{{Key: "pa_color", Value: "red"}}

	rec := newNormalizer(store).Normalize(context.Background(), &partial, false)

	assert.Equal(t, "100000", rec.CurrentPrice.Decimal.String())
	assert.Equal(t, "100000", rec.OldPrice.Decimal.String())
	assert.Equal(t, catalog.InStock, rec.Availability)
}

func TestVariableProductAllOutOfStockUsesRangeFloor(t *testing.T) {
	store := memory.NewStore().
		AddProduct(&catalog.Product{ID: 30, Type: catalog.TypeVariable, Status: catalog.StatusPublish,
			StockStatus: catalog.OutOfStock}).
		AddProduct(&catalog.Product{ID: 31, ParentID: 30, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("70000"), RegularPrice: price("80000"), StockStatus: catalog.OutOfStock}).
		AddProduct(&catalog.Product{ID: 32, ParentID: 30, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("60000"), RegularPrice: price("90000"), StockStatus: catalog.OutOfStock}).
		AddProduct(&catalog.Product{ID: 33, ParentID: 30, Type: catalog.TypeVariation, Status: catalog.StatusDraft,
			Price: price("10000"), RegularPrice: price("10000"), StockStatus: catalog.OutOfStock})
	parent, _ := store.Product(context.Background(), 30)

	rec := newNormalizer(store).Normalize(context.Background(), parent, false)

	assert.Equal(t, "60000", rec.CurrentPrice.Decimal.String())
	assert.Equal(t, "80000", rec.OldPrice.Decimal.String())
	assert.Equal(t, catalog.OutOfStock, rec.Availability)
	assert.Empty(t, rec.Spec)
	assert.NotNil(t, rec.Spec)
}

func TestVariantTakesSharedFieldsFromParent(t *testing.T) {
	store := newFixture()
	v, _ := store.Product(context.Background(), 11)

	rec := newNormalizer(store).Normalize(context.Background(), v, true)

	assert.Equal(t, int64(11), rec.PageUnique)
	assert.Equal(t, int64(10), rec.ParentID)
	assert.Equal(t, "کفش ورزشی", rec.Title)
	assert.Equal(t, "Sport shoe", rec.Subtitle)
	require.NotNil(t, rec.CategoryName)
	assert.Equal(t, "ورزشی", *rec.CategoryName)
	assert.Equal(t, "120000", rec.CurrentPrice.Decimal.String())
	require.NotNil(t, rec.ImageLink)
	assert.Equal(t, "https://cdn.shop.example/shoe.jpg", *rec.ImageLink)
	assert.Equal(t, "https://www.shop.example/product/sport-shoe/?attribute_pa_color=red&attribute_pa_size=42", rec.PageURL)

	require.Len(t, rec.Spec, 1)
	assert.Equal(t, []string{"رنگ", "سایز", "شناسه کالا"}, rec.Spec[0].Keys())
	sku, _ := rec.Spec[0].Get("شناسه کالا")
	assert.Equal(t, "SH-10", sku)
}

func TestVariantOwnImageAndSKU(t *testing.T) {
	store := newFixture()
	v, _ := store.Product(context.Background(), 12)

	rec := newNormalizer(store).Normalize(context.Background(), v, true)

	require.NotNil(t, rec.ImageLink)
	assert.Equal(t, "https://cdn.shop.example/shoe-blue.jpg", *rec.ImageLink)
	sku, _ := rec.Spec[0].Get("شناسه کالا")
	assert.Equal(t, "SH-12", sku)
	assert.Nil(t, rec.Date)
}

func TestVariantDecodesFreeTextAttributes(t *testing.T) {
	store := memory.NewStore().
		AddProduct(&catalog.Product{ID: 40, Type: catalog.TypeVariable, Status: catalog.StatusPublish, Slug: "belt"}).
		AddProduct(&catalog.Product{ID: 41, ParentID: 40, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
			Price: price("1000"),
			VariationAttributes: catalog.AttributeValues{
				{Key: "attribute_%D8%AC%D9%86%D8%B3", Value: "%DA%86%D8%B1%D9%85%20%D8%B7%D8%A8%DB%8C%D8%B9%DB%8C"},
				{Key: "attribute_size", Value: ""},
			}})
	v, _ := store.Product(context.Background(), 41)

	rec := newNormalizer(store).Normalize(context.Background(), v, true)

	require.Len(t, rec.Spec, 1)
	assert.Equal(t, []string{"جنس"}, rec.Spec[0].Keys())
	value, _ := rec.Spec[0].Get("جنس")
	assert.Equal(t, "چرم طبیعی", value)
	assert.Equal(t, "https://www.shop.example/product/belt/?attribute_%D8%AC%D9%86%D8%B3=%DA%86%D8%B1%D9%85+%D8%B7%D8%A8%DB%8C%D8%B9%DB%8C", rec.PageURL)
}

func TestRegistryAndGuaranteeAliases(t *testing.T) {
	store := memory.NewStore().AddProduct(&catalog.Product{
		ID: 50, Type: catalog.TypeSimple, Status: catalog.StatusPublish,
		Attributes: []catalog.Attribute{
			{Name: "Registry", Options: []string{"registered"}, Visible: true},
			{Name: "warranty", Options: []string{""}, Visible: true},
			{Name: "ضمانت", Options: []string{"یک ساله"}, Visible: true},
			{Name: "guarantee", Options: []string{"24 months"}, Visible: true},
			{Name: "شناسه کالا", Options: []string{"X-1"}, Visible: true},
		},
		SKU: "SKU-50",
	})
	p, _ := store.Product(context.Background(), 50)

	rec := newNormalizer(store).Normalize(context.Background(), p, false)

	assert.Equal(t, "registered", rec.Registry)
	assert.Equal(t, "24 months", rec.Guarantee, "earlier alias wins over later alias")
	id, _ := rec.Spec[0].Get("شناسه کالا")
	assert.Equal(t, "X-1", id, "explicit identifier is not replaced by the SKU")
	assert.Nil(t, rec.CategoryName)
	assert.Nil(t, rec.ImageLink)
}

type failingStore struct {
	*memory.Store
}

func (failingStore) CategoryName(context.Context, int64) (string, error) {
	return "", errors.New("db down")
}

func (failingStore) ImageURL(context.Context, int64) (string, error) {
	return "", errors.New("db down")
}

func TestStoreErrorsDegradeToEmpty(t *testing.T) {
	store := failingStore{memory.NewStore().AddProduct(&catalog.Product{
		ID: 60, Type: catalog.TypeSimple, Status: catalog.StatusPublish,
		CategoryIDs: []int64{1}, ImageID: 2, Price: price("10"),
	})}
	p, _ := store.Product(context.Background(), 60)

	rec := newNormalizer(store).Normalize(context.Background(), p, false)

	assert.Nil(t, rec.CategoryName)
	assert.Nil(t, rec.ImageLink)
	assert.Equal(t, "10", rec.CurrentPrice.Decimal.String())
}

func TestRecordJSON(t *testing.T) {
	spec := NewSpecTable()
	spec.Set("رنگ", "قرمز")
	spec.Set("b", "2")
	spec.Set("a", "1")
	spec.Set("b", "3")
	name := "کفش"
	rec := &Record{
		PageUnique:   7,
		CurrentPrice: price("1500"),
		Availability: catalog.InStock,
		CategoryName: &name,
		Spec:         []*SpecTable{spec},
		Date:         &created,
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `"1500"`, string(decoded["current_price"]))
	assert.JSONEq(t, `null`, string(decoded["old_price"]))
	assert.JSONEq(t, `"instock"`, string(decoded["availability"]))
	assert.JSONEq(t, `null`, string(decoded["image_link"]))
	assert.JSONEq(t, `"2024-03-01T10:00:00Z"`, string(decoded["date"]))
	assert.Equal(t, `[{"رنگ":"قرمز","b":"3","a":"1"}]`, string(decoded["spec"]))
}
