package query

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricefeed_api/internal/feed/catalog"
	"pricefeed_api/internal/feed/catalog/memory"
)

func priced(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

// fixture:
//
//	1 simple, 2 variable with variations 3 (priced), 4 (no price), 5 (draft),
//	6 draft simple, 7 variable without published variations, 8 simple "shoe-a",
//	9 draft simple "shoe-b", 10 simple, 11 draft variation of 2
func newFixture() *memory.Store {
	s := memory.NewStore()
	add := func(p *catalog.Product) {
		if p.Status == "" {
			p.Status = catalog.StatusPublish
		}
		s.AddProduct(p)
	}
	add(&catalog.Product{ID: 1, Type: catalog.TypeSimple, Price: priced("100")})
	add(&catalog.Product{ID: 2, Type: catalog.TypeVariable})
	add(&catalog.Product{ID: 3, ParentID: 2, Type: catalog.TypeVariation, Price: priced("200")})
	add(&catalog.Product{ID: 4, ParentID: 2, Type: catalog.TypeVariation})
	add(&catalog.Product{ID: 5, ParentID: 2, Type: catalog.TypeVariation, Status: catalog.StatusDraft, Price: priced("300")})
	add(&catalog.Product{ID: 6, Type: catalog.TypeSimple, Status: catalog.StatusDraft})
	add(&catalog.Product{ID: 7, Type: catalog.TypeVariable})
	add(&catalog.Product{ID: 8, Type: catalog.TypeSimple, Slug: "shoe-a"})
	add(&catalog.Product{ID: 9, Type: catalog.TypeSimple, Slug: "shoe-b", Status: catalog.StatusDraft})
	add(&catalog.Product{ID: 10, Type: catalog.TypeSimple})
	add(&catalog.Product{ID: 11, ParentID: 2, Type: catalog.TypeVariation, Status: catalog.StatusDraft, Price: priced("50")})
	return s
}

func newResolver(store catalog.ProductReader) *Resolver {
	return NewResolver(store, Limits{DefaultPageSize: 10, MaxPageSize: 500}, zap.NewNop())
}

func itemIDs(items []Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Product.ID)
	}
	return ids
}

func TestModePrecedence(t *testing.T) {
	assert.Equal(t, ModeIDs, Params{IDs: []int64{1}, Slugs: []string{"a"}}.Mode())
	assert.Equal(t, ModeSlugs, Params{Slugs: []string{"a"}}.Mode())
	assert.Equal(t, ModeCatalog, Params{}.Mode())
}

func TestResolveIDs(t *testing.T) {
	res, err := newResolver(newFixture()).Resolve(context.Background(), Params{IDs: []int64{10, 11, 3, 4, 404, 2}})
	require.NoError(t, err)

	assert.False(t, res.Paginated())
	assert.Equal(t, []int64{10, 3, 2}, itemIDs(res.Items))
	assert.False(t, res.Items[0].IsVariant)
	assert.True(t, res.Items[1].IsVariant)
	assert.False(t, res.Items[2].IsVariant, "variable products are not expanded in ID mode")
}

func TestResolveSlugs(t *testing.T) {
	res, err := newResolver(newFixture()).Resolve(context.Background(), Params{Slugs: []string{"shoe-a", "shoe-b"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, itemIDs(res.Items))
}

func TestResolveCatalogWithoutExpansion(t *testing.T) {
	res, err := newResolver(newFixture()).Resolve(context.Background(), Params{Limit: 3, Page: 1})
	require.NoError(t, err)

	assert.True(t, res.Paginated())
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, 2, res.MaxPages)
	assert.Equal(t, []int64{10, 8, 7}, itemIDs(res.Items))

	res, err = newResolver(newFixture()).Resolve(context.Background(), Params{Limit: 3, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, itemIDs(res.Items))
}

func TestResolveCatalogWithExpansion(t *testing.T) {
	res, err := newResolver(newFixture()).Resolve(context.Background(), Params{Variations: true, Limit: 50})
	require.NoError(t, err)

	// parent 2 excluded, 7 listed but dropped as variable, 4 has no price, 5 and 11 are drafts
	assert.Equal(t, []int64{10, 8, 3, 1}, itemIDs(res.Items))
	assert.Equal(t, 6, res.Count)
	assert.Equal(t, 1, res.MaxPages)

	seen := map[int64]int{}
	for _, it := range res.Items {
		seen[it.Product.ID]++
		assert.Equal(t, it.Product.ParentID != 0, it.IsVariant)
	}
	assert.Equal(t, 1, seen[3])
}

func TestPageSizeDefaults(t *testing.T) {
	r := newResolver(newFixture())
	assert.Equal(t, 10, r.pageSize(0))
	assert.Equal(t, 10, r.pageSize(-4))
	assert.Equal(t, 500, r.pageSize(9000))
	assert.Equal(t, 25, r.pageSize(25))

	res, err := r.Resolve(context.Background(), Params{Page: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MaxPages)
	assert.Len(t, res.Items, 5)
}

type brokenReader struct {
	catalog.ProductReader
}

func (brokenReader) List(context.Context, catalog.ListQuery) (*catalog.ListResult, error) {
	return nil, errors.New("connection refused")
}

func (brokenReader) Product(context.Context, int64) (*catalog.Product, error) {
	return nil, errors.New("connection refused")
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	r := newResolver(brokenReader{})

	_, err := r.Resolve(context.Background(), Params{})
	assert.ErrorContains(t, err, "connection refused")

	_, err = r.Resolve(context.Background(), Params{IDs: []int64{1}})
	assert.ErrorContains(t, err, "connection refused")
}
