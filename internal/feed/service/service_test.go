package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pricefeed_api/config/values"
	"pricefeed_api/internal/feed/catalog"
	"pricefeed_api/internal/feed/catalog/memory"
	"pricefeed_api/internal/feed/normalize"
	"pricefeed_api/internal/feed/query"
	"pricefeed_api/internal/feed/validator"
)

const version = "1.2.2"

type fakeValidator struct {
	err  error
	seen []validator.Request
}

func (f *fakeValidator) Validate(_ context.Context, r validator.Request) error {
	f.seen = append(f.seen, r)
	return f.err
}

type countingResolver struct {
	next  ProductResolver
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, p query.Params) (*query.Result, error) {
	c.calls++
	return c.next.Resolve(ctx, p)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, query.Params) (*query.Result, error) {
	return nil, errors.New("catalog unavailable")
}

type stubUpdater struct {
	updated bool
	err     error
}

func (s stubUpdater) Update(context.Context) (bool, error) {
	return s.updated, s.err
}

func newStore() *memory.Store {
	s := memory.NewStore()
	s.AddProduct(&catalog.Product{ID: 10, Type: catalog.TypeSimple, Status: catalog.StatusPublish, Name: "A",
		Slug: "shoe-a", Price: decimal.NewNullDecimal(decimal.NewFromInt(1000)), StockStatus: catalog.InStock})
	s.AddProduct(&catalog.Product{ID: 12, Type: catalog.TypeSimple, Status: catalog.StatusDraft, Name: "B",
		Slug: "shoe-b", StockStatus: catalog.InStock})
	s.AddProduct(&catalog.Product{ID: 20, Type: catalog.TypeVariable, Status: catalog.StatusPublish, Name: "V",
		Slug: "v", StockStatus: catalog.InStock})
	s.AddProduct(&catalog.Product{ID: 11, ParentID: 20, Type: catalog.TypeVariation, Status: catalog.StatusDraft,
		Price: decimal.NewNullDecimal(decimal.NewFromInt(500))})
	s.AddProduct(&catalog.Product{ID: 21, ParentID: 20, Type: catalog.TypeVariation, Status: catalog.StatusPublish,
		Price: decimal.NewNullDecimal(decimal.NewFromInt(700)), StockStatus: catalog.InStock})
	return s
}

func newService(v TokenValidator, r ProductResolver, u stubUpdater) *Service {
	store := newStore()
	if r == nil {
		r = query.NewResolver(store, query.Limits{DefaultPageSize: 10, MaxPageSize: 500}, zap.NewNop())
	}
	n := normalize.New(store, normalize.Options{
		ShopURL:         "https://shop.example",
		SubtitleMetaKey: "product_english_name",
		Aliases:         values.DefaultSpecAliases(),
	}, zap.NewNop())
	return New(Config{ShopDomain: "shop.example", Version: version}, v, r, n, u, zap.NewNop())
}

func encode(t *testing.T, body any) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestProductsPaginated(t *testing.T) {
	v := &fakeValidator{}
	svc := newService(v, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Token: "tok", Authorization: "Bearer x"})

	require.Equal(t, http.StatusOK, resp.Status)
	body := encode(t, resp.Body)
	assert.JSONEq(t, `"1.2.2"`, string(body["Version"]))
	assert.JSONEq(t, `2`, string(body["count"]))
	assert.JSONEq(t, `1`, string(body["max_pages"]))

	payload := resp.Body.(FeedPayload)
	require.Len(t, payload.Products, 2)
	assert.Equal(t, int64(20), payload.Products[0].PageUnique)
	assert.Equal(t, int64(10), payload.Products[1].PageUnique)

	require.Len(t, v.seen, 1)
	assert.Equal(t, validator.Request{Token: "tok", Authorization: "Bearer x", ShopDomain: "shop.example"}, v.seen[0])
}

func TestProductsExpandedVariations(t *testing.T) {
	svc := newService(&fakeValidator{}, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Query: query.Params{Variations: true}})

	payload := resp.Body.(FeedPayload)
	var ids []int64
	for _, p := range payload.Products {
		ids = append(ids, p.PageUnique)
	}
	assert.Equal(t, []int64{21, 10}, ids)
	assert.Equal(t, int64(20), payload.Products[0].ParentID)
}

func TestProductsByIDsHasNoPagination(t *testing.T) {
	svc := newService(&fakeValidator{}, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Query: query.Params{IDs: []int64{10, 11}}})

	require.Equal(t, http.StatusOK, resp.Status)
	body := encode(t, resp.Body)
	assert.NotContains(t, body, "count")
	assert.NotContains(t, body, "max_pages")
	payload := resp.Body.(FeedPayload)
	require.Len(t, payload.Products, 1)
	assert.Equal(t, int64(10), payload.Products[0].PageUnique)
}

func TestProductsBySlugs(t *testing.T) {
	svc := newService(&fakeValidator{}, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Query: query.Params{Slugs: []string{"shoe-a", "shoe-b"}}})

	payload := resp.Body.(FeedPayload)
	require.Len(t, payload.Products, 1)
	assert.Equal(t, int64(10), payload.Products[0].PageUnique)
}

func TestEmptyResultStillListsProducts(t *testing.T) {
	svc := newService(&fakeValidator{}, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Query: query.Params{IDs: []int64{404}}})

	body := encode(t, resp.Body)
	assert.JSONEq(t, `[]`, string(body["products"]))
}

func TestInvalidTokenSkipsCatalog(t *testing.T) {
	msg := "token is not valid"
	v := &fakeValidator{err: &validator.RejectedError{StatusCode: 403, Message: &msg, Body: `{"error":"token is not valid"}`}}
	resolver := &countingResolver{next: failingResolver{}}
	svc := newService(v, resolver, stubUpdater{})

	resp := svc.Products(context.Background(), Request{Token: "bad"})

	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, 0, resolver.calls)
	body := encode(t, resp.Body)
	assert.JSONEq(t, `"token is not valid"`, string(body["Error"]))
	assert.JSONEq(t, `"{\"error\":\"token is not valid\"}"`, string(body["Response"]))
	assert.JSONEq(t, `"1.2.2"`, string(body["Version"]))
}

func TestRejectionWithoutMessage(t *testing.T) {
	v := &fakeValidator{err: &validator.RejectedError{StatusCode: 502, Body: "bad gateway"}}
	svc := newService(v, nil, stubUpdater{})

	resp := svc.Products(context.Background(), Request{})

	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	body := encode(t, resp.Body)
	assert.JSONEq(t, `null`, string(body["Error"]))
	assert.JSONEq(t, `"bad gateway"`, string(body["Response"]))
}

func TestTransportFailure(t *testing.T) {
	v := &fakeValidator{err: &validator.TransportError{Err: context.DeadlineExceeded}}
	resolver := &countingResolver{next: failingResolver{}}
	svc := newService(v, resolver, stubUpdater{})

	resp := svc.Products(context.Background(), Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, 0, resolver.calls)
	body := encode(t, resp.Body)
	assert.JSONEq(t, `""`, string(body["Response"]))
	assert.Contains(t, string(body["Error"]), "deadline exceeded")
	assert.JSONEq(t, `"1.2.2"`, string(body["Version"]))
}

func TestCatalogFailure(t *testing.T) {
	svc := newService(&fakeValidator{}, failingResolver{}, stubUpdater{})

	resp := svc.Products(context.Background(), Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	body := encode(t, resp.Body)
	assert.NotContains(t, body, "Response")
	assert.JSONEq(t, `"catalog unavailable"`, string(body["Error"]))
	assert.JSONEq(t, `"1.2.2"`, string(body["Version"]))
}

func TestAutoUpdate(t *testing.T) {
	v := &fakeValidator{}
	svc := newService(v, nil, stubUpdater{updated: true})

	resp := svc.Products(context.Background(), Request{AutoUpdate: true})
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, UpdatedPayload{Updated: true, Version: version}, resp.Body)
	assert.Empty(t, v.seen)

	resp = svc.Products(context.Background(), Request{AutoUpdate: false})
	assert.IsType(t, FeedPayload{}, resp.Body)
}

func TestAutoUpdateFailureStillServes(t *testing.T) {
	svc := newService(&fakeValidator{}, nil, stubUpdater{err: errors.New("no network")})

	resp := svc.Products(context.Background(), Request{AutoUpdate: true})

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.IsType(t, FeedPayload{}, resp.Body)
}
