package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pricefeed_api/config"
	"pricefeed_api/internal/feed/catalog"
)

// Store reads the catalog from a MongoDB database. Products live in one collection with
// their attributes and term assignments embedded.
type Store struct {
	products   *mongo.Collection
	categories *mongo.Collection
	media      *mongo.Collection
	terms      *mongo.Collection
	labels     *mongo.Collection
}

var _ catalog.Store = (*Store)(nil)

func NewStore(db *mongo.Database) *Store {
	return &Store{
		products:   db.Collection(productsCollection),
		categories: db.Collection(categoriesCollection),
		media:      db.Collection(mediaCollection),
		terms:      db.Collection(termsCollection),
		labels:     db.Collection(labelsCollection),
	}
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func (s *Store) findProduct(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*catalog.Product, error) {
	var doc productDoc
	err := s.products.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toProduct()
}

func (s *Store) findProducts(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*catalog.Product, error) {
	cursor, err := s.products.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []*catalog.Product
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		p, err := doc.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, cursor.Err()
}

func (s *Store) Product(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := s.findProduct(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	p, err := s.findProduct(ctx, bson.M{"slug": slug, "parent_id": 0}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug %q: %w", slug, err)
	}
	return p, nil
}

func (s *Store) Variations(ctx context.Context, parentID int64) ([]*catalog.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	products, err := s.findProducts(ctx, bson.M{"parent_id": parentID, "type": string(catalog.TypeVariation)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get variations of %d: %w", parentID, err)
	}
	return products, nil
}

func (s *Store) PublishedVariationParents(ctx context.Context) ([]int64, error) {
	filter := bson.M{
		"type":      string(catalog.TypeVariation),
		"status":    string(catalog.StatusPublish),
		"parent_id": bson.M{"$ne": 0},
	}
	values, err := s.products.Distinct(ctx, "parent_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get variation parents: %w", err)
	}

	parents := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("unexpected parent_id %v: %w", v, err)
		}
		parents = append(parents, id)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
	return parents, nil
}

func (s *Store) List(ctx context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	filter := bson.M{"status": string(catalog.StatusPublish)}
	if len(q.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": q.ExcludeIDs}
	}
	if !q.IncludeVariations {
		filter["type"] = bson.M{"$ne": string(catalog.TypeVariation)}
	}

	total, err := s.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetSkip(int64(q.Offset())).SetLimit(int64(q.Limit))
	}
	products, err := s.findProducts(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &catalog.ListResult{Products: products, Total: int(total)}, nil
}

func (s *Store) CategoryName(ctx context.Context, id int64) (string, error) {
	var doc categoryDoc
	if err := s.findOne(ctx, s.categories, bson.M{"_id": id}, &doc); err != nil {
		return "", fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return doc.Name, nil
}

func (s *Store) TermName(ctx context.Context, taxonomy, slug string) (string, error) {
	var doc termDoc
	if err := s.findOne(ctx, s.terms, bson.M{"taxonomy": taxonomy, "slug": slug}, &doc); err != nil {
		return "", fmt.Errorf("failed to get term %s/%s: %w", taxonomy, slug, err)
	}
	return doc.Name, nil
}

func (s *Store) ProductTermNames(ctx context.Context, productID int64, taxonomy string) ([]string, error) {
	var doc productDoc
	opts := options.FindOne().SetProjection(bson.M{"terms": 1})
	if err := s.findOne(ctx, s.products, bson.M{"_id": productID}, &doc, opts); err != nil {
		return nil, fmt.Errorf("failed to get terms of product %d: %w", productID, err)
	}
	slugs := doc.Terms[taxonomy]
	if len(slugs) == 0 {
		return nil, nil
	}

	cursor, err := s.terms.Find(ctx,
		bson.M{"taxonomy": taxonomy, "slug": bson.M{"$in": slugs}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get term names: %w", err)
	}
	var terms []termDoc
	if err := cursor.All(ctx, &terms); err != nil {
		return nil, fmt.Errorf("failed to decode terms: %w", err)
	}

	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return names, nil
}

func (s *Store) AttributeLabel(ctx context.Context, slug string) (string, error) {
	var doc labelDoc
	slug = strings.TrimPrefix(slug, catalog.TaxonomyPrefix)
	if err := s.findOne(ctx, s.labels, bson.M{"_id": slug}, &doc); err != nil {
		return "", fmt.Errorf("failed to get attribute label %s: %w", slug, err)
	}
	return doc.Label, nil
}

func (s *Store) ImageURL(ctx context.Context, imageID int64) (string, error) {
	var doc mediaDoc
	if err := s.findOne(ctx, s.media, bson.M{"_id": imageID}, &doc); err != nil {
		return "", fmt.Errorf("failed to get image %d: %w", imageID, err)
	}
	return doc.URL, nil
}

// findOne decodes a single document into out. A missing document leaves out untouched.
func (s *Store) findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out any, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return nil
}
