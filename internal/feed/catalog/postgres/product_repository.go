package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"pricefeed_api/internal/feed/catalog"
)

const productColumns = `id, parent_id, type, status, name, slug, price, regular_price, stock_status,
	category_ids, image_id, short_description, sku, date_created, meta`

// Store reads the catalog schema created by migrations/catalog.
type Store struct {
	db *sql.DB
}

var _ catalog.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var (
		p            catalog.Product
		productType  string
		status       string
		stockStatus  string
		price        sql.NullString
		regularPrice sql.NullString
		categoryIDs  pq.Int64Array
		meta         []byte
	)
	err := row.Scan(&p.ID, &p.ParentID, &productType, &status, &p.Name, &p.Slug, &price, &regularPrice,
		&stockStatus, &categoryIDs, &p.ImageID, &p.ShortDescription, &p.SKU, &p.DateCreated, &meta)
	if err != nil {
		return nil, err
	}

	p.Type = catalog.ProductType(productType)
	p.Status = catalog.Status(status)
	p.StockStatus = catalog.StockStatus(stockStatus)
	p.CategoryIDs = categoryIDs

	if p.Price, err = catalog.ParsePrice(price.String); err != nil {
		return nil, fmt.Errorf("product %d has invalid price: %w", p.ID, err)
	}
	if p.RegularPrice, err = catalog.ParsePrice(regularPrice.String); err != nil {
		return nil, fmt.Errorf("product %d has invalid regular price: %w", p.ID, err)
	}
	if len(meta) > 0 {
		if err := jsoniter.Unmarshal(meta, &p.Meta); err != nil {
			return nil, fmt.Errorf("product %d has invalid meta: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (s *Store) Product(ctx context.Context, id int64) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE id = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	if err := s.hydrate(ctx, []*catalog.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.products
		WHERE slug = $1 AND parent_id = 0 ORDER BY id LIMIT 1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by slug %q: %w", slug, err)
	}
	if err := s.hydrate(ctx, []*catalog.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) Variations(ctx context.Context, parentID int64) ([]*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.products
		WHERE parent_id = $1 AND type = 'variation' ORDER BY id`

	products, err := s.queryProducts(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variations of %d: %w", parentID, err)
	}
	return products, nil
}

func (s *Store) PublishedVariationParents(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT parent_id FROM catalog.products
		WHERE type = 'variation' AND status = 'publish' AND parent_id <> 0 ORDER BY parent_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var parents []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		parents = append(parents, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return parents, nil
}

func (s *Store) List(ctx context.Context, q catalog.ListQuery) (*catalog.ListResult, error) {
	conditions := []string{`status = 'publish'`, `NOT (id = ANY($1))`}
	if !q.IncludeVariations {
		conditions = append(conditions, `type <> 'variation'`)
	}
	where := strings.Join(conditions, " AND ")
	excluded := pq.Array(q.ExcludeIDs)
	if q.ExcludeIDs == nil {
		excluded = pq.Array([]int64{})
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM catalog.products WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, excluded).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE ` + where + ` ORDER BY id DESC`
	args := []any{excluded}
	if q.Limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, q.Limit, q.Offset())
	}

	products, err := s.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &catalog.ListResult{Products: products, Total: total}, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	if err := s.hydrate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// hydrate loads declared attributes and selected attribute values for the given products.
func (s *Store) hydrate(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[int64]*catalog.Product, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	if err := s.loadAttributes(ctx, ids, byID); err != nil {
		return err
	}
	return s.loadAttributeValues(ctx, ids, byID)
}

func (s *Store) loadAttributes(ctx context.Context, ids []int64, byID map[int64]*catalog.Product) error {
	query := `SELECT product_id, name, options, visible FROM catalog.product_attributes
		WHERE product_id = ANY($1) ORDER BY product_id, position`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get product attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			attr      catalog.Attribute
			options   pq.StringArray
		)
		if err := rows.Scan(&productID, &attr.Name, &options, &attr.Visible); err != nil {
			return fmt.Errorf("failed to scan attribute row: %w", err)
		}
		attr.Options = options
		if p := byID[productID]; p != nil {
			p.Attributes = append(p.Attributes, attr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return nil
}

func (s *Store) loadAttributeValues(ctx context.Context, ids []int64, byID map[int64]*catalog.Product) error {
	query := `SELECT product_id, kind, name, value FROM catalog.product_attribute_values
		WHERE product_id = ANY($1) ORDER BY product_id, kind, position`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get attribute values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			kind      string
			pair      catalog.Pair
		)
		if err := rows.Scan(&productID, &kind, &pair.Key, &pair.Value); err != nil {
			return fmt.Errorf("failed to scan attribute value row: %w", err)
		}
		p := byID[productID]
		if p == nil {
			continue
		}
		switch kind {
		case "variation":
			p.VariationAttributes = append(p.VariationAttributes, pair)
		case "default":
			p.DefaultAttributes = append(p.DefaultAttributes, pair)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return nil
}
