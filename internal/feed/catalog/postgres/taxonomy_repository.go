package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pricefeed_api/internal/feed/catalog"
)

func (s *Store) CategoryName(ctx context.Context, id int64) (string, error) {
	return s.lookupString(ctx, `SELECT name FROM catalog.categories WHERE id = $1`, id)
}

func (s *Store) TermName(ctx context.Context, taxonomy, slug string) (string, error) {
	return s.lookupString(ctx, `SELECT name FROM catalog.terms WHERE taxonomy = $1 AND slug = $2`, taxonomy, slug)
}

func (s *Store) ProductTermNames(ctx context.Context, productID int64, taxonomy string) ([]string, error) {
	query := `SELECT t.name FROM catalog.product_terms pt
		JOIN catalog.terms t ON t.taxonomy = pt.taxonomy AND t.slug = pt.slug
		WHERE pt.product_id = $1 AND pt.taxonomy = $2 ORDER BY t.name`

	rows, err := s.db.QueryContext(ctx, query, productID, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return names, nil
}

func (s *Store) AttributeLabel(ctx context.Context, slug string) (string, error) {
	return s.lookupString(ctx, `SELECT label FROM catalog.attribute_labels WHERE slug = $1`,
		strings.TrimPrefix(slug, catalog.TaxonomyPrefix))
}

func (s *Store) ImageURL(ctx context.Context, imageID int64) (string, error) {
	return s.lookupString(ctx, `SELECT url FROM catalog.media WHERE id = $1`, imageID)
}

func (s *Store) lookupString(ctx context.Context, query string, args ...any) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	return value, nil
}
