package catalog

import (
	"database/sql"
	"fmt"

	"pricefeed_api/pkg/dbconnect/migration"
)

const (
	SchemaMigration     = "catalog.schema"
	ProductsMigration   = "catalog.products"
	AttributesMigration = "catalog.attributes"
	TaxonomyMigration   = "catalog.taxonomy"
	MediaMigration      = "catalog.media"
)

// All returns the catalog migrations in dependency order.
func All() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&MigrationsSchema{},
		&CatalogSchema{},
		&CatalogProducts{},
		&CatalogAttributes{},
		&CatalogTaxonomy{},
		&CatalogMedia{},
	}
}

type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS migrations;`)
	if err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS migrations.migrations (
            id SERIAL PRIMARY KEY,
            time TIMESTAMP NOT NULL,
            name VARCHAR(255) UNIQUE NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

type CatalogSchema struct{}

func (m *CatalogSchema) UpMigration(db *sql.DB) error {
	return runOnce(db, SchemaMigration, `CREATE SCHEMA IF NOT EXISTS catalog;`)
}

type CatalogProducts struct{}

func (m *CatalogProducts) UpMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog.products (
		id BIGINT PRIMARY KEY,
		parent_id BIGINT NOT NULL DEFAULT 0,
		type VARCHAR(32) NOT NULL DEFAULT 'simple',
		status VARCHAR(32) NOT NULL DEFAULT 'publish',
		name TEXT NOT NULL DEFAULT '',
		slug VARCHAR(255) NOT NULL DEFAULT '',
		price NUMERIC(20, 4),
		regular_price NUMERIC(20, 4),
		stock_status VARCHAR(32) NOT NULL DEFAULT 'instock',
		category_ids BIGINT[] NOT NULL DEFAULT '{}',
		image_id BIGINT NOT NULL DEFAULT 0,
		short_description TEXT NOT NULL DEFAULT '',
		sku VARCHAR(255) NOT NULL DEFAULT '',
		date_created TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		meta JSONB NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS catalog_products_parent_idx ON catalog.products(parent_id);
	CREATE INDEX IF NOT EXISTS catalog_products_slug_idx ON catalog.products(slug);
	CREATE INDEX IF NOT EXISTS catalog_products_status_idx ON catalog.products(status);
	`
	return runOnce(db, ProductsMigration, query)
}

type CatalogAttributes struct{}

// UpMigration creates the declared attributes of products and the selected
// (variation / default) attribute values.
func (m *CatalogAttributes) UpMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog.product_attributes (
		product_id BIGINT NOT NULL REFERENCES catalog.products(id) ON DELETE CASCADE,
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		options TEXT[] NOT NULL DEFAULT '{}',
		visible BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (product_id, position)
	);

	CREATE TABLE IF NOT EXISTS catalog.product_attribute_values (
		product_id BIGINT NOT NULL REFERENCES catalog.products(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL CHECK (kind IN ('variation', 'default')),
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (product_id, kind, position)
	);
	`
	return runOnce(db, AttributesMigration, query)
}

type CatalogTaxonomy struct{}

func (m *CatalogTaxonomy) UpMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog.categories (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS catalog.terms (
		taxonomy VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (taxonomy, slug)
	);

	CREATE TABLE IF NOT EXISTS catalog.product_terms (
		product_id BIGINT NOT NULL REFERENCES catalog.products(id) ON DELETE CASCADE,
		taxonomy VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		PRIMARY KEY (product_id, taxonomy, slug),
		FOREIGN KEY (taxonomy, slug) REFERENCES catalog.terms(taxonomy, slug)
	);

	CREATE TABLE IF NOT EXISTS catalog.attribute_labels (
		slug VARCHAR(255) PRIMARY KEY,
		label TEXT NOT NULL
	);
	`
	return runOnce(db, TaxonomyMigration, query)
}

type CatalogMedia struct{}

func (m *CatalogMedia) UpMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS catalog.media (
		id BIGINT PRIMARY KEY,
		url TEXT NOT NULL
	);
	`
	return runOnce(db, MediaMigration, query)
}

func runOnce(db *sql.DB, name, query string) error {
	var exists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", name, err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", name)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", name, err)
	}
	return nil
}
