package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pricefeed_api/config"
	"pricefeed_api/internal/feed/catalog"
	"pricefeed_api/internal/feed/catalog/memory"
	"pricefeed_api/internal/feed/catalog/mongostore"
	pgstore "pricefeed_api/internal/feed/catalog/postgres"
	catalogmigrations "pricefeed_api/migrations/catalog"
	"pricefeed_api/pkg/dbconnect/migration"
	"pricefeed_api/pkg/dbconnect/postgres"
)

// openStore builds the catalog store selected by configuration. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) (catalog.Store, func(), error) {
	switch cfg.Catalog.Driver {
	case config.DriverPostgres:
		connector := postgres.NewPgConnector(&cfg.Postgres, zl)
		db, err := connector.Connect()
		if err != nil {
			return nil, nil, err
		}
		if err := migration.Apply(db, catalogmigrations.All()...); err != nil {
			connector.Close()
			return nil, nil, err
		}
		zl.Info("catalog migrations applied")
		return pgstore.NewStore(db), func() { connector.Close() }, nil

	case config.DriverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				zl.Warn("failed to disconnect from mongo", zap.Error(err))
			}
		}
		return mongostore.NewStore(client.Database(cfg.Mongo.Database)), closeFn, nil

	case config.DriverFile:
		store, err := memory.LoadFile(cfg.Catalog.File)
		if err != nil {
			return nil, nil, err
		}
		zl.Info("catalog loaded from file", zap.String("file", cfg.Catalog.File))
		return store, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
}
