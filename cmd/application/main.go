package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pricefeed_api/config"
	"pricefeed_api/internal/feed/app"
	"pricefeed_api/internal/feed/normalize"
	"pricefeed_api/internal/feed/query"
	"pricefeed_api/internal/feed/service"
	"pricefeed_api/internal/feed/updater"
	"pricefeed_api/internal/feed/validator"
	"pricefeed_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("FEED_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("feed service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	domain, err := cfg.ShopDomain()
	if err != nil {
		return err
	}

	svc := service.New(
		service.Config{
			ShopDomain:   domain,
			Version:      cfg.Feed.Version,
			QueryTimeout: cfg.Feed.QueryTimeout,
		},
		validator.NewClient(cfg.Validator, cfg.Feed.Version, zl),
		query.NewResolver(store, query.Limits{
			DefaultPageSize: cfg.Feed.DefaultPageSize,
			MaxPageSize:     cfg.Feed.MaxPageSize,
		}, zl),
		normalize.New(store, normalize.Options{
			ShopURL:         cfg.ShopBaseURL(),
			SubtitleMetaKey: cfg.Feed.SubtitleMetaKey,
			Aliases:         cfg.Aliases,
		}, zl),
		updater.WithLogging(updater.Noop{}, zl),
		zl,
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := app.NewRouter(cfg.Feed.Route, app.NewFeedHandler(svc, zl), zl)

	zl.Info("feed service starting",
		zap.String("version", cfg.Feed.Version),
		zap.String("shop_domain", domain),
		zap.String("catalog_driver", cfg.Catalog.Driver),
	)
	return app.NewServer(cfg.Server, router, zl).Run(ctx)
}
