package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pricefeed_api/config/values"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverFile     = "file"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ShopConfig identifies the storefront the feed is served for.
type ShopConfig struct {
	URL string `yaml:"url"`
}

type FeedConfig struct {
	Version         string        `yaml:"version"`
	Route           string        `yaml:"route"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	SubtitleMetaKey string        `yaml:"subtitle_meta_key"`
}

type ValidatorConfig struct {
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`
	TransportTimeout time.Duration `yaml:"transport_timeout"`
	// RequestsPerMinute <= 0 disables outbound throttling.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type CatalogConfig struct {
	Driver string `yaml:"driver"`
	// File is the YAML snapshot read by the file driver.
	File string `yaml:"file"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Shop      ShopConfig         `yaml:"shop"`
	Feed      FeedConfig         `yaml:"feed"`
	Validator ValidatorConfig    `yaml:"validator"`
	Catalog   CatalogConfig      `yaml:"catalog"`
	Postgres  PostgresConfig     `yaml:"postgres"`
	Mongo     MongoConfig        `yaml:"mongo"`
	Logger    LoggerConfig       `yaml:"logger"`
	Aliases   values.SpecAliases `yaml:"aliases"`
}

func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Shop: ShopConfig{URL: "http://localhost"},
		Feed: FeedConfig{
			Version:         "1.2.2",
			Route:           "/wcpe/v1/products",
			DefaultPageSize: 10,
			MaxPageSize:     500,
			QueryTimeout:    20 * time.Second,
			SubtitleMetaKey: "product_english_name",
		},
		Validator: ValidatorConfig{
			URL:              "https://extractor.torob.com/validate_token/",
			Timeout:          5 * time.Second,
			TransportTimeout: 12 * time.Second,
		},
		Catalog: CatalogConfig{Driver: DriverFile, File: "catalog.yaml"},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "postgres",
			SSLMode:  "disable",
		},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "catalog"},
		Logger:  LoggerConfig{Mode: "development", Filename: "feed.log"},
		Aliases: values.DefaultSpecAliases(),
	}
}

// LoadConfig reads an optional .env file, then the YAML file (if filename is not empty),
// then applies environment overrides.
func LoadConfig(filename string) (*AppConfig, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("Error loading .env file:", err)
		}
	}

	config := Default()
	if filename != "" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
	}

	config.applyEnv()
	config.Aliases = config.Aliases.WithDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) applyEnv() {
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Shop.URL = getEnv("SHOP_URL", c.Shop.URL)
	c.Feed.Version = getEnv("FEED_VERSION", c.Feed.Version)
	c.Validator.URL = getEnv("VALIDATOR_URL", c.Validator.URL)
	c.Catalog.Driver = getEnv("CATALOG_DRIVER", c.Catalog.Driver)
	c.Catalog.File = getEnv("CATALOG_FILE", c.Catalog.File)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)
	c.Logger.Mode = getEnv("LOG_MODE", c.Logger.Mode)
	c.Postgres.applyEnv()
}

func (c *AppConfig) Validate() error {
	switch c.Catalog.Driver {
	case DriverPostgres, DriverMongo:
	case DriverFile:
		if c.Catalog.File == "" {
			return errors.New("catalog.file is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	if c.Validator.URL == "" {
		return errors.New("validator.url is required")
	}
	if c.Feed.Version == "" {
		return errors.New("feed.version is required")
	}
	if _, err := c.ShopDomain(); err != nil {
		return err
	}
	return nil
}

// ShopDomain returns the shop host with a leading "www." removed.
func (c *AppConfig) ShopDomain() (string, error) {
	u, err := url.Parse(c.Shop.URL)
	if err != nil {
		return "", fmt.Errorf("invalid shop.url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("shop.url %q has no host", c.Shop.URL)
	}
	return strings.TrimPrefix(u.Hostname(), "www."), nil
}

// ShopBaseURL returns the shop URL without a trailing slash.
func (c *AppConfig) ShopBaseURL() string {
	return strings.TrimRight(c.Shop.URL, "/")
}
