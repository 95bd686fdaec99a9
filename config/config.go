package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port        string `envconfig:"WEBAPP_PORT"  default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// GrpcPort serves grpc.health.v1; empty disables it.
	GrpcPort       string        `envconfig:"GRPC_PORT"       default:":50051"`
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`

	CatalogServiceURL string        `envconfig:"CATALOG_SERVICE_URL" default:"http://localhost:8989/catalog"`
	CatalogTimeout    time.Duration `envconfig:"CATALOG_TIMEOUT"     default:"5s"`

	// Embedded so envconfig reads their tags without a field-name prefix.
	Products
	Site
}

// Products is where the product page loader fetches from. An empty
// BaseURL means same origin; Origin is then used to resolve the path when the
// loader runs outside a browser.
type Products struct {
	BaseURL string `envconfig:"PRODUCTS_BASE_URL"`
	Path    string `envconfig:"PRODUCTS_PATH"   default:"/api/products"`
	Origin  string `envconfig:"PRODUCTS_ORIGIN" default:"http://localhost:8080"`
	Policy  string `envconfig:"LOAD_POLICY"     default:"last-response"`

	// CartBaseURL is the origin of the cart API used by the terminal
	// browser. Empty means the same origin as the products endpoint.
	CartBaseURL string `envconfig:"CART_BASE_URL"`
}

// CartURL returns the cart API origin, falling back to productsBaseURL.
func CartURL(cartBaseURL, productsBaseURL string) string {
	if cartBaseURL != "" {
		return cartBaseURL
	}
	return productsBaseURL
}

type Site struct {
	Title       string `envconfig:"SITE_TITLE"       default:"Book Store - Your Gateway to Knowledge"`
	Description string `envconfig:"SITE_DESCRIPTION" default:"Welcome to the Book Store, where you can explore a vast collection of books from various genres and authors. Discover your next great read today!"`
	Creator     string `envconfig:"SITE_CREATOR"     default:"Jagdish Salgotra"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if cfg.HealthInterval <= 0 {
		return nil, fmt.Errorf("invalid HEALTH_INTERVAL %s: must be positive", cfg.HealthInterval)
	}
	if cfg.Products.Policy != "last-response" && cfg.Products.Policy != "latest-request" {
		return nil, fmt.Errorf("invalid LOAD_POLICY %q: want last-response or latest-request", cfg.Products.Policy)
	}

	logger.Infof("Configuration loaded: Port=%s, LogLevel=%s, Catalog=%s", cfg.Port, cfg.LogLevel, cfg.CatalogServiceURL)
	if cfg.DatabaseURL != "" {
		logger.Info("Configuration loaded: DatabaseURL is set")
	} else {
		logger.Warn("Configuration: DATABASE_URL is not set, carts are kept in memory")
	}
	if cfg.Products.BaseURL == "" {
		logger.Infof("Configuration loaded: products endpoint is same-origin %s (resolved against %s)", cfg.Products.Path, cfg.Products.Origin)
	} else {
		logger.Infof("Configuration loaded: products endpoint is %s%s", cfg.Products.BaseURL, cfg.Products.Path)
	}
	return &cfg, nil
}

// NewLogger builds the JSON logrus logger every component receives. An
// empty level means info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	SetLogLevel(logger, level)
	return logger
}

// SetLogLevel applies level to logger. It runs again once LoadConfig has
// read LOG_LEVEL, which may come from the .env file.
func SetLogLevel(logger *logrus.Logger, level string) {
	if level == "" {
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, logLevel.String())
	}
	logger.SetLevel(logLevel)
}
