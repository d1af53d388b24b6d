package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the server needs from the environment.
type Config struct {
	Port        string
	AppURL      string
	FrontendURL string
	PublicURL   string
	UseTunnel   bool

	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyScopes     string
	ShopifyAPIVersion string

	TokenStore string
	TokenFile  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	ValidateTokens bool
	RequestTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the Shopify API credentials.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("USE_TUNNEL", false)
	v.SetDefault("SHOPIFY_SCOPES", "read_products,write_products")
	v.SetDefault("SHOPIFY_API_VERSION", "2025-04")
	v.SetDefault("TOKEN_STORE", "file")
	v.SetDefault("TOKEN_FILE", "db.json")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "shopify_product_editor")
	v.SetDefault("VALIDATE_TOKENS", false)
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	cfg := &Config{
		Port:        v.GetString("PORT"),
		AppURL:      v.GetString("APP_URL"),
		FrontendURL: v.GetString("FRONTEND_URL"),
		PublicURL:   v.GetString("PUBLIC_URL"),
		UseTunnel:   v.GetBool("USE_TUNNEL"),

		ShopifyAPIKey:     v.GetString("SHOPIFY_API_KEY"),
		ShopifyAPISecret:  v.GetString("SHOPIFY_API_SECRET"),
		ShopifyScopes:     v.GetString("SHOPIFY_SCOPES"),
		ShopifyAPIVersion: v.GetString("SHOPIFY_API_VERSION"),

		TokenStore: v.GetString("TOKEN_STORE"),
		TokenFile:  v.GetString("TOKEN_FILE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		MongoURI:      v.GetString("MONGODB_URI"),
		MongoDatabase: v.GetString("MONGODB_DATABASE"),

		ValidateTokens: v.GetBool("VALIDATE_TOKENS"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
	}

	if cfg.ShopifyAPIKey == "" || cfg.ShopifyAPISecret == "" {
		return nil, errors.New("SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required")
	}

	if cfg.AppURL == "" {
		cfg.AppURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	switch cfg.TokenStore {
	case "file", "redis", "mongo":
	default:
		return nil, fmt.Errorf("unknown TOKEN_STORE %q: expected file, redis or mongo", cfg.TokenStore)
	}

	return cfg, nil
}
