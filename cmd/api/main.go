package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"shopify-product-editor/internal/application"
	"shopify-product-editor/internal/config"
	apiinfra "shopify-product-editor/internal/infrastructure/api"
	shopifyinfra "shopify-product-editor/internal/infrastructure/shopify"
	"shopify-product-editor/internal/infrastructure/store"
	"shopify-product-editor/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Token persistence backend
	var tokenStore ports.TokenStore
	switch cfg.TokenStore {
	case "file":
		fileStore, err := store.NewFileStore(cfg.TokenFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.TokenFile).Msg("Failed to open token file")
		}
		tokenStore = fileStore
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		tokenStore = store.NewRedisStore(rdb)
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(ctx)
		tokenStore = store.NewMongoStore(client.Database(cfg.MongoDatabase))
	}
	logger.Info().Str("backend", cfg.TokenStore).Msg("Token store initialized")

	// Shopify clients
	oauthClient := shopifyinfra.NewOAuthClient(
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.ShopifyScopes,
		cfg.AppURL,
		cfg.RequestTimeout,
		logger,
	)
	gqlClient := shopifyinfra.NewGraphQLClient(cfg.ShopifyAPIVersion, cfg.RequestTimeout, logger)
	gateway := shopifyinfra.NewGateway(gqlClient, logger)

	var validator ports.TokenValidator
	if cfg.ValidateTokens {
		validator = shopifyinfra.NewTokenValidator(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, logger)
	}

	// Application services
	authService := application.NewAuthService(tokenStore, oauthClient, logger)
	productService := application.NewProductService(tokenStore, gateway, validator, logger)

	handler := apiinfra.NewHandler(
		authService,
		productService,
		cfg.ShopifyAPISecret,
		cfg.FrontendURL,
		cfg.PublicURL,
		cfg.UseTunnel,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiinfra.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	handler.Register(r)

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
