package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"variantsync-backend/config"
	"variantsync-backend/internal/delivery/http/middleware"
	v1 "variantsync-backend/internal/delivery/http/v1"
	"variantsync-backend/internal/domain"
	"variantsync-backend/internal/infrastructure/cache"
	"variantsync-backend/internal/infrastructure/shopify"
	"variantsync-backend/internal/repository/postgres"
	"variantsync-backend/internal/usecase"
	"variantsync-backend/pkg/logger"
	"variantsync-backend/pkg/storage"

	"github.com/NYTimes/gziphandler"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Initialize Database with pgx
	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Initialize Repositories
	snapshotRepo := postgres.NewSnapshotRepository(pgxPool)
	productLocker := postgres.NewProductLocker(pgxPool)
	txManager := postgres.NewTransactionManager(pgxPool)

	// Store registry, built once and injected explicitly
	stores := make(map[string]domain.Store, len(cfg.Stores))
	for key, sc := range cfg.Stores {
		stores[key] = domain.Store{Key: sc.Key, Name: sc.Name, URL: sc.URL, Token: sc.Token}
	}
	log.Info().Int("stores", len(stores)).Str("api_version", cfg.ShopifyAPIVersion).Msg("Store registry loaded")

	// Shopify Admin API client with per-store throttle
	shopifyClient := shopify.NewClient(cfg.ShopifyAPIVersion, cfg.ShopifyTimeout, cfg.ShopifyRateLimit, cfg.ShopifyRateBurst)

	// Optional R2 image mirror
	var mirror usecase.ImageMirror
	if cfg.R2AccountID != "" {
		r2Storage, err := storage.NewR2Storage(
			context.Background(),
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		mirror = r2Storage
		log.Info().Str("bucket", cfg.R2BucketName).Msg("R2 image mirror enabled")
	}

	// Webhook debounce cache
	memCache := cache.NewMemoryCache(cfg.WebhookDebounceTTL, 5*time.Minute)

	// --- Modules Initialization ---

	syncUC := usecase.NewSyncUsecase(shopifyClient, snapshotRepo, productLocker, txManager, stores, mirror)
	sweepUC := usecase.NewSweepUsecase(syncUC, cfg.SweepPageSize)

	syncHandler := v1.NewSyncHandler(syncUC, sweepUC)
	webhookHandler := v1.NewWebhookHandler(syncUC, memCache, cfg.WebhookDebounceTTL)

	// Set up Router
	mux := http.NewServeMux()

	// Product sync
	mux.HandleFunc("POST /api/v1/sync/products/{id}", syncHandler.SyncProduct)
	mux.HandleFunc("DELETE /api/v1/sync/products/{id}/images", syncHandler.DeleteVariantImages)

	// Fleet sweep
	mux.HandleFunc("POST /api/v1/sync/run", syncHandler.StartSweep)
	mux.HandleFunc("DELETE /api/v1/sync/run", syncHandler.CancelSweep)
	mux.HandleFunc("GET /api/v1/sync/run", syncHandler.SweepStatus)

	// Webhooks
	mux.HandleFunc("POST /api/v1/webhooks/{store}/products", webhookHandler.ProductUpdated)

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok", "db": "connected"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,            // requests per second
		100,           // burst
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Stop background work before closing the listener: a running sweep
	// persists its cursor and can resume on the next start.
	sweepUC.Shutdown()
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
