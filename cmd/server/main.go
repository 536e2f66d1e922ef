package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"papalote-market/config"
	"papalote-market/internal/api"
	"papalote-market/internal/broker"
	"papalote-market/internal/cart"
	"papalote-market/internal/catalog"
	"papalote-market/internal/comparison"
	"papalote-market/internal/recent"
	"papalote-market/internal/recommend"
	"papalote-market/internal/storage"
	"papalote-market/internal/util"
	"papalote-market/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting Papalote Market commerce core")

	tp, err := util.InitTracer("papalote-market", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	redisStore, err := storage.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisStore.Close()
	log.Println("Redis connected")

	cache, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Catalog loaded: %d products", cache.Len())

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCart)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	tracker := recent.NewTracker(redisStore)
	engine := recommend.NewEngine(tracker)
	shoppingCart := cart.New(redisStore, eventPublisher, cfg.Market.Currency)
	comparisonSet := comparison.New(comparison.Options{
		Store:       redisStore,
		MaxProducts: cfg.Market.ComparisonMax,
		Persist:     cfg.Market.PersistCompare,
		OnLimitReached: func() {
			logger.Info("Comparison limit reached")
		},
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	analyticsConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCart, cfg.Kafka.ConsumerGroup)
	analyticsWorker := worker.NewAnalyticsWorker(analyticsConsumer, redisStore)
	go func() {
		if err := analyticsWorker.Start(workerCtx); err != nil {
			log.Printf("Analytics worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(shoppingCart, comparisonSet, tracker, engine, cache, redisStore)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	analyticsWorker.Stop()

	log.Println("Server exited")
}

// loadCatalog builds the in-memory catalog snapshot from the configured
// source: the static JSON file the storefront ships, or the products table.
func loadCatalog(cfg *config.Config) (*catalog.Cache, error) {
	switch cfg.Catalog.Source {
	case "postgres":
		store, err := catalog.NewStore(cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		products, err := store.GetProducts(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.NewCache(products), nil

	default:
		products, err := catalog.LoadFile(cfg.Catalog.FilePath)
		if err != nil {
			return nil, err
		}
		return catalog.NewCache(products), nil
	}
}
