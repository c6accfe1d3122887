package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"mercury/backend/internal/adapter"
	"mercury/backend/internal/api"
	"mercury/backend/internal/embedding"
	"mercury/backend/internal/graph"
	"mercury/backend/internal/social"
	"mercury/backend/pkg/config"
	"mercury/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...", zap.String("env", cfg.Env))

	// Initialize Neo4j driver
	ctx := context.Background()
	driver, err := graph.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	repo := graph.NewRepository(driver,
		graph.WithDatabase(cfg.Neo4jDatabase),
		graph.WithVectorIndex(cfg.VectorIndexName),
	)
	defer repo.Close()

	applied, err := repo.SchemaApplied(ctx)
	if err != nil {
		log.Fatal("Failed to check schema", zap.Error(err))
	}
	if !applied {
		log.Warn("Schema migration has not been applied, run cmd/migrate")
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedding generator", zap.Error(err))
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, newServices(cfg, repo, generator), log)

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// newGenerator picks the embedding backend named by EMBEDDING_PROVIDER
func newGenerator(cfg *config.Config) (embedding.Generator, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		client := adapter.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
		logger.Get().Info("Using remote embeddings",
			zap.String("url", cfg.EmbeddingURL),
			zap.String("model", client.Model()),
		)
		return client, nil
	case config.EmbeddingProviderVocabulary:
		vocab, err := embedding.LoadVocabularyFile(cfg.WordVectorsPath)
		if err != nil {
			return nil, err
		}
		if vocab.Dimensions() != cfg.EmbeddingDimensions {
			return nil, fmt.Errorf("word vectors have %d dimensions, EMBEDDING_DIMENSIONS is %d",
				vocab.Dimensions(), cfg.EmbeddingDimensions)
		}
		logger.Get().Info("Loaded word vectors",
			zap.String("path", cfg.WordVectorsPath),
			zap.Int("tokens", vocab.Len()),
		)
		return vocab, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newServices(cfg *config.Config, store social.Store, generator embedding.Generator) api.Services {
	return api.Services{
		Relationships: social.NewRelationships(store),
		Listings:      social.NewListings(store),
		Search:        social.NewSearcher(store, generator),
		Accounts:      social.NewAccounts(store, generator, social.BcryptHasher{Cost: cfg.BcryptCost}),
	}
}

func newRouter(cfg *config.Config, svc api.Services, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(api.CORS(cfg.CORSOrigins))

	api.NewHandler(svc).Register(router)
	return router
}
