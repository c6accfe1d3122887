package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"
	"mercury/backend/internal/adapter"
	"mercury/backend/internal/embedding"
	"mercury/backend/internal/graph"
	"mercury/backend/internal/social"
	"mercury/backend/pkg/config"
	"mercury/backend/pkg/logger"
)

func main() {
	path := flag.String("file", "data/seed.json", "Dataset of users, friendships and invites")
	migrate := flag.Bool("migrate", true, "Apply the schema before importing")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...", zap.String("file", *path))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	data, err := loadDatasetFile(*path)
	if err != nil {
		log.Fatal("Failed to load dataset", zap.Error(err))
	}

	var generator embedding.Generator
	if cfg.EmbeddingProvider == config.EmbeddingProviderOpenAI {
		generator = adapter.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	} else {
		vocab, err := embedding.LoadVocabularyFile(cfg.WordVectorsPath)
		if err != nil {
			log.Fatal("Failed to load word vectors", zap.Error(err))
		}
		generator = vocab
	}

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

	if *migrate {
		log.Info("Creating constraints and indexes...")
		if err := repo.EnsureSchema(ctx, cfg.EmbeddingDimensions); err != nil {
			log.Fatal("Failed to apply schema", zap.Error(err))
		}
		if err := repo.MarkSchemaApplied(ctx); err != nil {
			log.Warn("Failed to mark migration as applied", zap.Error(err))
		}
	}

	s := &seeder{
		store:     repo,
		generator: generator,
		hasher:    social.BcryptHasher{Cost: cfg.BcryptCost},
		log:       log,
	}
	stats, err := s.run(ctx, data)
	if err != nil {
		log.Fatal("Seeding failed",
			zap.Int("users_created", stats.Created),
			zap.Error(err),
		)
	}

	log.Info("Seed completed",
		zap.Int("users_created", stats.Created),
		zap.Int("users_skipped", stats.Skipped),
		zap.Int("friendships", stats.Friendships),
		zap.Int("invites", stats.Invites),
		zap.Int("invites_skipped", stats.SkippedInvites),
	)
}
