package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"mercury/backend/internal/graph"
	"mercury/backend/pkg/config"
	"mercury/backend/pkg/logger"
)

func main() {
	force := flag.Bool("force", false, "Force migration even if already applied")
	dryRun := flag.Bool("dry-run", false, "Print the statements without running them")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Neo4j schema migration...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if *dryRun {
		repo := graph.NewRepository(nil, graph.WithVectorIndex(cfg.VectorIndexName))
		migrations, err := repo.Migrations(cfg.EmbeddingDimensions)
		if err != nil {
			log.Fatal("Invalid migration settings", zap.Error(err))
		}
		for _, m := range migrations {
			fmt.Printf("-- %s\n%s;\n\n", m.Name, m.Query)
		}
		return
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

	// Check if migration already applied
	if !*force {
		applied, err := repo.SchemaApplied(ctx)
		if err != nil {
			log.Fatal("Failed to check migration status", zap.Error(err))
		}
		if applied {
			log.Info("Migration already applied. Use -force to reapply.",
				zap.String("version", graph.SchemaVersion),
			)
			os.Exit(0)
		}
	}

	if err := repo.EnsureSchema(ctx, cfg.EmbeddingDimensions); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	if err := repo.MarkSchemaApplied(ctx); err != nil {
		log.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	log.Info("Migration completed successfully!",
		zap.String("version", graph.SchemaVersion),
		zap.String("vector_index", cfg.VectorIndexName),
		zap.Int("dimensions", cfg.EmbeddingDimensions),
	)
}
