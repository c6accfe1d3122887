package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	apperrors "mercury/backend/pkg/errors"
)

// Embedding providers
const (
	EmbeddingProviderVocabulary = "vocabulary"
	EmbeddingProviderOpenAI     = "openai"
)

// Config holds all application configuration
type Config struct {
	// App
	Port        string
	Env         string
	CORSOrigins []string

	// Neo4j
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string
	Neo4jMaxPoolSize    int
	Neo4jTimeoutSeconds int

	// Embeddings
	EmbeddingProvider   string
	WordVectorsPath     string // word2vec text format, one token per line
	EmbeddingURL        string // OpenAI-compatible base URL
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingDimensions int
	VectorIndexName     string

	// Accounts
	BcryptCost int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "5000"),
		Env:                 getEnv("ENV", "development"),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", ""),
		Neo4jMaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		Neo4jTimeoutSeconds: getEnvInt("NEO4J_TIMEOUT_SECONDS", 10),
		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", EmbeddingProviderVocabulary),
		WordVectorsPath:     getEnv("WORD_VECTORS_PATH", "data/word_vectors.txt"),
		EmbeddingURL:        getEnv("EMBEDDING_URL", "http://localhost:4000"),
		EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 300),
		VectorIndexName:     getEnv("VECTOR_INDEX_NAME", "user-names"),
		BcryptCost:          getEnvInt("BCRYPT_COST", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.VectorIndexName == "" {
		return apperrors.NewConfigMissingRequired("VECTOR_INDEX_NAME")
	}
	if c.EmbeddingDimensions <= 0 {
		return apperrors.NewConfigValidationFailed("EMBEDDING_DIMENSIONS", "must be positive")
	}
	if c.Neo4jMaxPoolSize <= 0 {
		return apperrors.NewConfigValidationFailed("NEO4J_MAX_POOL_SIZE", "must be positive")
	}
	if c.Neo4jTimeoutSeconds <= 0 {
		return apperrors.NewConfigValidationFailed("NEO4J_TIMEOUT_SECONDS", "must be positive")
	}
	switch c.EmbeddingProvider {
	case EmbeddingProviderVocabulary:
		if c.WordVectorsPath == "" {
			return apperrors.NewConfigMissingRequired("WORD_VECTORS_PATH")
		}
	case EmbeddingProviderOpenAI:
		if c.EmbeddingURL == "" {
			return apperrors.NewConfigMissingRequired("EMBEDDING_URL")
		}
		if c.EmbeddingModel == "" {
			return apperrors.NewConfigMissingRequired("EMBEDDING_MODEL")
		}
	default:
		return apperrors.NewConfigValidationFailed("EMBEDDING_PROVIDER", fmt.Sprintf("unknown provider %q", c.EmbeddingProvider))
	}
	if len(c.CORSOrigins) == 0 {
		return apperrors.NewConfigMissingRequired("CORS_ORIGINS")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return apperrors.NewConfigValidationFailed("BCRYPT_COST", "must be between 4 and 31")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
