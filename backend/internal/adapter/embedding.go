package adapter

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// EmbeddingClient generates token embeddings through an OpenAI-compatible
// embeddings endpoint (OpenAI, LiteLLM, Ollama...).
type EmbeddingClient struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewEmbeddingClient creates a new embedding client.
// dimensions is forwarded to models that support shortening; 0 keeps the model default.
func NewEmbeddingClient(baseURL, apiKey, model string, dimensions int) *EmbeddingClient {
	// Self-hosted gateways accept any key
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"

	return &EmbeddingClient{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
		logger:     logger.Named("embedding"),
	}
}

// Model returns the embedding model requested from the endpoint
func (c *EmbeddingClient) Model() string {
	return c.model
}

// Embed returns the embedding of a single token. Blank tokens and tokens
// containing anything but letters are unsupported and yield nil, matching the
// vocabulary generator.
func (c *EmbeddingClient) Embed(ctx context.Context, token string) ([]float64, error) {
	token = strings.TrimSpace(token)
	if !isNameToken(token) {
		return nil, nil
	}

	model := c.model
	req := openai.EmbeddingRequest{
		Input:      []string{strings.ToLower(token)},
		Model:      openai.EmbeddingModel(model),
		Dimensions: c.dimensions,
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		c.logger.Error("Embedding request failed",
			zap.Error(err),
			zap.String("model", model),
		)
		return nil, apperrors.NewEmbeddingFailed(model, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		c.logger.Warn("Embedding response carried no vector", zap.String("model", model))
		return nil, nil
	}

	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, x := range raw {
		vec[i] = float64(x)
	}

	c.logger.Debug("Embedding generated",
		zap.String("model", model),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}

func isNameToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
