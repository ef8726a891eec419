// Package embedding provides text embedding generation with multiple
// backend support. The provider is a pure text -> vector function behind
// an interface so tests can substitute a deterministic stub.
package embedding

import (
	"context"
	"fmt"

	"github.com/daedalus-s/threat-gdg-adk/internal/config"
)

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// More efficient than multiple Embed calls for bulk operations.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// CRITICAL: Must match the HNSW index dimension in the store schema.
	Dimension() int
}

// New creates an Embedder based on the provided configuration.
func New(cfg config.Config) (Embedder, error) {
	switch cfg.EmbedProvider {
	case config.ProviderOllama, config.ProviderOpenAI, "":
		return NewLangchainEmbedder(cfg)
	case config.ProviderVoyage:
		return NewVoyageClient(cfg.VoyageAPIKey, cfg.EmbedModel, cfg.EmbedDimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbedProvider)
	}
}
