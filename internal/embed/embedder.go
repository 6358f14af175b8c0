// Package embed turns memory text into vectors for similarity retrieval.
package embed

import (
	"context"
	"fmt"

	"github.com/easeaico/mnemosyne/internal/config"
)

// Embedder converts text into vector representations. Query and document
// embeddings are separate because some providers optimize the two task
// types differently.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the configured embedder. An empty provider disables embedding
// and the retriever falls back to lexical matching.
func New(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "genai":
		return newGenAIEmbedder(ctx, cfg)
	case "openai":
		return newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
