package embed

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/easeaico/mnemosyne/internal/config"
)

// GenAIEmbedder embeds text with the Gemini embedding models.
type GenAIEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

func newGenAIEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (*GenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google api key is required for embeddings")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = 768
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (e *GenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (e *GenAIEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (e *GenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.EmbedDocument(ctx, text)
		if err != nil {
			return nil, err
		}
		results = append(results, vec)
	}
	return results, nil
}

func (e *GenAIEmbedder) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: func() *int32 { v := int32(e.dimensions); return &v }(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("empty embedding response")
	}
	values := resp.Embeddings[0].Values
	if len(values) == e.dimensions {
		return values, nil
	}
	if len(values) > e.dimensions {
		slog.Warn("embedding dimensions exceed target, truncating", "actual", len(values), "target", e.dimensions, "model", e.model)
		return values[:e.dimensions], nil
	}
	return nil, fmt.Errorf("embedding dimensions mismatch: got %d want %d", len(values), e.dimensions)
}
