package embed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/easeaico/mnemosyne/internal/config"
)

// OpenAIEmbedder embeds text with the OpenAI embeddings API. OpenAI models
// do not distinguish query and document embeddings.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
}

func newOpenAIEmbedder(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required for embeddings")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = 768
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

func (e *OpenAIEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: param.NewOpt(int64(e.dimensions)),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d want %d", len(resp.Data), len(texts))
	}

	results := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		results = append(results, toFloat32(data.Embedding))
	}
	return results, nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: param.NewOpt(int64(e.dimensions)),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

func toFloat32(values []float64) []float32 {
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v)
	}
	return result
}
