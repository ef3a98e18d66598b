package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
)

// Embedder implements ports.Embedder over OpenAI's embeddings API. It backs
// both title embedding (TitleIndexRegistry ingestion, EvidenceRetriever
// stage C) and article-body embedding (ArticleIndexCache).
type Embedder struct {
	client         *openai.Client
	model          openai.EmbeddingModel
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
}

// NewEmbedder constructs an Embedder with the given OpenAI API key.
func NewEmbedder(apiKey string, timeout time.Duration) *Embedder {
	return &Embedder{
		client:         openai.NewClient(apiKey),
		model:          openai.AdaEmbeddingV2,
		circuitBreaker: circuitbreaker.New(circuitbreaker.EmbedderConfig()),
		retryConfig:    retry.EmbedderConfig(),
		timeout:        timeout,
	}
}

// EmbedDocuments embeds a batch of documents (titles or article bodies) in
// one request.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	return e.embed(ctx, docs)
}

// EmbedQuery embeds a single query string, used by EvidenceRetriever's
// Stage-C fallback.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var vectors [][]float32
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doEmbed(ctx, inputs)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("embedder unavailable: circuit breaker open")
			}
			return err
		}
		vectors = result.([][]float32)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("embed documents failed after retries: %w", retryErr)
	}
	return vectors, nil
}

func (e *Embedder) doEmbed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}
	return orderEmbeddings(resp.Data, len(inputs))
}

// orderEmbeddings rebuilds the per-input vector slice from OpenAI's
// embedding data, which is not guaranteed to arrive in input order.
func orderEmbeddings(data []openai.Embedding, nInputs int) ([][]float32, error) {
	if len(data) != nInputs {
		return nil, fmt.Errorf("openai embeddings api returned %d vectors for %d inputs", len(data), nInputs)
	}
	vectors := make([][]float32, nInputs)
	for _, d := range data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
