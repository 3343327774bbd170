package llm

import (
	"context"
	"time"

	"github.com/marula-ai/marula/internal/util"
	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/logger"
)

const defaultDimension = 768

// Embedder wraps an embedding backend with retry and a degrade-to-neutral
// fallback: when every attempt fails, Embed returns a zero vector of the
// configured dimension instead of an error. Zero vectors rank last in
// cosine similarity, so downstream search still executes.
type Embedder struct {
	client    ai.Embedder
	dim       int
	maxTries  int
	baseDelay time.Duration
}

// NewEmbedderParams contains configuration for creating an Embedder.
type NewEmbedderParams struct {
	Client    ai.Embedder
	Dimension int
	MaxTries  int
	BaseDelay time.Duration
}

// NewEmbedder creates an Embedder with the provided configuration.
// Dimension defaults to 768, MaxTries to 3 and BaseDelay to 500ms.
func NewEmbedder(params NewEmbedderParams) *Embedder {
	dim := params.Dimension
	if dim <= 0 {
		dim = defaultDimension
	}
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 3
	}
	baseDelay := params.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Embedder{
		client:    params.Client,
		dim:       dim,
		maxTries:  maxTries,
		baseDelay: baseDelay,
	}
}

// Dimension returns the configured embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Embed returns the embedding vector for text. It is a total function:
// empty input or exhausted retries yield a zero vector of the configured
// dimension. Oversized results are truncated and undersized results
// zero-padded so every caller sees a uniform dimension.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	if text == "" {
		return make([]float32, e.dim)
	}

	vec, err := util.RetryBackoff(ctx, e.maxTries, e.baseDelay, func(rCtx context.Context) ([]float32, error) {
		return e.client.GenerateEmbedding(rCtx, []byte(text))
	})
	if err != nil {
		logger.Warn("[LLM] Embedding failed, falling back to zero vector", "err", err)
		return make([]float32, e.dim)
	}

	if len(vec) > e.dim {
		vec = vec[:e.dim]
	}
	if len(vec) < e.dim {
		padded := make([]float32, e.dim)
		copy(padded, vec)
		vec = padded
	}
	return vec
}
