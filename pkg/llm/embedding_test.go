package llm

import (
	"context"
	"testing"
	"time"
)

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestEmbedder_EmptyInputYieldsZeroVector(t *testing.T) {
	client := &fakeEmbedder{vector: []float32{1, 2, 3}}
	embedder := NewEmbedder(NewEmbedderParams{Client: client, Dimension: 4})

	vec := embedder.Embed(context.Background(), "")
	if len(vec) != 4 {
		t.Fatalf("expected dimension 4, got %d", len(vec))
	}
	if !isZeroVector(vec) {
		t.Fatalf("expected zero vector, got %v", vec)
	}
	if client.calls != 0 {
		t.Fatalf("expected no backend calls for empty input, got %d", client.calls)
	}
}

func TestEmbedder_FailureDegradesToZeroVector(t *testing.T) {
	client := &fakeEmbedder{err: errBackendDown}
	embedder := NewEmbedder(NewEmbedderParams{
		Client:    client,
		Dimension: 8,
		MaxTries:  2,
		BaseDelay: time.Millisecond,
	})

	vec := embedder.Embed(context.Background(), "some text")
	if len(vec) != 8 {
		t.Fatalf("expected dimension 8, got %d", len(vec))
	}
	if !isZeroVector(vec) {
		t.Fatalf("expected zero vector, got %v", vec)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.calls)
	}
}

func TestEmbedder_PadsAndTruncatesToDimension(t *testing.T) {
	client := &fakeEmbedder{vector: []float32{1, 2}}
	embedder := NewEmbedder(NewEmbedderParams{Client: client, Dimension: 4})

	vec := embedder.Embed(context.Background(), "text")
	if len(vec) != 4 {
		t.Fatalf("expected dimension 4, got %d", len(vec))
	}
	if vec[0] != 1 || vec[1] != 2 || vec[2] != 0 || vec[3] != 0 {
		t.Fatalf("expected zero-padded vector, got %v", vec)
	}

	client.vector = []float32{1, 2, 3, 4, 5, 6}
	vec = embedder.Embed(context.Background(), "text")
	if len(vec) != 4 {
		t.Fatalf("expected truncation to 4, got %d", len(vec))
	}
}

func TestEmbedder_DefaultDimension(t *testing.T) {
	embedder := NewEmbedder(NewEmbedderParams{Client: &fakeEmbedder{err: errBackendDown}, MaxTries: 1, BaseDelay: time.Millisecond})
	if embedder.Dimension() != 768 {
		t.Fatalf("expected default dimension 768, got %d", embedder.Dimension())
	}
	if vec := embedder.Embed(context.Background(), "x"); len(vec) != 768 {
		t.Fatalf("expected 768-dim fallback vector, got %d", len(vec))
	}
}
