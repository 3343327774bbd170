package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/marula-ai/marula/pkg/common"
)

// CreateChunk persists a chunk under its document. Chunk ids are derived
// from document id and position, so re-ingestion overwrites in place.
func (s *GraphDBStorage) CreateChunk(ctx context.Context, chunk common.Chunk) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO chunks (id, doc_id, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`, chunk.ID, chunk.DocID, chunk.Position, chunk.Content, pgvector.NewVector(chunk.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// GetDocumentChunks returns the document's chunks ordered by position.
// Concatenating the contents in order reconstructs the ingested text.
func (s *GraphDBStorage) GetDocumentChunks(ctx context.Context, docID string) ([]common.Chunk, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, doc_id, position, content
		FROM chunks
		WHERE doc_id = $1
		ORDER BY position ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []common.Chunk
	for rows.Next() {
		var chunk common.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocID, &chunk.Position, &chunk.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// SimilaritySearch ranks chunks by cosine similarity to the query vector
// and returns the top limit hits. Chunks without an embedding never match.
func (s *GraphDBStorage) SimilaritySearch(
	ctx context.Context,
	embedding []float32,
	limit int,
) ([]common.ScoredChunk, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, doc_id, position, content, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var hits []common.ScoredChunk
	for rows.Next() {
		var hit common.ScoredChunk
		if err := rows.Scan(&hit.ID, &hit.DocID, &hit.Position, &hit.Content, &hit.Score); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
