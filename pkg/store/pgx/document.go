package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/logger"
)

// CreateDocument persists a document node. The id is content-derived, so
// re-ingesting the same title at the same timestamp overwrites in place.
func (s *GraphDBStorage) CreateDocument(ctx context.Context, doc common.Document) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO documents (id, title, created, summary, size, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			summary = EXCLUDED.summary,
			size = EXCLUDED.size,
			embedding = EXCLUDED.embedding
	`, doc.ID, doc.Title, doc.Created, doc.Summary, doc.Size, pgvector.NewVector(doc.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("[Store] Document created", "doc_id", doc.ID, "title", doc.Title)
	return nil
}

// ListDocuments returns documents whose title contains titleFilter, newest
// first. An empty filter returns all documents.
func (s *GraphDBStorage) ListDocuments(ctx context.Context, titleFilter string) ([]common.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, title, created, summary, size
		FROM documents
		WHERE $1 = '' OR title LIKE '%' || $1 || '%'
		ORDER BY created DESC
	`, titleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []common.Document
	for rows.Next() {
		var doc common.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Created, &doc.Summary, &doc.Size); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetDocument returns the document with the given id, or nil when it does
// not exist.
func (s *GraphDBStorage) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	var doc common.Document
	err := s.conn.QueryRow(ctx, `
		SELECT id, title, created, summary, size
		FROM documents
		WHERE id = $1
	`, docID).Scan(&doc.ID, &doc.Title, &doc.Created, &doc.Summary, &doc.Size)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes the document together with its chunks, mention
// edges and the per-document person graph via cascading foreign keys.
// Entity nodes stay; they may be referenced by other documents.
func (s *GraphDBStorage) DeleteDocument(ctx context.Context, docID string) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", docID)
	}

	logger.Debug("[Store] Document deleted", "doc_id", docID)
	return nil
}
