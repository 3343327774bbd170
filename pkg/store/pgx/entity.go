package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/marula-ai/marula/pkg/common"
)

// UpsertEntity persists an entity node. Entities are shared across
// documents and keyed by name and type, so repeated mentions converge on
// one node.
func (s *GraphDBStorage) UpsertEntity(ctx context.Context, entity common.Entity) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO entities (id, name, type, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding
	`, entity.ID, entity.Name, entity.Type, pgvector.NewVector(entity.Embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}
	return nil
}

// LinkChunkEntity creates a mention edge between a chunk and an entity.
// Repeated calls for the same pair are no-ops.
func (s *GraphDBStorage) LinkChunkEntity(ctx context.Context, chunkID string, entityID string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO chunk_entities (chunk_id, entity_id)
		VALUES ($1, $2)
		ON CONFLICT (chunk_id, entity_id) DO NOTHING
	`, chunkID, entityID)
	if err != nil {
		return fmt.Errorf("failed to link chunk to entity: %w", err)
	}
	return nil
}

// EntitiesForChunks returns the entities mentioned by any of the given
// chunks, each with the contributing chunk ids.
func (s *GraphDBStorage) EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]common.EntityWithChunks, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT e.id, e.name, e.type, ce.chunk_id
		FROM entities e
		JOIN chunk_entities ce ON ce.entity_id = e.id
		WHERE ce.chunk_id = ANY($1)
		ORDER BY e.name ASC
	`, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get entities for chunks: %w", err)
	}
	defer rows.Close()

	indexByID := make(map[string]int)
	var entities []common.EntityWithChunks
	for rows.Next() {
		var entity common.Entity
		var chunkID string
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Type, &chunkID); err != nil {
			return nil, err
		}
		if idx, ok := indexByID[entity.ID]; ok {
			entities[idx].ChunkIDs = append(entities[idx].ChunkIDs, chunkID)
			continue
		}
		indexByID[entity.ID] = len(entities)
		entities = append(entities, common.EntityWithChunks{
			Entity:   entity,
			ChunkIDs: []string{chunkID},
		})
	}
	return entities, rows.Err()
}
