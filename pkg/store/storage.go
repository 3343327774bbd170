package store

import (
	"context"

	"github.com/marula-ai/marula/pkg/common"
)

// GraphStorage translates domain operations into graph-store queries.
// Documents own chunks (CONTAINS), chunks mention entities (MENTIONS),
// and documents carry a per-document person/relation graph. Each write is
// its own implicit transaction; no transaction spans multiple writes, so
// readers must tolerate partially-populated documents.
type GraphStorage interface {
	CreateDocument(ctx context.Context, doc common.Document) error
	// CreateChunk persists the chunk and links it under its document.
	CreateChunk(ctx context.Context, chunk common.Chunk) error
	// UpsertEntity is an idempotent create-or-update keyed by entity id.
	UpsertEntity(ctx context.Context, entity common.Entity) error
	// LinkChunkEntity creates a MENTIONS edge; repeated calls are no-ops.
	LinkChunkEntity(ctx context.Context, chunkID string, entityID string) error

	// ListDocuments returns documents whose title contains titleFilter
	// (all documents when empty), newest first.
	ListDocuments(ctx context.Context, titleFilter string) ([]common.Document, error)
	GetDocument(ctx context.Context, docID string) (*common.Document, error)
	// GetDocumentChunks returns chunks ordered by position ascending. The
	// ordering is load-bearing: it reconstructs the original text.
	GetDocumentChunks(ctx context.Context, docID string) ([]common.Chunk, error)

	// SimilaritySearch ranks chunks with a non-null embedding by cosine
	// similarity to the query vector, descending, and returns the top
	// limit hits with score and parent document id.
	SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]common.ScoredChunk, error)
	// EntitiesForChunks returns entities mentioned by any of the given
	// chunks, each annotated with the contributing chunk ids.
	EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]common.EntityWithChunks, error)

	// DeleteDocument removes the document, its chunks and their mention
	// edges. Entity nodes are preserved; they may be shared with other
	// documents.
	DeleteDocument(ctx context.Context, docID string) error

	// UpsertPerson persists a person node scoped to the document's
	// relation graph together with its role edge.
	UpsertPerson(ctx context.Context, docID string, person common.Person) error
	// LinkPersons persists a validated person-to-person relation edge.
	LinkPersons(ctx context.Context, docID string, relation common.PersonRelation) error

	AppendChatMessage(ctx context.Context, conversationID string, msg common.ChatMessage) error
	GetChatMessages(ctx context.Context, conversationID string) ([]common.ChatMessage, error)
}
