package common

import (
	"crypto/md5"
	"fmt"
	"time"
)

// Document is an ingested source file. The summary is AI-generated and its
// embedding is the vector used for document-level similarity.
//
// Documents own their chunks: deleting a document cascades to its chunks
// and their mention edges, but never to shared Entity nodes.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Created   time.Time `json:"created"`
	Summary   string    `json:"summary"`
	Size      int64     `json:"size"`
	Embedding []float32 `json:"-"`
}

// Chunk is a contiguous span of a document's text. Position is the 0-based
// index of the chunk within its document and is assigned from the original
// chunk order, never from completion order.
type Chunk struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// Entity is a named, typed concept mentioned by one or more chunks.
// Identity is the (name, type) pair; entities are shared across documents
// and upserted during ingestion.
type Entity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Embedding []float32 `json:"-"`
}

// EntityMention is the raw extraction result for a single entity before
// it is assigned an id and persisted.
type EntityMention struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Person is a named participant extracted from one document's text.
// Unlike Entity, a person node is scoped to the relation graph of a single
// document and carries no type or embedding.
type Person struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	RoleDesc string `json:"role_desc"`
}

// PersonRelation is a directed, labeled edge between two extracted persons.
// Event holds the free-text account of what happened between them.
type PersonRelation struct {
	Subject  string `json:"subject"`
	Object   string `json:"object"`
	Relation string `json:"relation"`
	Event    string `json:"event"`
}

// RelationExtraction is the structured result of the person/relation
// extraction pass over one chunk.
type RelationExtraction struct {
	Persons   []Person         `json:"persons"`
	Relations []PersonRelation `json:"relations"`
}

// ScoredChunk is a similarity search hit: the chunk, its parent document id
// and the cosine similarity against the query vector.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// EntityWithChunks annotates an entity with the ids of the retrieved chunks
// that mention it, used for visualization grouping.
type EntityWithChunks struct {
	Entity
	ChunkIDs []string `json:"chunk_ids"`
}

// GraphNode is a node in the visualization graph returned with answers.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// GraphEdge is an edge in the visualization graph.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// GraphData is the visualization payload: nodes for documents, chunks and
// entities, plus contains/mentions edges.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// ChatMessage is one turn of a stored conversation. Role is "user" or
// "assistant".
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// DocumentID derives a document id from the title and creation time.
// The timestamp is part of the hash, so re-uploading the same file yields
// a new id.
func DocumentID(title string, created time.Time) string {
	return md5Hex(fmt.Sprintf("%s_%s", title, created.Format("2006-01-02 15:04:05")))
}

// ChunkID derives the id of the chunk at the given position of a document.
func ChunkID(docID string, position int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, position)
}

// EntityID derives a globally stable entity id from the (name, type) pair.
func EntityID(name string, entityType string) string {
	return md5Hex(fmt.Sprintf("%s_%s", name, entityType))
}

func md5Hex(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}
