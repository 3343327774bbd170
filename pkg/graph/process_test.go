package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/llm"
)

type fakeAIClient struct {
	completion    string
	completionErr error
	embedding     []float32
	embeddingErr  error
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if f.completionErr != nil {
		return "", f.completionErr
	}
	return f.completion, nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	return f.completionErr
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if f.embeddingErr != nil {
		return nil, f.embeddingErr
	}
	return f.embedding, nil
}

type memoryStorage struct {
	mu        sync.Mutex
	documents map[string]common.Document
	chunks    map[string]common.Chunk
	entities  map[string]common.Entity
	mentions  map[string][]string
	persons   []common.Person
	relations []common.PersonRelation
	chats     map[string][]common.ChatMessage

	createChunkErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		documents: make(map[string]common.Document),
		chunks:    make(map[string]common.Chunk),
		entities:  make(map[string]common.Entity),
		mentions:  make(map[string][]string),
		chats:     make(map[string][]common.ChatMessage),
	}
}

func (s *memoryStorage) CreateDocument(ctx context.Context, doc common.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *memoryStorage) CreateChunk(ctx context.Context, chunk common.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createChunkErr != nil {
		return s.createChunkErr
	}
	s.chunks[chunk.ID] = chunk
	return nil
}

func (s *memoryStorage) UpsertEntity(ctx context.Context, entity common.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = entity
	return nil
}

func (s *memoryStorage) LinkChunkEntity(ctx context.Context, chunkID string, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mentions[chunkID] = append(s.mentions[chunkID], entityID)
	return nil
}

func (s *memoryStorage) ListDocuments(ctx context.Context, titleFilter string) ([]common.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []common.Document
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *memoryStorage) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *memoryStorage) GetDocumentChunks(ctx context.Context, docID string) ([]common.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chunks []common.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocID == docID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	return chunks, nil
}

func (s *memoryStorage) SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]common.ScoredChunk, error) {
	return nil, nil
}

func (s *memoryStorage) EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]common.EntityWithChunks, error) {
	return nil, nil
}

func (s *memoryStorage) DeleteDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, docID)
	for id, chunk := range s.chunks {
		if chunk.DocID == docID {
			delete(s.chunks, id)
			delete(s.mentions, id)
		}
	}
	return nil
}

func (s *memoryStorage) UpsertPerson(ctx context.Context, docID string, person common.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons = append(s.persons, person)
	return nil
}

func (s *memoryStorage) LinkPersons(ctx context.Context, docID string, relation common.PersonRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations = append(s.relations, relation)
	return nil
}

func (s *memoryStorage) AppendChatMessage(ctx context.Context, conversationID string, msg common.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[conversationID] = append(s.chats[conversationID], msg)
	return nil
}

func (s *memoryStorage) GetChatMessages(ctx context.Context, conversationID string) ([]common.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats[conversationID], nil
}

func writeTempFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func newTestProcessor(client *fakeAIClient, storage *memoryStorage, params NewProcessorParams) *Processor {
	params.Embedder = llm.NewEmbedder(llm.NewEmbedderParams{
		Client:    client,
		Dimension: 4,
		MaxTries:  1,
		BaseDelay: time.Millisecond,
	})
	params.Extractor = llm.NewExtractor(llm.NewExtractorParams{
		Client:    client,
		MaxTries:  1,
		BaseDelay: time.Millisecond,
	})
	params.Storage = storage
	if params.Chunker.Strategy == "" {
		params.Chunker = Chunker{Strategy: StrategyWindow, WindowSize: 1, StepSize: 1}
	}
	return NewProcessor(params)
}

func TestProcessDocument_Success(t *testing.T) {
	client := &fakeAIClient{
		completion: `[{"name":"张三","type":"人物"}]`,
		embedding:  []float32{1, 2, 3, 4},
	}
	storage := newMemoryStorage()
	processor := newTestProcessor(client, storage, NewProcessorParams{ParallelChunks: 2})

	path := writeTempFile(t, "case.txt", "甲句。乙句。")
	result := processor.ProcessDocument(context.Background(), path)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.ChunksCount != 2 {
		t.Fatalf("expected 2 chunks, got %d", result.ChunksCount)
	}
	if result.EntitiesCount != 2 {
		t.Fatalf("expected 2 entity mentions, got %d", result.EntitiesCount)
	}

	doc, err := storage.GetDocument(context.Background(), result.DocID)
	if err != nil || doc == nil {
		t.Fatalf("expected stored document, got %v %v", doc, err)
	}
	if doc.Title != "case.txt" {
		t.Fatalf("expected title case.txt, got %q", doc.Title)
	}

	chunks, _ := storage.GetDocumentChunks(context.Background(), result.DocID)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Fatalf("chunk %d has position %d", i, chunk.Position)
		}
		if chunk.ID != common.ChunkID(result.DocID, i) {
			t.Fatalf("chunk %d has id %q", i, chunk.ID)
		}
	}

	// Both chunks mention the same entity node.
	entityID := common.EntityID("张三", "人物")
	if _, ok := storage.entities[entityID]; !ok {
		t.Fatalf("expected upserted entity %s", entityID)
	}
	for _, chunk := range chunks {
		if len(storage.mentions[chunk.ID]) != 1 || storage.mentions[chunk.ID][0] != entityID {
			t.Fatalf("expected mention edge for chunk %s", chunk.ID)
		}
	}
}

func TestProcessDocument_UnsupportedFileType(t *testing.T) {
	client := &fakeAIClient{embedding: []float32{1}}
	storage := newMemoryStorage()
	processor := newTestProcessor(client, storage, NewProcessorParams{})

	path := writeTempFile(t, "case.pdf", "content")
	result := processor.ProcessDocument(context.Background(), path)

	if result.Success {
		t.Fatal("expected failure for unsupported file type")
	}
	if !strings.Contains(result.Error, "unsupported file type") {
		t.Fatalf("expected unsupported file type error, got %q", result.Error)
	}
	if len(storage.documents) != 0 {
		t.Fatal("expected no document written")
	}
}

func TestProcessDocument_EmbeddingFailureStillSucceeds(t *testing.T) {
	client := &fakeAIClient{
		completion:   `[]`,
		embeddingErr: errors.New("backend down"),
	}
	storage := newMemoryStorage()
	processor := newTestProcessor(client, storage, NewProcessorParams{})

	path := writeTempFile(t, "case.md", "甲句。")
	result := processor.ProcessDocument(context.Background(), path)

	if !result.Success {
		t.Fatalf("expected success despite embedding failures, got %q", result.Error)
	}
	chunks, _ := storage.GetDocumentChunks(context.Background(), result.DocID)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	for _, v := range chunks[0].Embedding {
		if v != 0 {
			t.Fatalf("expected zero-vector fallback, got %v", chunks[0].Embedding)
		}
	}
}

func TestProcessDocument_StorageFailureIsCaptured(t *testing.T) {
	client := &fakeAIClient{completion: `[]`, embedding: []float32{1, 2, 3, 4}}
	storage := newMemoryStorage()
	storage.createChunkErr = errors.New("connection refused")
	processor := newTestProcessor(client, storage, NewProcessorParams{})

	path := writeTempFile(t, "case.txt", "甲句。")
	result := processor.ProcessDocument(context.Background(), path)

	if result.Success {
		t.Fatal("expected failure when chunk writes fail")
	}
	if result.Error == "" {
		t.Fatal("expected captured error message")
	}
}

func TestProcessDocument_ReplacesPriorVersions(t *testing.T) {
	client := &fakeAIClient{completion: `[]`, embedding: []float32{1, 2, 3, 4}}
	storage := newMemoryStorage()
	storage.documents["old"] = common.Document{ID: "old", Title: "case.txt"}
	storage.documents["other"] = common.Document{ID: "other", Title: "unrelated.txt"}

	processor := newTestProcessor(client, storage, NewProcessorParams{VersionOnReupload: false})

	path := writeTempFile(t, "case.txt", "甲句。")
	result := processor.ProcessDocument(context.Background(), path)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}

	if _, ok := storage.documents["old"]; ok {
		t.Fatal("expected prior version to be deleted")
	}
	if _, ok := storage.documents["other"]; !ok {
		t.Fatal("expected unrelated document to survive")
	}
	if _, ok := storage.documents[result.DocID]; !ok {
		t.Fatal("expected new document to be stored")
	}
}

func TestProcessDocument_RelationExtractionDisabledByDefault(t *testing.T) {
	client := &fakeAIClient{completion: `[]`, embedding: []float32{1, 2, 3, 4}}
	storage := newMemoryStorage()
	processor := newTestProcessor(client, storage, NewProcessorParams{})

	path := writeTempFile(t, "case.txt", "甲句。")
	if result := processor.ProcessDocument(context.Background(), path); !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if len(storage.persons) != 0 || len(storage.relations) != 0 {
		t.Fatal("expected no person graph writes")
	}
}
