package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/llm"
)

type fakeAIClient struct {
	completion      string
	lastPrompt      string
	completionCalls int
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.completionCalls++
	f.lastPrompt = prompt
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
	return nil
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

type fakeStorage struct {
	hits     []common.ScoredChunk
	entities []common.EntityWithChunks
	docs     map[string]common.Document
}

func (s *fakeStorage) CreateDocument(ctx context.Context, doc common.Document) error { return nil }
func (s *fakeStorage) CreateChunk(ctx context.Context, chunk common.Chunk) error     { return nil }
func (s *fakeStorage) UpsertEntity(ctx context.Context, entity common.Entity) error  { return nil }
func (s *fakeStorage) LinkChunkEntity(ctx context.Context, chunkID string, entityID string) error {
	return nil
}

func (s *fakeStorage) ListDocuments(ctx context.Context, titleFilter string) ([]common.Document, error) {
	return nil, nil
}

func (s *fakeStorage) GetDocument(ctx context.Context, docID string) (*common.Document, error) {
	doc, ok := s.docs[docID]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *fakeStorage) GetDocumentChunks(ctx context.Context, docID string) ([]common.Chunk, error) {
	return nil, nil
}

func (s *fakeStorage) SimilaritySearch(ctx context.Context, embedding []float32, limit int) ([]common.ScoredChunk, error) {
	if limit < len(s.hits) {
		return s.hits[:limit], nil
	}
	return s.hits, nil
}

func (s *fakeStorage) EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]common.EntityWithChunks, error) {
	return s.entities, nil
}

func (s *fakeStorage) DeleteDocument(ctx context.Context, docID string) error { return nil }
func (s *fakeStorage) UpsertPerson(ctx context.Context, docID string, person common.Person) error {
	return nil
}

func (s *fakeStorage) LinkPersons(ctx context.Context, docID string, relation common.PersonRelation) error {
	return nil
}

func (s *fakeStorage) AppendChatMessage(ctx context.Context, conversationID string, msg common.ChatMessage) error {
	return nil
}

func (s *fakeStorage) GetChatMessages(ctx context.Context, conversationID string) ([]common.ChatMessage, error) {
	return nil, nil
}

func newTestEngine(client *fakeAIClient, storage *fakeStorage, topK int) *Engine {
	return NewEngine(NewEngineParams{
		Embedder: llm.NewEmbedder(llm.NewEmbedderParams{
			Client:    client,
			Dimension: 4,
			MaxTries:  1,
			BaseDelay: time.Millisecond,
		}),
		Extractor: llm.NewExtractor(llm.NewExtractorParams{
			Client:    client,
			MaxTries:  1,
			BaseDelay: time.Millisecond,
		}),
		Storage: storage,
		TopK:    topK,
	})
}

func TestAnswer_EmptySearchYieldsCannedResponse(t *testing.T) {
	client := &fakeAIClient{completion: "should not be used"}
	storage := &fakeStorage{}
	engine := newTestEngine(client, storage, 1)

	resp, err := engine.Answer(context.Background(), "问题")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != ai.NoInformationResponse {
		t.Fatalf("expected canned response, got %q", resp.Response)
	}
	if resp.GraphData != nil {
		t.Fatal("expected nil graph data")
	}
	if client.completionCalls != 0 {
		t.Fatalf("expected no completion calls, got %d", client.completionCalls)
	}
}

func TestAnswer_BuildsContextAndGraph(t *testing.T) {
	client := &fakeAIClient{completion: "答案"}
	storage := &fakeStorage{
		hits: []common.ScoredChunk{
			{Chunk: common.Chunk{ID: "doc1_chunk_0", DocID: "doc1", Position: 0, Content: "第一块内容"}, Score: 0.92},
			{Chunk: common.Chunk{ID: "doc1_chunk_3", DocID: "doc1", Position: 3, Content: "第二块内容"}, Score: 0.85},
		},
		entities: []common.EntityWithChunks{
			{
				Entity:   common.Entity{ID: "ent1", Name: "张三", Type: "人物"},
				ChunkIDs: []string{"doc1_chunk_0", "doc1_chunk_3"},
			},
			{
				Entity:   common.Entity{ID: "ent2", Name: "未来科技", Type: "外星组织"},
				ChunkIDs: []string{"doc1_chunk_0"},
			},
		},
		docs: map[string]common.Document{
			"doc1": {ID: "doc1", Title: "case.txt", Summary: "一份判决书"},
		},
	}
	engine := newTestEngine(client, storage, 2)

	resp, err := engine.Answer(context.Background(), "问题")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "答案" {
		t.Fatalf("expected completion answer, got %q", resp.Response)
	}

	// Context sections are numbered in ranked order.
	if !strings.Contains(client.lastPrompt, "文档块 1:\n第一块内容") {
		t.Fatalf("prompt missing first context section: %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "文档块 2:\n第二块内容") {
		t.Fatalf("prompt missing second context section: %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "问题") {
		t.Fatalf("prompt missing query: %q", client.lastPrompt)
	}

	graph := resp.GraphData
	if graph == nil {
		t.Fatal("expected graph data")
	}

	// 1 document + 2 chunks + 2 entities.
	if len(graph.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(graph.Nodes))
	}
	// 2 contains edges + 3 mention edges.
	if len(graph.Edges) != 5 {
		t.Fatalf("expected 5 edges, got %d", len(graph.Edges))
	}

	nodesByID := make(map[string]common.GraphNode)
	for _, node := range graph.Nodes {
		nodesByID[node.ID] = node
	}

	doc := nodesByID["doc1"]
	if doc.Color != "#6baed6" || doc.Label != "case.txt" {
		t.Fatalf("unexpected document node: %+v", doc)
	}
	if !strings.Contains(doc.Title, "一份判决书") {
		t.Fatalf("document tooltip missing summary: %q", doc.Title)
	}

	chunk := nodesByID["doc1_chunk_3"]
	if chunk.Color != "#9ecae1" || chunk.Label != "块 3" {
		t.Fatalf("unexpected chunk node: %+v", chunk)
	}

	person := nodesByID["ent1"]
	if person.Color != "#fd8d3c" {
		t.Fatalf("expected person color, got %+v", person)
	}
	unknown := nodesByID["ent2"]
	if unknown.Color != "#636363" {
		t.Fatalf("expected default color for unknown type, got %+v", unknown)
	}

	edgeLabels := map[string]int{}
	for _, edge := range graph.Edges {
		edgeLabels[edge.Label]++
	}
	if edgeLabels["包含"] != 2 || edgeLabels["提及"] != 3 {
		t.Fatalf("unexpected edge labels: %v", edgeLabels)
	}
}

func TestEntityColor(t *testing.T) {
	tests := []struct {
		entityType string
		want       string
	}{
		{"人物", "#fd8d3c"},
		{"person", "#fd8d3c"},
		{"组织", "#f03b20"},
		{"公司", "#bd0026"},
		{"地点", "#31a354"},
		{"时间", "#756bb1"},
		{"其他", "#636363"},
		{"somethingelse", "#636363"},
	}
	for _, tt := range tests {
		if got := EntityColor(tt.entityType); got != tt.want {
			t.Fatalf("EntityColor(%q) = %q, want %q", tt.entityType, got, tt.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("short", 100); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("长", 120)
	got := snippet(long, 100)
	if got != strings.Repeat("长", 100)+"..." {
		t.Fatalf("expected truncated snippet, got %q", got)
	}
}
