package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/llm"
	"github.com/marula-ai/marula/pkg/logger"
	"github.com/marula-ai/marula/pkg/store"
)

// Response is the result of one retrieval run: the generated answer and
// the visualization graph of the retrieved context. GraphData is nil when
// nothing relevant was found.
type Response struct {
	Response  string            `json:"response"`
	GraphData *common.GraphData `json:"graph_data"`
}

// Engine orchestrates the retrieval pipeline: embed the query, rank chunks
// by similarity, expand into the mention graph, assemble context and
// generate the answer.
//
// An Engine should be created using NewEngine.
type Engine struct {
	embedder  *llm.Embedder
	extractor *llm.Extractor
	storage   store.GraphStorage
	topK      int
}

// NewEngineParams defines the configuration for creating an Engine.
// TopK is the number of chunks retrieved per query (default 1).
type NewEngineParams struct {
	Embedder  *llm.Embedder
	Extractor *llm.Extractor
	Storage   store.GraphStorage
	TopK      int
}

// NewEngine creates an Engine with the provided configuration.
func NewEngine(params NewEngineParams) *Engine {
	topK := params.TopK
	if topK <= 0 {
		topK = 1
	}
	return &Engine{
		embedder:  params.Embedder,
		extractor: params.Extractor,
		storage:   params.Storage,
		topK:      topK,
	}
}

// Answer runs the retrieval pipeline for query. When similarity search
// finds nothing, the canned no-information response is returned and the
// completion endpoint is not called.
func (e *Engine) Answer(ctx context.Context, query string) (*Response, error) {
	embedding := e.embedder.Embed(ctx, query)

	hits, err := e.storage.SimilaritySearch(ctx, embedding, e.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	if len(hits) == 0 {
		return &Response{Response: ai.NoInformationResponse, GraphData: nil}, nil
	}

	chunkIDs := make([]string, 0, len(hits))
	for _, hit := range hits {
		chunkIDs = append(chunkIDs, hit.ID)
	}

	entities, err := e.storage.EntitiesForChunks(ctx, chunkIDs)
	if err != nil {
		return nil, fmt.Errorf("entity expansion failed: %w", err)
	}

	graphData, err := e.buildGraphData(ctx, hits, entities)
	if err != nil {
		return nil, err
	}

	answer := e.extractor.GenerateAnswer(ctx, query, buildContext(hits), ai.RAGPrompt)

	logger.Debug("[Query] Answer generated", "chunks", len(hits), "entities", len(entities))

	return &Response{Response: answer, GraphData: graphData}, nil
}

// buildContext concatenates chunk contents in ranked order, each section
// preceded by a numbered header.
func buildContext(hits []common.ScoredChunk) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "文档块 %d:\n%s", i+1, hit.Content)
	}
	return b.String()
}

const (
	documentColor = "#6baed6"
	chunkColor    = "#9ecae1"
	unknownColor  = "#636363"
)

// entityColors maps entity types to visualization colors. Both the Chinese
// vocabulary of the extraction prompt and its English equivalents resolve
// to the same palette.
var entityColors = map[string]string{
	"人物": "#fd8d3c", "person": "#fd8d3c",
	"组织": "#f03b20", "organization": "#f03b20",
	"公司": "#bd0026", "company": "#bd0026",
	"地点": "#31a354", "location": "#31a354",
	"时间": "#756bb1", "time": "#756bb1",
	"其他": "#636363", "other": "#636363",
}

// EntityColor returns the visualization color for an entity type, or the
// default gray for unknown types.
func EntityColor(entityType string) string {
	if color, ok := entityColors[entityType]; ok {
		return color
	}
	return unknownColor
}

func (e *Engine) buildGraphData(
	ctx context.Context,
	hits []common.ScoredChunk,
	entities []common.EntityWithChunks,
) (*common.GraphData, error) {
	data := &common.GraphData{
		Nodes: make([]common.GraphNode, 0, len(hits)+len(entities)),
		Edges: make([]common.GraphEdge, 0, len(hits)+len(entities)),
	}
	seenDocs := make(map[string]struct{})

	for _, hit := range hits {
		if _, ok := seenDocs[hit.DocID]; !ok {
			doc, err := e.storage.GetDocument(ctx, hit.DocID)
			if err != nil {
				return nil, fmt.Errorf("failed to load document %s: %w", hit.DocID, err)
			}
			if doc != nil {
				data.Nodes = append(data.Nodes, common.GraphNode{
					ID:    doc.ID,
					Label: doc.Title,
					Title: fmt.Sprintf("文档: %s\n摘要: %s", doc.Title, doc.Summary),
					Color: documentColor,
				})
				seenDocs[doc.ID] = struct{}{}
			}
		}

		data.Nodes = append(data.Nodes, common.GraphNode{
			ID:    hit.ID,
			Label: fmt.Sprintf("块 %d", hit.Position),
			Title: snippet(hit.Content, 100),
			Color: chunkColor,
		})
		data.Edges = append(data.Edges, common.GraphEdge{
			From:  hit.DocID,
			To:    hit.ID,
			Label: "包含",
		})
	}

	for _, entity := range entities {
		data.Nodes = append(data.Nodes, common.GraphNode{
			ID:    entity.ID,
			Label: entity.Name,
			Title: fmt.Sprintf("实体: %s\n类型: %s", entity.Name, entity.Type),
			Color: EntityColor(entity.Type),
		})
		for _, chunkID := range entity.ChunkIDs {
			data.Edges = append(data.Edges, common.GraphEdge{
				From:  chunkID,
				To:    entity.ID,
				Label: "提及",
			})
		}
	}

	return data, nil
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
