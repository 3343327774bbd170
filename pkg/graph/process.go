package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marula-ai/marula/internal/util"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/llm"
	"github.com/marula-ai/marula/pkg/logger"
	"github.com/marula-ai/marula/pkg/store"
)

// ErrUnsupportedFileType is returned for uploads that are not plain text
// or markdown.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Result is the terminal state of one ingestion run. A failure anywhere in
// the pipeline aborts the remaining steps; nodes already written stay in
// the store (no partial rollback).
type Result struct {
	Success       bool   `json:"success"`
	DocID         string `json:"doc_id,omitempty"`
	ChunksCount   int    `json:"chunks_count"`
	EntitiesCount int    `json:"entities_count"`
	Error         string `json:"error,omitempty"`
}

// Processor orchestrates the ingestion pipeline for single documents:
// read, summarize, chunk, embed, extract and persist.
//
// A Processor should be created using NewProcessor.
type Processor struct {
	embedder  *llm.Embedder
	extractor *llm.Extractor
	storage   store.GraphStorage
	chunker   Chunker

	parallelChunks    int
	extractRelations  bool
	versionOnReupload bool
}

// NewProcessorParams defines the configuration for creating a Processor.
//
// ParallelChunks caps the number of chunks processed concurrently.
// ExtractRelations enables the person/relation extraction stage.
// VersionOnReupload keeps prior documents when a file with the same title
// is ingested again; when false the prior documents are deleted first.
type NewProcessorParams struct {
	Embedder  *llm.Embedder
	Extractor *llm.Extractor
	Storage   store.GraphStorage
	Chunker   Chunker

	ParallelChunks    int
	ExtractRelations  bool
	VersionOnReupload bool
}

// NewProcessor creates a Processor with the provided configuration.
func NewProcessor(params NewProcessorParams) *Processor {
	parallel := params.ParallelChunks
	if parallel <= 0 {
		parallel = 1
	}
	return &Processor{
		embedder:  params.Embedder,
		extractor: params.Extractor,
		storage:   params.Storage,
		chunker:   params.Chunker,

		parallelChunks:    parallel,
		extractRelations:  params.ExtractRelations,
		versionOnReupload: params.VersionOnReupload,
	}
}

// ProcessDocument ingests the file at filePath and returns the terminal
// result. Errors never propagate as Go errors: they are captured into the
// result at the pipeline boundary.
func (p *Processor) ProcessDocument(ctx context.Context, filePath string) Result {
	result, err := p.run(ctx, filePath)
	if err != nil {
		logger.Error("[Ingest] Pipeline failed", "file", filePath, "err", err)
		return Result{Success: false, Error: err.Error()}
	}
	return result
}

func (p *Processor) run(ctx context.Context, filePath string) (Result, error) {
	content, err := readTextFile(filePath)
	if err != nil {
		return Result{}, err
	}

	title := filepath.Base(filePath)
	info, err := os.Stat(filePath)
	if err != nil {
		return Result{}, err
	}
	created := time.Now()

	if !p.versionOnReupload {
		if err := p.deletePriorVersions(ctx, title); err != nil {
			return Result{}, err
		}
	}

	logger.Info("[Ingest] Processing document", "title", title, "size", info.Size())

	summary := p.extractor.Summarize(ctx, content)

	doc := common.Document{
		ID:        common.DocumentID(title, created),
		Title:     title,
		Created:   created,
		Summary:   summary,
		Size:      info.Size(),
		Embedding: p.embedder.Embed(ctx, summary),
	}
	if err := p.storage.CreateDocument(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("failed to create document: %w", err)
	}

	chunks, err := p.chunker.Chunk(content)
	if err != nil {
		return Result{}, fmt.Errorf("failed to chunk document: %w", err)
	}

	entitiesCount := 0
	var countLock sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallelChunks)

	for position, chunkContent := range chunks {
		eg.Go(func() error {
			mentions, err := p.processChunk(gCtx, doc.ID, position, chunkContent)
			if err != nil {
				return err
			}
			countLock.Lock()
			entitiesCount += mentions
			countLock.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	logger.Info("[Ingest] Document processed",
		"doc_id", doc.ID,
		"chunks", len(chunks),
		"entities", entitiesCount,
	)

	return Result{
		Success:       true,
		DocID:         doc.ID,
		ChunksCount:   len(chunks),
		EntitiesCount: entitiesCount,
	}, nil
}

// processChunk persists one chunk and its entity mentions, returning the
// number of mentions extracted. Position comes from the original chunk
// index, so parallel completion order never affects stored ordering.
func (p *Processor) processChunk(
	ctx context.Context,
	docID string,
	position int,
	content string,
) (int, error) {
	chunk := common.Chunk{
		ID:        common.ChunkID(docID, position),
		DocID:     docID,
		Position:  position,
		Content:   content,
		Embedding: p.embedder.Embed(ctx, content),
	}
	if err := p.storage.CreateChunk(ctx, chunk); err != nil {
		return 0, fmt.Errorf("failed to create chunk %d: %w", position, err)
	}

	mentions := p.extractor.ExtractEntities(ctx, content)
	for _, mention := range mentions {
		entity := common.Entity{
			ID:        common.EntityID(mention.Name, mention.Type),
			Name:      mention.Name,
			Type:      mention.Type,
			Embedding: p.embedder.Embed(ctx, mention.Name),
		}
		if err := p.storage.UpsertEntity(ctx, entity); err != nil {
			return 0, fmt.Errorf("failed to upsert entity %q: %w", mention.Name, err)
		}
		if err := p.storage.LinkChunkEntity(ctx, chunk.ID, entity.ID); err != nil {
			return 0, fmt.Errorf("failed to link chunk to entity %q: %w", mention.Name, err)
		}
	}

	if p.extractRelations {
		if err := p.processRelations(ctx, docID, content); err != nil {
			return 0, err
		}
	}

	return len(mentions), nil
}

// processRelations persists the per-document person graph of one chunk.
// The extractor already validated roles, endpoints and vocabulary.
func (p *Processor) processRelations(ctx context.Context, docID string, content string) error {
	extraction := p.extractor.ExtractRelations(ctx, content)

	for _, person := range extraction.Persons {
		if err := p.storage.UpsertPerson(ctx, docID, person); err != nil {
			return fmt.Errorf("failed to upsert person %q: %w", person.Name, err)
		}
	}
	for _, relation := range extraction.Relations {
		if err := p.storage.LinkPersons(ctx, docID, relation); err != nil {
			return fmt.Errorf("failed to link persons %q and %q: %w", relation.Subject, relation.Object, err)
		}
	}
	return nil
}

func (p *Processor) deletePriorVersions(ctx context.Context, title string) error {
	docs, err := p.storage.ListDocuments(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to list prior versions: %w", err)
	}
	for _, doc := range docs {
		if doc.Title != title {
			continue
		}
		logger.Info("[Ingest] Replacing prior version", "doc_id", doc.ID, "title", title)
		if err := p.storage.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete prior version %s: %w", doc.ID, err)
		}
	}
	return nil
}

func readTextFile(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext != ".txt" && ext != ".md" {
		return "", fmt.Errorf("%w: %s (only .txt and .md are supported)", ErrUnsupportedFileType, ext)
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	return util.SanitizePostgresText(string(raw)), nil
}
