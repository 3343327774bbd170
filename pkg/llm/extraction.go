package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marula-ai/marula/internal/util"
	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/logger"
)

const (
	defaultMaxChars = 4000
	roleFallback    = "其它关系"
)

// DefaultRoles is the role vocabulary for person extraction. Roles the
// model returns outside this list are mapped to the fallback role.
var DefaultRoles = []string{"被告人", "原告", "辩护人", "审判员", "书记员", "审判长", "受害人", "证人"}

// DefaultRelations is the allowed person-to-person relation vocabulary.
// Relations outside this list are discarded.
var DefaultRelations = []string{"购买毒品", "出售毒品", "容留吸毒", "辩护", "中间人"}

// Extractor wraps a completion backend with the prompt contracts of the
// extraction pipeline. Every operation degrades to an empty or neutral
// result on failure; errors are logged and never escalate, keeping
// ingestion and retrieval best-effort against a flaky backend.
type Extractor struct {
	client    ai.Completer
	maxChars  int
	maxTries  int
	baseDelay time.Duration
	roles     []string
	relations []string
}

// NewExtractorParams contains configuration for creating an Extractor.
// Roles and Relations default to the built-in vocabularies; MaxChars caps
// the text submitted per request (default 4000 runes).
type NewExtractorParams struct {
	Client    ai.Completer
	MaxChars  int
	MaxTries  int
	BaseDelay time.Duration
	Roles     []string
	Relations []string
}

// NewExtractor creates an Extractor with the provided configuration.
func NewExtractor(params NewExtractorParams) *Extractor {
	maxChars := params.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 3
	}
	baseDelay := params.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	roles := params.Roles
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	relations := params.Relations
	if len(relations) == 0 {
		relations = DefaultRelations
	}
	return &Extractor{
		client:    params.Client,
		maxChars:  maxChars,
		maxTries:  maxTries,
		baseDelay: baseDelay,
		roles:     roles,
		relations: relations,
	}
}

// Summarize generates a short abstract of text. Input is truncated to the
// configured character budget before submission. On failure the truncated
// text prefix doubles as the summary.
func (e *Extractor) Summarize(ctx context.Context, text string) string {
	truncated := util.TruncateRunes(text, e.maxChars)
	prompt := fmt.Sprintf(ai.SummaryPrompt, truncated)

	res, err := e.complete(ctx, prompt)
	if err != nil {
		logger.Warn("[LLM] Summary generation failed, using text prefix", "err", err)
		return util.TruncateRunes(text, 100)
	}
	return strings.TrimSpace(res)
}

// ExtractEntities extracts named entities from text. The completion is
// parsed by locating the outermost JSON array in the raw response; elements
// missing a name or type are dropped. Any failure yields an empty slice.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) []common.EntityMention {
	truncated := util.TruncateRunes(text, e.maxChars)
	prompt := fmt.Sprintf(ai.ExtractEntitiesPrompt, truncated)

	res, err := e.complete(ctx, prompt)
	if err != nil {
		logger.Warn("[LLM] Entity extraction failed", "err", err)
		return nil
	}

	span := ai.ExtractJSONArray(res)
	if span == "" {
		logger.Warn("[LLM] Entity extraction returned no JSON array")
		return nil
	}

	var raw []common.EntityMention
	if err := ai.UnmarshalFlexible(span, &raw); err != nil {
		logger.Warn("[LLM] Entity extraction returned malformed JSON", "err", err)
		return nil
	}

	valid := make([]common.EntityMention, 0, len(raw))
	for _, mention := range raw {
		if mention.Name == "" || mention.Type == "" {
			continue
		}
		valid = append(valid, mention)
	}
	return valid
}

// ExtractRelations extracts persons and person-to-person relations from
// text via a structured completion. Person roles outside the vocabulary
// map to the fallback role; relations are kept only when both endpoints
// are extracted persons, the label is in the vocabulary and the event
// description is non-empty. Any failure yields an empty result.
func (e *Extractor) ExtractRelations(ctx context.Context, text string) common.RelationExtraction {
	systemPrompt := fmt.Sprintf(
		ai.ExtractRelationsPrompt,
		strings.Join(e.roles, "、"),
		strings.Join(e.relations, "、"),
	)

	res, err := util.RetryBackoff(ctx, e.maxTries, e.baseDelay, func(rCtx context.Context) (common.RelationExtraction, error) {
		var out common.RelationExtraction
		err := e.client.GenerateCompletionWithFormat(
			rCtx,
			"extract_persons_and_relations",
			"Extract person names and their relations from a legal document chunk.",
			util.TruncateRunes(text, e.maxChars),
			&out,
			ai.WithSystemPrompts(systemPrompt),
			ai.WithTemperature(0),
		)
		return out, err
	})
	if err != nil {
		logger.Warn("[LLM] Relation extraction failed", "err", err)
		return common.RelationExtraction{}
	}

	return e.validateRelations(res)
}

func (e *Extractor) validateRelations(raw common.RelationExtraction) common.RelationExtraction {
	names := make(map[string]struct{}, len(raw.Persons))
	persons := make([]common.Person, 0, len(raw.Persons))
	for _, p := range raw.Persons {
		if p.Name == "" {
			continue
		}
		if !slices.Contains(e.roles, p.Role) {
			p.Role = roleFallback
		}
		if _, ok := names[p.Name]; ok {
			continue
		}
		names[p.Name] = struct{}{}
		persons = append(persons, p)
	}

	relations := make([]common.PersonRelation, 0, len(raw.Relations))
	for _, r := range raw.Relations {
		if r.Subject == "" || r.Object == "" || r.Event == "" {
			continue
		}
		if _, ok := names[r.Subject]; !ok {
			continue
		}
		if _, ok := names[r.Object]; !ok {
			continue
		}
		if !slices.Contains(e.relations, r.Relation) {
			continue
		}
		relations = append(relations, r)
	}

	return common.RelationExtraction{Persons: persons, Relations: relations}
}

// GenerateAnswer fills template with the retrieval context and the user
// query and returns the completion. On failure a fixed apology string is
// returned instead of an error.
func (e *Extractor) GenerateAnswer(ctx context.Context, query string, contextText string, template string) string {
	prompt := fmt.Sprintf(template, contextText, query)

	res, err := e.complete(ctx, prompt)
	if err != nil {
		logger.Warn("[LLM] Answer generation failed", "err", err)
		return ai.ApologyResponse
	}
	return strings.TrimSpace(res)
}

func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	return util.RetryBackoff(ctx, e.maxTries, e.baseDelay, func(rCtx context.Context) (string, error) {
		return e.client.GenerateCompletion(rCtx, prompt)
	})
}
