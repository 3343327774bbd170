package graph

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Strategy selects how a document is split into chunks.
type Strategy string

const (
	// StrategySeparator splits on a literal separator with size-bounded
	// sentence packing for oversized fragments.
	StrategySeparator Strategy = "separator"
	// StrategyWindow groups sentences into overlapping sliding windows.
	StrategyWindow Strategy = "window"
	// StrategyToken packs sentences greedily under a token budget.
	StrategyToken Strategy = "token"
)

// Chunker holds the chunking configuration for one ingestion run.
type Chunker struct {
	Strategy Strategy

	// separator strategy
	Separator    string
	MaxChunkSize int

	// window strategy
	WindowSize int
	StepSize   int

	// token strategy
	TokenEncoder string
	MaxTokens    int
}

// Chunk splits text according to the configured strategy.
func (c Chunker) Chunk(text string) ([]string, error) {
	switch c.Strategy {
	case StrategyWindow:
		return ChunkSlidingWindow(text, c.WindowSize, c.StepSize), nil
	case StrategyToken:
		return ChunkByTokens(text, c.TokenEncoder, c.MaxTokens)
	case StrategySeparator, "":
		return ChunkBySeparator(text, c.Separator, c.MaxChunkSize), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy: %s", c.Strategy)
	}
}

// ChunkSlidingWindow groups sentences into overlapping windows of
// windowSize sentences, advancing by stepSize per chunk. Overlap
// (stepSize < windowSize) duplicates context across chunk boundaries on
// purpose; downstream consumers must tolerate duplicate extractions.
func ChunkSlidingWindow(text string, windowSize int, stepSize int) []string {
	if windowSize < 1 {
		windowSize = 1
	}
	if stepSize < 1 {
		stepSize = 1
	}

	sentences := SplitIntoSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(sentences) {
		end := min(start+windowSize, len(sentences))
		chunks = append(chunks, strings.Join(sentences[start:end], ""))
		if end == len(sentences) {
			break
		}
		start += stepSize
	}

	return chunks
}

// ChunkBySeparator splits text on the literal separator, trimming and
// dropping empty fragments. Fragments exceeding maxChunkSize are re-split
// into sentences and greedily packed; single sentences that still exceed
// the limit are hard-sliced into fixed-width substrings. Every emitted
// chunk is at most maxChunkSize runes, except fragments that already fit
// (emitted verbatim).
func ChunkBySeparator(text string, separator string, maxChunkSize int) []string {
	if separator == "" {
		separator = "\n\n"
	}
	if maxChunkSize < 1 {
		maxChunkSize = 500
	}

	var result []string
	for fragment := range strings.SplitSeq(text, separator) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if len([]rune(fragment)) <= maxChunkSize {
			result = append(result, fragment)
			continue
		}
		result = append(result, packSentences(fragment, maxChunkSize)...)
	}

	return result
}

func packSentences(fragment string, maxChunkSize int) []string {
	var result []string
	var current string
	currentLen := 0

	for _, sentence := range SplitIntoSentences(fragment) {
		sentenceLen := len([]rune(sentence))

		joinLen := 0
		if current != "" {
			joinLen = 1
		}
		if currentLen+joinLen+sentenceLen <= maxChunkSize {
			if current != "" {
				current += " " + sentence
			} else {
				current = sentence
			}
			currentLen += joinLen + sentenceLen
			continue
		}

		if current != "" {
			result = append(result, current)
		}

		if sentenceLen > maxChunkSize {
			result = append(result, sliceRunes(sentence, maxChunkSize)...)
			current = ""
			currentLen = 0
		} else {
			current = sentence
			currentLen = sentenceLen
		}
	}

	if current != "" {
		result = append(result, current)
	}

	return result
}

func sliceRunes(s string, width int) []string {
	runes := []rune(s)
	var slices []string
	for start := 0; start < len(runes); start += width {
		end := min(start+width, len(runes))
		slices = append(slices, string(runes[start:end]))
	}
	return slices
}

// ChunkByTokens packs sentences greedily into chunks whose token count
// stays under maxTokens, measured with the given tiktoken encoding. A
// single sentence above the budget becomes its own chunk.
func ChunkByTokens(text string, encoder string, maxTokens int) ([]string, error) {
	if encoder == "" {
		encoder = "o200k_base"
	}
	if maxTokens < 1 {
		maxTokens = 500
	}

	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, err
	}

	sentences := SplitIntoSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentTokens = 0
	}

	for _, sentence := range sentences {
		tokens := len(enc.Encode(sentence, nil, nil))
		if currentTokens+tokens > maxTokens && current.Len() > 0 {
			flush()
		}
		current.WriteString(sentence)
		currentTokens += tokens
	}
	flush()

	return chunks, nil
}
