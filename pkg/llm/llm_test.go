package llm

import (
	"context"
	"errors"
	"time"

	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/common"
)

// fakeCompleter scripts completion responses for extractor tests.
type fakeCompleter struct {
	response   string
	err        error
	structured common.RelationExtraction
	calls      int
}

func (f *fakeCompleter) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeCompleter) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if target, ok := out.(*common.RelationExtraction); ok {
		*target = f.structured
	}
	return nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

var errBackendDown = errors.New("backend down")

func newTestExtractor(client ai.Completer) *Extractor {
	return NewExtractor(NewExtractorParams{
		Client:    client,
		MaxTries:  1,
		BaseDelay: time.Millisecond,
	})
}
