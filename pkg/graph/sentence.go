package graph

import "strings"

// sentence boundary characters: Chinese terminators plus their Latin
// counterparts. A newline also ends a sentence.
var sentenceBoundaries = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '…': {}, '\n': {},
	'.': {}, '!': {}, '?': {},
}

// SplitIntoSentences splits text into sentences at punctuation boundaries.
// Each boundary character is included in the sentence it terminates. A
// trailing fragment without a terminal boundary is emitted as a final
// sentence when non-empty after trimming. The concatenation of the result
// reconstructs the input up to that final trim.
func SplitIntoSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if _, ok := sentenceBoundaries[r]; ok {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		sentences = append(sentences, last)
	}

	return sentences
}
