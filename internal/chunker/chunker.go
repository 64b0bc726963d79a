// Package chunker splits raw text into bounded, sentence-aligned
// segments for embedding and transcript storage.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize bounds a chunk's length in characters.
const DefaultMaxChunkSize = 4000

// Chunk splits text on sentence boundaries and greedily packs sentences
// into segments of at most maxChunkSize characters. A single sentence
// longer than the limit is emitted whole as its own oversized chunk;
// text is never truncated. Identical input yields identical boundaries.
func Chunk(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current string

	for _, sentence := range sentences {
		currentLen := utf8.RuneCountInString(current)
		sentenceLen := utf8.RuneCountInString(sentence)
		spaceLen := 0
		if currentLen > 0 {
			spaceLen = 1
		}

		if currentLen > 0 && currentLen+spaceLen+sentenceLen > maxChunkSize {
			chunks = append(chunks, current)
			current = sentence
			continue
		}

		if current != "" {
			current += " "
		}
		current += sentence
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// splitSentences breaks text at '.', '!' and '?' followed by whitespace
// or end of input. Trailing text without a terminator is kept as a
// final sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
					sentences = append(sentences, trimmed)
				}
				current.Reset()
			}
		}
	}

	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		sentences = append(sentences, trimmed)
	}

	return sentences
}
