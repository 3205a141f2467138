package ingestion

import (
	"regexp"
	"strings"
)

// MaxChunkChars bounds the length of a packed text chunk.
const MaxChunkChars = 350

// sentenceEnd matches sentence-terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// SplitSentences splits cleaned text into sentences on terminal punctuation
// followed by whitespace. Blank fragments are dropped.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Keep the punctuation with its sentence by inserting a marker after it.
	const marker = "\x00"
	split := sentenceEnd.ReplaceAllString(text, "$1"+marker)

	var sentences []string
	for _, part := range strings.Split(split, marker) {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// PackChunks greedily packs sentences into chunks of at most maxLen
// characters. A single sentence longer than maxLen still becomes its own
// chunk.
func PackChunks(sentences []string, maxLen int) []string {
	var chunks []string
	current := ""

	for _, sentence := range sentences {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) <= maxLen {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = sentence
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// ChunkText splits text into sentences and packs them into chunks bounded by
// MaxChunkChars.
func ChunkText(text string) []string {
	return PackChunks(SplitSentences(text), MaxChunkChars)
}
