// Package textutil provides pure text helpers for the ingestion pipelines.
package textutil

import "strings"

// Default chunking parameters used by the document pipeline.
const (
	// DefaultChunkSize is the maximum chunk length in words.
	DefaultChunkSize = 250
	// DefaultChunkOverlap is the number of words shared between consecutive chunks.
	DefaultChunkOverlap = 50
)

// ChunkWords splits text into word windows of at most size words, with
// consecutive windows sharing overlap words. The function is deterministic:
// the same input always produces the same chunks, which the workflow layer
// relies on when activities are retried.
//
// A blank text yields no chunks. If overlap >= size the overlap is clamped
// so the window always advances.
func ChunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}
