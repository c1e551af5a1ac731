package ingest

import "strings"

// DefaultChunkSize is the character window for document chunking.
const DefaultChunkSize = 800

// ChunkText splits text into fixed-size chunks, preferring to break at the
// last newline inside the window, else the last space. Empty chunks are
// dropped.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	start := 0
	length := len(text)
	for start < length {
		end := start + size
		if end > length {
			end = length
		}
		if end < length {
			sep := strings.LastIndex(text[start:end], "\n")
			if sep <= 0 {
				sep = strings.LastIndex(text[start:end], " ")
			}
			if sep > 0 {
				end = start + sep
			}
		}
		if end <= start {
			end = start + size
			if end > length {
				end = length
			}
		}
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	return chunks
}
