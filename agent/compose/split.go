// Package compose turns response text into one or more platform posts
// under the character limit, with rich-text facets for mentions and
// links.
package compose

import (
	"fmt"
	"strings"
)

// suffixReserve is the byte budget held back in every chunk for the
// " (i/total)" numbering suffix.
const suffixReserve = 10

// SplitIntoChunks splits text into thread chunks of at most maxBytes
// UTF-8 bytes each, breaking on whitespace. A text that fits in one
// chunk is returned verbatim with no suffix; otherwise every chunk is
// numbered " (i/total)".
func SplitIntoChunks(text string, maxBytes int) []string {
	budget := maxBytes - suffixReserve

	var chunks []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) >= budget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	if len(chunks) <= 1 {
		return []string{text}
	}

	total := len(chunks)
	for i, chunk := range chunks {
		chunks[i] = fmt.Sprintf("%s (%d/%d)", chunk, i+1, total)
	}
	return chunks
}
