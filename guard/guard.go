// Package guard implements the blocklist filter applied to inbound
// and outbound text.
package guard

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrBlocked is the sentinel wrapped by callers when a blocklist hit
// suppresses a write or a reply.
var ErrBlocked = errors.New("text contains a blocklisted word")

// Blocked reports whether text contains any of the given words and
// returns the first word that matched. Matching is a case-insensitive
// substring test with no tokenization, so a word matches inside a
// longer unrelated word ("a" matches "cat"). Callers that need a
// deterministic result must pass words in a stable order; the store
// supplies them lexicographically.
func Blocked(text string, words []string) (bool, string) {
	lower := strings.ToLower(text)
	for _, word := range words {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			return true, word
		}
	}
	return false, ""
}
