package store

import (
	"context"

	"github.com/4uffin/aura-bot/guard"
)

// BlocklistEntry is a forbidden substring. Any text containing one of
// these words, case-insensitively, is rejected wherever the store vets
// content.
type BlocklistEntry struct {
	ID        int64
	Word      string
	CreatedTs int64
}

// IsBlocked reports whether the text contains any blocklisted word,
// and which one matched first. Words are scanned in lexicographic
// order so the result is deterministic.
func (s *Store) IsBlocked(ctx context.Context, text string) (bool, string, error) {
	words, err := s.driver.ListBlocklistWords(ctx)
	if err != nil {
		return false, "", err
	}
	blocked, word := guard.Blocked(text, words)
	return blocked, word, nil
}

// AddBlocklistWord inserts a word into the blocklist. Inserting an
// existing word is a no-op.
func (s *Store) AddBlocklistWord(ctx context.Context, word string) error {
	return s.driver.AddBlocklistWord(ctx, word)
}
