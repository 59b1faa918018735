package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/guard"
)

// KnowledgeItem represents a fact learned from conversation. Unlike a
// UserMemory it is not scoped to any one user.
type KnowledgeItem struct {
	ID        int64
	Topic     string
	Body      string
	Tags      string // comma-separated
	CreatedTs int64
}

// FindKnowledge specifies a tag/topic search over knowledge items.
type FindKnowledge struct {
	// Terms are matched case-insensitively as substrings against
	// topic, body, and tags, OR-combined.
	Terms []string
	Limit int
}

// ErrKnowledgeExists is returned by SaveKnowledge when the body is
// already present, exactly or by 100-character prefix.
var ErrKnowledgeExists = errors.New("knowledge already exists")

// knowledgePrefixLen is the prefix length used for near-duplicate
// detection on knowledge bodies.
const knowledgePrefixLen = 100

// SaveKnowledge stores a new knowledge item. The write is refused when
// the body contains a blocklisted word, and is a no-op returning
// ErrKnowledgeExists when an equal or prefix-similar body is already
// stored.
func (s *Store) SaveKnowledge(ctx context.Context, topic, body, tags string) error {
	blocked, word, err := s.IsBlocked(ctx, body)
	if err != nil {
		return err
	}
	if blocked {
		return errors.Wrapf(guard.ErrBlocked, "knowledge body contains %q", word)
	}

	exists, err := s.driver.KnowledgeExists(ctx, body, knowledgePrefixLen)
	if err != nil {
		return err
	}
	if exists {
		return ErrKnowledgeExists
	}

	return s.driver.CreateKnowledge(ctx, &KnowledgeItem{Topic: topic, Body: body, Tags: tags})
}

// SearchKnowledgeByTags returns knowledge items matching any of the
// given terms, newest first, capped at limit. An empty term list
// yields no results.
func (s *Store) SearchKnowledgeByTags(ctx context.Context, terms []string, limit int) ([]*KnowledgeItem, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	return s.driver.SearchKnowledge(ctx, &FindKnowledge{Terms: terms, Limit: limit})
}
