package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/guard"
)

// UserMemory represents a fact a user asked the agent to remember.
// Memories are keyed by (owner, key); a new value for an existing key
// replaces the old one.
type UserMemory struct {
	ID        int64
	Owner     string // handle of the user the memory belongs to
	Key       string
	Value     string
	CreatedTs int64
}

// UpsertUserMemory specifies a memory write.
type UpsertUserMemory struct {
	Owner string
	Key   string
	Value string
}

// ErrNotOwner is returned when a requester tries to write another
// user's memory.
var ErrNotOwner = errors.New("memory can only be written by its owner")

// SaveMemory upserts a memory for owner, keyed by key. The write is
// refused when the requester is not the owner, or when the value
// contains a blocklisted word.
func (s *Store) SaveMemory(ctx context.Context, owner, key, value, requester string) error {
	if owner != requester {
		return errors.Wrapf(ErrNotOwner, "%s tried to update memory for %s", requester, owner)
	}

	blocked, word, err := s.IsBlocked(ctx, value)
	if err != nil {
		return err
	}
	if blocked {
		return errors.Wrapf(guard.ErrBlocked, "memory value contains %q", word)
	}

	return s.driver.UpsertUserMemory(ctx, &UpsertUserMemory{Owner: owner, Key: key, Value: value})
}

// GetMemories returns all memories for the given owner as a key→value
// map. An owner with no memories yields an empty map, not an error.
func (s *Store) GetMemories(ctx context.Context, owner string) (map[string]string, error) {
	memories, err := s.driver.ListUserMemories(ctx, owner)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(memories))
	for _, m := range memories {
		result[m.Key] = m.Value
	}
	return result, nil
}
