// Package store provides durable persistence for the agent's
// conversational state: user memories, learned knowledge, post
// history, directives, the blocklist, and per-thread stop/streak
// records.
package store

import (
	"context"
	"strings"
	"time"
)

// Store provides database access to all raw objects. Each write is
// atomic for a single row; callers must not assume cross-call
// transactionality.
type Store struct {
	driver Driver
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate bootstraps the schema and applies additive migrations. It is
// idempotent and safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// MemorySnapshot is a bounded sample of the identifiers currently
// present in the store. It feeds the decision router's prompt, so each
// list is capped to keep prompt size bounded.
type MemorySnapshot struct {
	Owners       []string // handles that have memories
	Topics       []string // known knowledge topics
	Tags         []string // distinct tags across knowledge items
	RecentOwners []string // handles active in the last week
}

const (
	snapshotOwnerLimit  = 50
	snapshotTopicLimit  = 100
	snapshotTagLimit    = 100
	snapshotRecentLimit = 20
	snapshotWindow      = 7 * 24 * time.Hour
)

// GetMemorySnapshot assembles the bounded identifier sample used by
// the decision router.
func (s *Store) GetMemorySnapshot(ctx context.Context) (*MemorySnapshot, error) {
	owners, err := s.driver.ListMemoryOwners(ctx, snapshotOwnerLimit)
	if err != nil {
		return nil, err
	}
	topics, err := s.driver.ListKnowledgeTopics(ctx, snapshotTopicLimit)
	if err != nil {
		return nil, err
	}
	tagFields, err := s.driver.ListKnowledgeTags(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.driver.ListRecentActiveOwners(ctx, time.Now().Add(-snapshotWindow), snapshotRecentLimit)
	if err != nil {
		return nil, err
	}

	return &MemorySnapshot{
		Owners:       owners,
		Topics:       topics,
		Tags:         splitTagFields(tagFields, snapshotTagLimit),
		RecentOwners: recent,
	}, nil
}

// splitTagFields expands comma-separated tag columns into a deduped
// flat list, capped at limit.
func splitTagFields(fields []string, limit int) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, field := range fields {
		for _, tag := range strings.Split(field, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
			if len(tags) >= limit {
				return tags
			}
		}
	}
	return tags
}
