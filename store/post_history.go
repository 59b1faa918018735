package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/guard"
)

// PostHistoryRecord represents an inbound post that triggered
// processing, together with the thread transcript it arrived in.
// Records are unique by post URI.
type PostHistoryRecord struct {
	ID            int64
	Owner         string // handle of the post author
	Text          string
	URI           string
	ThreadContext string
	CreatedTs     int64
}

// FindPostHistory specifies the conditions for listing post history.
type FindPostHistory struct {
	Owner string
	Limit int
}

// SavePostHistory records an inbound post, replacing any earlier
// record with the same URI. Posts whose body fails the blocklist
// check are not recorded.
func (s *Store) SavePostHistory(ctx context.Context, record *PostHistoryRecord) error {
	blocked, word, err := s.IsBlocked(ctx, record.Text)
	if err != nil {
		return err
	}
	if blocked {
		return errors.Wrapf(guard.ErrBlocked, "post text contains %q", word)
	}
	return s.driver.UpsertPostHistory(ctx, record)
}

// GetPostHistory returns the most recent posts from owner, newest
// first, capped at limit.
func (s *Store) GetPostHistory(ctx context.Context, owner string, limit int) ([]*PostHistoryRecord, error) {
	return s.driver.ListPostHistory(ctx, &FindPostHistory{Owner: owner, Limit: limit})
}

// GetRecentActiveOwners returns the handles seen in post history
// within the given window, most recent first.
func (s *Store) GetRecentActiveOwners(ctx context.Context, window time.Duration, limit int) ([]string, error) {
	return s.driver.ListRecentActiveOwners(ctx, time.Now().Add(-window), limit)
}
