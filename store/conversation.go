package store

import "context"

// ConversationStop marks a thread root the agent must no longer reply
// in. Once recorded the stop is terminal; there is no operation that
// reactivates a stopped conversation.
type ConversationStop struct {
	ID        int64
	RootURI   string
	CreatedTs int64
}

// ReplyStreak counts consecutive auto-continued replies in a thread,
// keyed by the thread-root URI. The counter resets to zero whenever
// the agent is explicitly mentioned.
type ReplyStreak struct {
	ID        int64
	RootURI   string
	Count     int
	CreatedTs int64
}

// MarkStopped records the thread root on the stop list. The insert is
// idempotent; marking an already-stopped root is a no-op.
func (s *Store) MarkStopped(ctx context.Context, rootURI string) error {
	return s.driver.CreateConversationStop(ctx, rootURI)
}

// IsStopped reports whether the thread root is on the stop list. An
// empty root is never considered stopped.
func (s *Store) IsStopped(ctx context.Context, rootURI string) (bool, error) {
	if rootURI == "" {
		return false, nil
	}
	return s.driver.HasConversationStop(ctx, rootURI)
}

// GetStreak returns the current reply streak for the thread root, or
// zero when no streak row exists.
func (s *Store) GetStreak(ctx context.Context, rootURI string) (int, error) {
	return s.driver.GetReplyStreak(ctx, rootURI)
}

// IncrementStreak adds one to the reply streak for the thread root,
// creating the row at one if it does not exist.
func (s *Store) IncrementStreak(ctx context.Context, rootURI string) error {
	return s.driver.IncrementReplyStreak(ctx, rootURI)
}

// ResetStreak sets the reply streak for the thread root to zero,
// creating the row if absent.
func (s *Store) ResetStreak(ctx context.Context, rootURI string) error {
	return s.driver.ResetReplyStreak(ctx, rootURI)
}
