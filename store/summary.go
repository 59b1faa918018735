package store

import "context"

// UserSummary is an AI-generated digest of a user's recent activity,
// refreshed by the background summarization job. One row per
// (type, owner) pair; refreshing replaces the previous summary.
type UserSummary struct {
	ID          int64
	SummaryType string
	Owner       string
	Content     string
	Tags        string
	CreatedTs   int64
	UpdatedTs   int64
}

// UpsertUserSummary specifies a summary write.
type UpsertUserSummary struct {
	SummaryType string
	Owner       string
	Content     string
	Tags        string
}

// FindUserSummary specifies the conditions for listing summaries.
type FindUserSummary struct {
	SummaryType string
	Owner       string
	Limit       int
}

// UpsertUserSummary stores or refreshes a summary for (type, owner).
func (s *Store) UpsertUserSummary(ctx context.Context, upsert *UpsertUserSummary) error {
	return s.driver.UpsertUserSummary(ctx, upsert)
}

// ListUserSummaries returns summaries matching find, most recently
// updated first.
func (s *Store) ListUserSummaries(ctx context.Context, find *FindUserSummary) ([]*UserSummary, error) {
	return s.driver.ListUserSummaries(ctx, find)
}
