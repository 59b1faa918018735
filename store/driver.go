package store

import (
	"context"
	"time"
)

// Driver is an interface for store driver. It contains all methods
// that store database driver should implement.
type Driver interface {
	GetDB() any
	Close() error
	Migrate(ctx context.Context) error

	// UserMemory model related methods.
	UpsertUserMemory(ctx context.Context, upsert *UpsertUserMemory) error
	ListUserMemories(ctx context.Context, owner string) ([]*UserMemory, error)
	ListMemoryOwners(ctx context.Context, limit int) ([]string, error)

	// KnowledgeItem model related methods.
	CreateKnowledge(ctx context.Context, create *KnowledgeItem) error
	KnowledgeExists(ctx context.Context, body string, prefixLen int) (bool, error)
	SearchKnowledge(ctx context.Context, find *FindKnowledge) ([]*KnowledgeItem, error)
	ListKnowledgeTopics(ctx context.Context, limit int) ([]string, error)
	ListKnowledgeTags(ctx context.Context) ([]string, error)

	// PostHistoryRecord model related methods.
	UpsertPostHistory(ctx context.Context, record *PostHistoryRecord) error
	ListPostHistory(ctx context.Context, find *FindPostHistory) ([]*PostHistoryRecord, error)
	ListRecentActiveOwners(ctx context.Context, since time.Time, limit int) ([]string, error)

	// Directive model related methods.
	GetLatestDirective(ctx context.Context) (string, error)
	CreateDirective(ctx context.Context, text string) error

	// Blocklist model related methods.
	ListBlocklistWords(ctx context.Context) ([]string, error)
	AddBlocklistWord(ctx context.Context, word string) error

	// ConversationStop model related methods.
	CreateConversationStop(ctx context.Context, rootURI string) error
	HasConversationStop(ctx context.Context, rootURI string) (bool, error)

	// ReplyStreak model related methods.
	GetReplyStreak(ctx context.Context, rootURI string) (int, error)
	IncrementReplyStreak(ctx context.Context, rootURI string) error
	ResetReplyStreak(ctx context.Context, rootURI string) error

	// UserSummary model related methods.
	UpsertUserSummary(ctx context.Context, upsert *UpsertUserSummary) error
	ListUserSummaries(ctx context.Context, find *FindUserSummary) ([]*UserSummary, error)
}
