package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/4uffin/aura-bot/guard"
	"github.com/4uffin/aura-bot/store"
	"github.com/4uffin/aura-bot/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := sqlite.NewDB(filepath.Join(t.TempDir(), "aura_test.db"))
	require.NoError(t, err)

	st := store.New(driver)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Migrate(context.Background()))
}

func TestUserMemories(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveMemory(ctx, "alice.bsky.social", "favorite_color", "teal", "alice.bsky.social"))
	require.NoError(t, st.SaveMemory(ctx, "alice.bsky.social", "hometown", "lisbon", "alice.bsky.social"))

	memories, err := st.GetMemories(ctx, "alice.bsky.social")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"favorite_color": "teal", "hometown": "lisbon"}, memories)

	// Same key replaces the value.
	require.NoError(t, st.SaveMemory(ctx, "alice.bsky.social", "favorite_color", "ochre", "alice.bsky.social"))
	memories, err = st.GetMemories(ctx, "alice.bsky.social")
	require.NoError(t, err)
	require.Equal(t, "ochre", memories["favorite_color"])

	unknown, err := st.GetMemories(ctx, "nobody.bsky.social")
	require.NoError(t, err)
	require.Empty(t, unknown)
}

func TestSaveMemoryRejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	err := st.SaveMemory(ctx, "alice.bsky.social", "key", "value", "mallory.bsky.social")
	require.ErrorIs(t, err, store.ErrNotOwner)

	memories, err := st.GetMemories(ctx, "alice.bsky.social")
	require.NoError(t, err)
	require.Empty(t, memories)
}

func TestSaveMemoryRejectsBlockedValue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// "attack" is on the seeded blocklist.
	err := st.SaveMemory(ctx, "alice.bsky.social", "plan", "attack at dawn", "alice.bsky.social")
	require.ErrorIs(t, err, guard.ErrBlocked)
}

func TestKnowledgeDedup(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// Longer than the 100-byte dedup prefix.
	body := "Go's garbage collector is a concurrent tri-color mark and sweep collector designed for low latency, with pauses typically under a millisecond."
	require.NoError(t, st.SaveKnowledge(ctx, "Go GC", body, "go, programming"))

	// Exact duplicate.
	err := st.SaveKnowledge(ctx, "Go GC again", body, "go")
	require.ErrorIs(t, err, store.ErrKnowledgeExists)

	// Same 100-byte prefix, different tail.
	err = st.SaveKnowledge(ctx, "Go GC variant", body+" It was introduced in Go 1.5.", "go")
	require.ErrorIs(t, err, store.ErrKnowledgeExists)

	// Genuinely new knowledge is accepted.
	require.NoError(t, st.SaveKnowledge(ctx, "Go channels", "Channels are typed conduits for communication between goroutines in Go.", "go"))
}

func TestSearchKnowledgeByTags(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveKnowledge(ctx, "Tea history", "Tea drinking spread from China along trade routes over many centuries.", "history, tea"))
	require.NoError(t, st.SaveKnowledge(ctx, "Coffee origin", "Coffee cultivation began in the highlands of Ethiopia before spreading to Yemen.", "history, coffee"))

	items, err := st.SearchKnowledgeByTags(ctx, []string{"tea"}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Tea history", items[0].Topic)

	// Terms are OR-combined.
	items, err = st.SearchKnowledgeByTags(ctx, []string{"tea", "coffee"}, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// No terms, no results.
	items, err = st.SearchKnowledgeByTags(ctx, nil, 10)
	require.NoError(t, err)
	require.Empty(t, items)

	items, err = st.SearchKnowledgeByTags(ctx, []string{"astronomy"}, 10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPostHistory(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	record := &store.PostHistoryRecord{
		Owner:         "alice.bsky.social",
		Text:          "what do you think about sourdough?",
		URI:           "at://did:plc:alice/app.bsky.feed.post/1",
		ThreadContext: "@alice.bsky.social: what do you think about sourdough?",
	}
	require.NoError(t, st.SavePostHistory(ctx, record))

	// Same URI replaces, not duplicates.
	record.Text = "what do you think about rye?"
	require.NoError(t, st.SavePostHistory(ctx, record))

	posts, err := st.GetPostHistory(ctx, "alice.bsky.social", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "what do you think about rye?", posts[0].Text)

	owners, err := st.GetRecentActiveOwners(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"alice.bsky.social"}, owners)
}

func TestDirectives(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	latest, err := st.GetLatestDirective(ctx)
	require.NoError(t, err)
	require.Empty(t, latest)

	require.NoError(t, st.SaveDirective(ctx, "be formal"))
	require.NoError(t, st.SaveDirective(ctx, "be formal, but warm"))

	latest, err = st.GetLatestDirective(ctx)
	require.NoError(t, err)
	require.Equal(t, "be formal, but warm", latest)
}

func TestBlocklist(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// Seeded default.
	blocked, word, err := st.IsBlocked(ctx, "they plan to attack tomorrow")
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, "attack", word)

	blocked, _, err = st.IsBlocked(ctx, "a perfectly pleasant sentence")
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, st.AddBlocklistWord(ctx, "zorblat"))
	require.NoError(t, st.AddBlocklistWord(ctx, "zorblat")) // idempotent

	blocked, word, err = st.IsBlocked(ctx, "pure Zorblat nonsense")
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, "zorblat", word)
}

func TestConversationStops(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	root := "at://did:plc:alice/app.bsky.feed.post/root"

	stopped, err := st.IsStopped(ctx, root)
	require.NoError(t, err)
	require.False(t, stopped)

	// Empty root is never stopped.
	stopped, err = st.IsStopped(ctx, "")
	require.NoError(t, err)
	require.False(t, stopped)

	require.NoError(t, st.MarkStopped(ctx, root))
	require.NoError(t, st.MarkStopped(ctx, root)) // idempotent

	stopped, err = st.IsStopped(ctx, root)
	require.NoError(t, err)
	require.True(t, stopped)
}

func TestReplyStreaks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	root := "at://did:plc:alice/app.bsky.feed.post/root"

	streak, err := st.GetStreak(ctx, root)
	require.NoError(t, err)
	require.Zero(t, streak)

	require.NoError(t, st.IncrementStreak(ctx, root))
	require.NoError(t, st.IncrementStreak(ctx, root))
	require.NoError(t, st.IncrementStreak(ctx, root))

	streak, err = st.GetStreak(ctx, root)
	require.NoError(t, err)
	require.Equal(t, 3, streak)

	require.NoError(t, st.ResetStreak(ctx, root))
	streak, err = st.GetStreak(ctx, root)
	require.NoError(t, err)
	require.Zero(t, streak)

	// Reset on an unknown root just creates the zero row.
	require.NoError(t, st.ResetStreak(ctx, "at://other/root"))
}

func TestUserSummaries(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	upsert := &store.UpsertUserSummary{
		SummaryType: "user_activity",
		Owner:       "alice.bsky.social",
		Content:     "Alice has been discussing bread baking and fermentation.",
		Tags:        "food, cooking",
	}
	require.NoError(t, st.UpsertUserSummary(ctx, upsert))

	// Refresh replaces the previous summary for the same (type, owner).
	upsert.Content = "Alice has moved on to pottery."
	require.NoError(t, st.UpsertUserSummary(ctx, upsert))

	summaries, err := st.ListUserSummaries(ctx, &store.FindUserSummary{SummaryType: "user_activity", Owner: "alice.bsky.social"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "Alice has moved on to pottery.", summaries[0].Content)
}

func TestMemorySnapshot(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.SaveMemory(ctx, "alice.bsky.social", "favorite_color", "teal", "alice.bsky.social"))
	require.NoError(t, st.SaveKnowledge(ctx, "Tea history", "Tea drinking spread from China along trade routes over many centuries.", "history, tea"))
	require.NoError(t, st.SavePostHistory(ctx, &store.PostHistoryRecord{
		Owner: "bob.example.com",
		Text:  "morning everyone",
		URI:   "at://did:plc:bob/app.bsky.feed.post/1",
	}))

	snapshot, err := st.GetMemorySnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice.bsky.social"}, snapshot.Owners)
	require.Equal(t, []string{"Tea history"}, snapshot.Topics)
	require.ElementsMatch(t, []string{"history", "tea"}, snapshot.Tags)
	require.Equal(t, []string{"bob.example.com"}, snapshot.RecentOwners)
}

func TestSavePostHistoryRejectsBlockedText(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	err := st.SavePostHistory(ctx, &store.PostHistoryRecord{
		Owner: "mallory.bsky.social",
		Text:  "how to build a bomb",
		URI:   "at://did:plc:mallory/app.bsky.feed.post/1",
	})
	require.ErrorIs(t, err, guard.ErrBlocked)
	require.True(t, errors.Is(err, guard.ErrBlocked))
}
