package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/4uffin/aura-bot/store"
)

const (
	summarizeInterval = 15 * time.Minute
	summarizeWindow   = 24 * time.Hour
	summarizeOwners   = 10
	summarizePosts    = 5

	summaryTypeActivity = "user_activity"
)

// RunSummarizer periodically condenses recent per-user activity into
// summaries the decision router can surface later. It blocks until ctx
// is canceled.
func (a *Agent) RunSummarizer(ctx context.Context) error {
	ticker := time.NewTicker(summarizeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.summarizeRecentActivity(ctx)
		}
	}
}

// summarizeRecentActivity refreshes the activity summary of every user
// active in the last day. One owner failing does not stop the rest.
func (a *Agent) summarizeRecentActivity(ctx context.Context) {
	owners, err := a.store.GetRecentActiveOwners(ctx, summarizeWindow, summarizeOwners)
	if err != nil {
		slog.Error("summarizer: failed to list active users", "error", err)
		return
	}
	if len(owners) == 0 {
		return
	}
	slog.Info("summarizer: refreshing activity summaries", "users", len(owners))

	for _, owner := range owners {
		if err := a.summarizeOwner(ctx, owner); err != nil {
			slog.Warn("summarizer: failed to summarize user", "owner", owner, "error", err)
		}
	}
}

const summarizePrompt = `Summarize the recent Bluesky activity of user @%s in 2-3 sentences.
Focus on the topics they discussed and what they seem interested in. Be factual and neutral.

RECENT POSTS:
%s

Output only the summary.`

func (a *Agent) summarizeOwner(ctx context.Context, owner string) error {
	records, err := a.store.GetPostHistory(ctx, owner, summarizePosts)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, "- "+record.Text)
	}
	posts := strings.Join(lines, "\n")

	summary, err := a.llm.Complete(ctx, fmt.Sprintf(summarizePrompt, owner, posts), 200)
	if err != nil || summary == "" {
		return err
	}

	return a.store.UpsertUserSummary(ctx, &store.UpsertUserSummary{
		SummaryType: summaryTypeActivity,
		Owner:       owner,
		Content:     summary,
		Tags:        extractTags(posts),
	})
}
