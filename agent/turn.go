package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4uffin/aura-bot/agent/router"
	"github.com/4uffin/aura-bot/agent/thread"
	"github.com/4uffin/aura-bot/bsky"
	"github.com/4uffin/aura-bot/internal/metrics"
)

// handleNotification runs one full turn for a mention or reply. All
// outcomes mark the notification seen; a turn is never retried, since
// replaying a half-finished turn risks double-posting.
func (a *Agent) handleNotification(ctx context.Context, notification *bsky.Notification) {
	record := notification.ParseRecord()
	replyRef, rootURI := replyTarget(notification, &record)

	unlock := a.tracker.Lock(rootURI)
	defer unlock()

	if a.seen.Contains(notification.URI) {
		return
	}
	defer a.markSeen(notification.URI)

	transcript := thread.Reconstruct(ctx, a.platform, notification.URI)
	if transcript.Depth == 0 {
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}
	latest := transcript.LatestText()

	slog.Info("agent: handling notification",
		"uri", notification.URI,
		"author", notification.Author.Handle,
		"reason", notification.Reason,
		"depth", transcript.Depth)

	if a.isAdmin(notification.Author.DID) {
		if a.runAdminCommand(ctx, latest, replyRef) {
			metrics.TurnsProcessed.WithLabelValues("replied").Inc()
			return
		}
	}

	mentioned := a.explicitlyMentioned(notification, latest)
	proceed, err := a.tracker.Gate(ctx, rootURI, mentioned)
	if err != nil {
		slog.Error("agent: conversation gate failed", "root", rootURI, "error", err)
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}
	if !proceed {
		metrics.Suppressions.WithLabelValues("streak_limit").Inc()
		metrics.TurnsProcessed.WithLabelValues("skipped").Inc()
		return
	}

	if a.router.ShouldStopReplying(ctx, latest) {
		slog.Info("agent: user requested disengagement", "root", rootURI)
		if err := a.tracker.Stop(ctx, rootURI); err != nil {
			slog.Error("agent: failed to record stop", "root", rootURI, "error", err)
		}
		metrics.Suppressions.WithLabelValues("stopped").Inc()
		metrics.TurnsProcessed.WithLabelValues("stopped").Inc()
		return
	}

	snapshot, err := a.store.GetMemorySnapshot(ctx)
	if err != nil {
		slog.Error("agent: failed to load memory snapshot", "error", err)
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}
	decision := a.router.Decide(ctx, transcript.History, transcript.Latest, snapshot)

	// A write_post decision without a topic is malformed; fall through
	// to a normal reply instead of commissioning a post about nothing.
	if decision.Action == router.ActionWritePost && decision.Query != "" {
		a.commissionPost(ctx, decision.Query, replyRef)
		metrics.TurnsProcessed.WithLabelValues("replied").Inc()
		return
	}

	reply := a.generateReply(ctx, transcript.History, transcript.Latest,
		notification.Author.Handle, notification.URI, decision)
	if reply == "" {
		metrics.Suppressions.WithLabelValues("empty").Inc()
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}

	blocked, word, err := a.store.IsBlocked(ctx, reply)
	if err != nil {
		slog.Error("agent: blocklist check failed", "error", err)
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}
	if blocked {
		slog.Warn("agent: suppressing reply containing blocklisted word", "word", word, "uri", notification.URI)
		metrics.Suppressions.WithLabelValues("blocklist").Inc()
		metrics.TurnsProcessed.WithLabelValues("skipped").Inc()
		return
	}

	if _, err := a.emitter.SendThread(ctx, reply, replyRef); err != nil {
		slog.Error("agent: failed to post reply", "uri", notification.URI, "error", err)
		metrics.TurnsProcessed.WithLabelValues("failed").Inc()
		return
	}
	metrics.PostsPublished.WithLabelValues("reply").Inc()

	if !mentioned {
		if err := a.tracker.RecordAutoReply(ctx, rootURI); err != nil {
			slog.Error("agent: failed to record auto reply", "root", rootURI, "error", err)
		}
	}
	metrics.TurnsProcessed.WithLabelValues("replied").Inc()
}

// replyTarget derives the reply ref for the agent's response and the
// thread root URI used for streak accounting. A top-level mention is
// its own root.
func replyTarget(notification *bsky.Notification, record *bsky.PostRecord) (*bsky.ReplyRef, string) {
	self := bsky.StrongRef{URI: notification.URI, CID: notification.CID}
	if record.Reply != nil {
		return &bsky.ReplyRef{Root: record.Reply.Root, Parent: self}, record.Reply.Root.URI
	}
	return &bsky.ReplyRef{Root: self, Parent: self}, notification.URI
}

// explicitlyMentioned reports whether the user addressed the agent
// directly rather than the agent merely being subscribed to the
// thread. Either counts: the notification reason, or the handle
// appearing in the text.
func (a *Agent) explicitlyMentioned(notification *bsky.Notification, text string) bool {
	if notification.Reason == "mention" {
		return true
	}
	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(a.platform.Handle()))
}

// runAdminCommand recognizes and executes the admin command prefixes,
// returning true when the message was a command. Command text is the
// latest post with the leading @mention stripped.
func (a *Agent) runAdminCommand(ctx context.Context, text string, replyRef *bsky.ReplyRef) bool {
	command := strings.TrimSpace(stripLeadingMention(text))
	lower := strings.ToLower(command)

	switch {
	case strings.HasPrefix(lower, "post "):
		content := strings.TrimSpace(command[len("post "):])
		a.runAdminPost(ctx, content, replyRef)
		return true
	case strings.HasPrefix(lower, "directive "):
		instruction := strings.TrimSpace(command[len("directive "):])
		a.runAdminDirective(ctx, instruction, replyRef)
		return true
	}
	return false
}

// runAdminPost handles the admin "post <text>" command: the text is
// published verbatim as a new top-level thread, subject only to the
// blocklist.
func (a *Agent) runAdminPost(ctx context.Context, content string, replyRef *bsky.ReplyRef) {
	blocked, word, err := a.store.IsBlocked(ctx, content)
	if err != nil {
		slog.Error("agent: blocklist check failed", "error", err)
		return
	}
	if blocked {
		slog.Warn("agent: refusing admin post containing blocklisted word", "word", word)
		metrics.Suppressions.WithLabelValues("blocklist").Inc()
		a.sendReply(ctx, "Sorry, I can't publish that: it contains a word on my blocklist.", replyRef)
		return
	}

	if _, err := a.emitter.SendThread(ctx, content, nil); err != nil {
		slog.Error("agent: failed to publish admin post", "error", err)
		return
	}
	metrics.PostsPublished.WithLabelValues("thread").Inc()
	a.sendReply(ctx, "Done! I've published that post.", replyRef)
}

// commissionPost handles the router's write_post action: acknowledge,
// safety-check the topic, generate content grounded in a fresh search,
// then publish a new top-level thread. Any user may ask; the topic
// safety classifier is the gate.
func (a *Agent) commissionPost(ctx context.Context, topic string, replyRef *bsky.ReplyRef) {
	if !a.router.IsTopicSafe(ctx, topic) {
		slog.Warn("agent: refusing unsafe post topic", "topic", topic)
		metrics.Suppressions.WithLabelValues("unsafe_topic").Inc()
		a.sendReply(ctx, "Sorry, I can't write a post about that topic.", replyRef)
		return
	}

	a.sendReply(ctx, fmt.Sprintf("On it! Working on a post about %q now.", topic), replyRef)

	content := a.generatePostContent(ctx, topic)
	if content == "" {
		a.sendReply(ctx, "Sorry, I couldn't come up with a post about that. Please try again later.", replyRef)
		return
	}

	blocked, word, err := a.store.IsBlocked(ctx, content)
	if err != nil {
		slog.Error("agent: blocklist check failed", "topic", topic, "error", err)
		return
	}
	if blocked {
		slog.Warn("agent: suppressing generated post containing blocklisted word", "word", word, "topic", topic)
		metrics.Suppressions.WithLabelValues("blocklist").Inc()
		return
	}

	if _, err := a.emitter.SendThread(ctx, content, nil); err != nil {
		slog.Error("agent: failed to publish thread", "topic", topic, "error", err)
		return
	}
	metrics.PostsPublished.WithLabelValues("thread").Inc()
	slog.Info("agent: published commissioned thread", "topic", topic)
}

// runAdminDirective handles the admin "directive <instruction>"
// command: merge the instruction into the standing directive and
// confirm.
func (a *Agent) runAdminDirective(ctx context.Context, instruction string, replyRef *bsky.ReplyRef) {
	merged := a.updateDirective(ctx, instruction)
	if merged == "" {
		a.sendReply(ctx, "Sorry, I couldn't update my directive right now.", replyRef)
		return
	}
	a.sendReply(ctx, "Understood! My personality directive has been updated.", replyRef)
}

// sendReply posts a short service reply, logging rather than
// propagating failures.
func (a *Agent) sendReply(ctx context.Context, text string, replyRef *bsky.ReplyRef) {
	if _, err := a.emitter.SendThread(ctx, text, replyRef); err != nil {
		slog.Error("agent: failed to post service reply", "error", err)
		return
	}
	metrics.PostsPublished.WithLabelValues("reply").Inc()
}

// stripLeadingMention removes a leading "@handle" token so command
// parsing sees the verb first.
func stripLeadingMention(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "@") {
		return trimmed
	}
	if _, rest, ok := strings.Cut(trimmed, " "); ok {
		return rest
	}
	return ""
}
