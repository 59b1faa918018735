package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/4uffin/aura-bot/agent/router"
	"github.com/4uffin/aura-bot/store"
)

// buildFocusedContext assembles the memory context the decision
// selected: a couple of user memory blocks and a few matching
// knowledge items.
func (a *Agent) buildFocusedContext(ctx context.Context, decision *router.Decision) string {
	var parts []string

	for _, owner := range capped(decision.RelevantUsers, 2) {
		memories, err := a.store.GetMemories(ctx, owner)
		if err != nil {
			slog.Warn("agent: failed to load memories", "owner", owner, "error", err)
			continue
		}
		if len(memories) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "\nKey info about @%s:\n", owner)
		keys := make([]string, 0, len(memories))
		for key := range memories {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range capped(keys, 2) {
			fmt.Fprintf(&b, "- %s: %s\n", key, memories[key])
		}
		parts = append(parts, b.String())
	}

	terms := dedupe(append(append([]string{}, decision.RelevantTopics...), decision.RelevantTags...))
	if len(terms) > 0 {
		items, err := a.store.SearchKnowledgeByTags(ctx, terms, 3)
		if err != nil {
			slog.Warn("agent: knowledge search failed", "error", err)
		} else if len(items) > 0 {
			var b strings.Builder
			b.WriteString("\nRelevant knowledge from my memory:\n")
			for _, item := range items {
				fmt.Fprintf(&b, "- %s: %s\n", item.Topic, item.Body)
			}
			parts = append(parts, b.String())
		}
	}

	return strings.Join(parts, "")
}

// searchContext runs a platform search and formats the results for the
// generation prompt. Errors come back as a readable sentence so the
// model can tell the user the search failed.
func (a *Agent) searchContext(ctx context.Context, query string) string {
	slog.Info("agent: searching posts", "query", query)
	posts, err := a.platform.SearchPosts(ctx, query, 5)
	if err != nil {
		slog.Error("agent: post search failed", "query", query, "error", err)
		return "Error: An error occurred while searching Bluesky."
	}
	if len(posts) == 0 {
		return "No recent Bluesky posts found for that query."
	}

	results := make([]string, 0, len(posts))
	for _, post := range posts {
		text := strings.ReplaceAll(post.Text(), "\n", " ")
		results = append(results, fmt.Sprintf("Author: @%s\nPost: %s\nLink: %s",
			post.Author.Handle, text, postWebURL(post.URI)))
	}
	return strings.Join(results, "\n---\n")
}

// postWebURL converts an at:// record URI to the public web URL.
func postWebURL(uri string) string {
	parts := strings.Split(strings.TrimPrefix(uri, "at://"), "/")
	if len(parts) != 3 {
		return "N/A"
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", parts[0], parts[2])
}

const replySystemPrompt = `You are %s, a helpful and knowledgeable Bluesky bot.
- Be helpful, engaging, and supportive.
- You CAN use emojis to convey tone and express personality when replying directly to users.
- Continue the conversation naturally. Be concise and keep replies to a single post unless the user asks for a detailed explanation or more information.
- Never use markdown as this won't format properly. Write like a regular social media user.
- If "BLUESKY POSTS" context is provided, you MUST use it to answer the user's question. Synthesize the information and include links.
- If search results returned an error or were empty, state that you couldn't find information on that topic.
- If no search context is provided, use your memory and the conversation history to respond naturally.

CURRENT PERSONALITY DIRECTIVE: %s`

// generateReply produces the conversational response for a turn and,
// as a side effect, records the inbound post and harvests new
// knowledge from the exchange.
func (a *Agent) generateReply(ctx context.Context, history, latest, authorHandle, uri string, decision *router.Decision) string {
	if err := a.store.SavePostHistory(ctx, &store.PostHistoryRecord{
		Owner:         authorHandle,
		Text:          latestText(latest),
		URI:           uri,
		ThreadContext: history,
	}); err != nil {
		slog.Warn("agent: failed to save post history", "uri", uri, "error", err)
	}

	focused := a.buildFocusedContext(ctx, decision)

	external := ""
	if decision.Action == router.ActionSearch && decision.Query != "" {
		external = fmt.Sprintf("\nRECENT BLUESKY POSTS ABOUT '%s':\n%s", decision.Query, a.searchContext(ctx, decision.Query))
	}

	directive, err := a.store.GetLatestDirective(ctx)
	if err != nil {
		slog.Warn("agent: failed to load directive", "error", err)
	}

	prompt := fmt.Sprintf(`%s

%s

FOCUSED CONTEXT (from my internal memory):
%s

EXTERNAL CONTEXT (from a live Bluesky search, if performed):
%s

COMPLETE THREAD HISTORY:
%s

MOST RECENT MESSAGE THAT MENTIONED YOU:
%s

Generate a natural, helpful response based on all available information.`,
		fmt.Sprintf(replySystemPrompt, a.config.Name, directive),
		realWorldContext(time.Now()),
		focused,
		external,
		history,
		latest,
	)

	reply, err := a.llm.Complete(ctx, prompt, 1000)
	if err != nil {
		slog.Error("agent: reply generation failed", "error", err)
		return ""
	}

	if reply != "" {
		a.harvestKnowledge(ctx, fmt.Sprintf("%s\n%s: %s", latest, a.config.Name, reply), decision.RelevantTags)
	}
	return reply
}

const newPostSystemPrompt = `You are %s, a helpful and knowledgeable Bluesky bot. A user has asked you to write a new, original post (as a thread) about a specific topic.

- Write an engaging, informative, and neutral thread about the requested topic.
- Use the provided search results for context and to understand what people are currently saying.
- Structure your response as a cohesive thread. Start with an introduction, provide details in the middle, and end with a conclusion.
- You can use multiple paragraphs. The content will be automatically split into a thread.
- NEVER use emojis. Use plain text only.

CURRENT PERSONALITY DIRECTIVE: %s`

// generatePostContent writes the body of a new top-level thread about
// the topic, grounded in a fresh platform search.
func (a *Agent) generatePostContent(ctx context.Context, topic string) string {
	slog.Info("agent: generating new post content", "topic", topic)

	directive, err := a.store.GetLatestDirective(ctx)
	if err != nil {
		slog.Warn("agent: failed to load directive", "error", err)
	}

	prompt := fmt.Sprintf(`%s

TOPIC TO WRITE ABOUT:
%s

CONTEXT FROM RECENT BLUESKY POSTS:
%s

Please now write the full text for the post thread.`,
		fmt.Sprintf(newPostSystemPrompt, a.config.Name, directive),
		topic,
		a.searchContext(ctx, topic),
	)

	content, err := a.llm.Complete(ctx, prompt, 1500)
	if err != nil {
		slog.Error("agent: post content generation failed", "topic", topic, "error", err)
		return ""
	}
	return content
}

const mergeDirectivePrompt = `An admin is updating a bot's personality instructions.
The previous set of instructions was: %q
The new instruction is: %q

Combine these into a new, single set of instructions for the bot to follow. The new instruction should take precedence if it conflicts with an old one. For example, if the old instruction was "be formal" and the new one is "be more casual", the new set should reflect the casual tone.

Output only the new, combined set of instructions.`

// updateDirective merges the new instruction into the latest directive
// via the reasoning service and appends the result. When the merge
// call fails the previous directive stays authoritative.
func (a *Agent) updateDirective(ctx context.Context, instruction string) string {
	latest, err := a.store.GetLatestDirective(ctx)
	if err != nil {
		slog.Warn("agent: failed to load directive", "error", err)
	}

	merged, err := a.llm.Complete(ctx, fmt.Sprintf(mergeDirectivePrompt, latest, instruction), 200)
	if err != nil || merged == "" {
		slog.Warn("agent: directive merge failed, keeping previous", "error", err)
		return latest
	}
	if err := a.store.SaveDirective(ctx, merged); err != nil {
		slog.Error("agent: failed to save directive", "error", err)
		return latest
	}
	slog.Info("agent: directive updated", "directive", merged)
	return merged
}

const harvestPrompt = `%s

Analyze this conversation and identify any new, interesting, or educational information that isn't already covered in the existing knowledge base.

CONVERSATION:
%s

EXISTING KNOWLEDGE:
%s

Extract any NEW facts, definitions, explanations, or interesting information that should be saved. For each piece of information, provide:
1. A short topic/title
2. The information itself
3. Relevant tags (comma-separated)

Format each item as:
TOPIC: [topic]
INFO: [information]
TAGS: [tag1, tag2, tag3]

Only include genuinely new and valuable information. Skip personal opinions or already covered topics.`

// harvestKnowledge extracts new knowledge items from a conversation
// snippet and stores the ones that survive dedup and the blocklist.
func (a *Agent) harvestKnowledge(ctx context.Context, conversation string, tags []string) {
	existing, err := a.store.SearchKnowledgeByTags(ctx, tags, 3)
	if err != nil {
		slog.Warn("agent: knowledge lookup failed", "error", err)
	}
	var known []string
	for _, item := range existing {
		known = append(known, "- "+item.Body)
	}

	response, err := a.llm.Complete(ctx,
		fmt.Sprintf(harvestPrompt, realWorldContext(time.Now()), conversation, strings.Join(known, "\n")), 500)
	if err != nil {
		slog.Warn("agent: knowledge extraction failed", "error", err)
		return
	}

	for _, item := range parseKnowledgeItems(response) {
		err := a.store.SaveKnowledge(ctx, item.topic, item.body, item.tags)
		switch {
		case err == nil:
			slog.Info("agent: saved new knowledge", "topic", item.topic, "tags", item.tags)
		case errors.Is(err, store.ErrKnowledgeExists):
			slog.Debug("agent: knowledge already known", "topic", item.topic)
		default:
			slog.Warn("agent: failed to save knowledge", "topic", item.topic, "error", err)
		}
	}
}

type knowledgeItem struct {
	topic, body, tags string
}

// parseKnowledgeItems parses the TOPIC/INFO/TAGS blocks of an
// extraction response. Items with a short body are discarded as not
// substantial.
func parseKnowledgeItems(response string) []knowledgeItem {
	var items []knowledgeItem
	for _, section := range strings.Split(response, "\n\n") {
		if !strings.Contains(section, "TOPIC:") || !strings.Contains(section, "INFO:") {
			continue
		}
		var item knowledgeItem
		for _, line := range strings.Split(section, "\n") {
			switch {
			case strings.HasPrefix(line, "TOPIC:"):
				item.topic = strings.TrimSpace(strings.TrimPrefix(line, "TOPIC:"))
			case strings.HasPrefix(line, "INFO:"):
				item.body = strings.TrimSpace(strings.TrimPrefix(line, "INFO:"))
			case strings.HasPrefix(line, "TAGS:"):
				item.tags = strings.TrimSpace(strings.TrimPrefix(line, "TAGS:"))
			}
		}
		if item.topic != "" && len(item.body) > 20 {
			items = append(items, item)
		}
	}
	return items
}

// tagPatterns are the coarse keyword buckets used to tag summarized
// content without a reasoning call.
var tagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(science|technology|biology|physics|chemistry|math|history|art|music|literature)\b`),
	regexp.MustCompile(`\b(programming|coding|python|javascript|ai|machine learning|data)\b`),
	regexp.MustCompile(`\b(cat|dog|animal|pet|nature|environment|climate)\b`),
	regexp.MustCompile(`\b(food|cooking|recipe|restaurant|health|fitness)\b`),
	regexp.MustCompile(`\b(movie|film|book|game|video|entertainment)\b`),
	regexp.MustCompile(`\b(travel|vacation|city|country|culture|language)\b`),
}

// extractTags pulls recognizable topic keywords out of text, sorted
// and comma-joined.
func extractTags(text string) string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, pattern := range tagPatterns {
		for _, match := range pattern.FindAllString(lower, -1) {
			seen[match] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return ""
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

func capped(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// latestText strips the "@identity: " transcript prefix.
func latestText(line string) string {
	if _, text, ok := strings.Cut(line, ": "); ok {
		return text
	}
	return line
}
