// Package router classifies the latest message of a conversation into
// an action and extracts the memory identifiers relevant to it, via a
// single call to the reasoning service.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4uffin/aura-bot/ai/llm"
	"github.com/4uffin/aura-bot/store"
)

// Action is the primary action chosen for a turn.
type Action string

const (
	ActionReply     Action = "reply"
	ActionSearch    Action = "bluesky_search"
	ActionWritePost Action = "write_post"
)

// Decision is the validated output of the routing call.
type Decision struct {
	Action         Action
	Query          string
	RelevantUsers  []string
	RelevantTopics []string
	RelevantTags   []string
}

// defaultDecision is the safe fallback used whenever the reasoning
// service fails or answers with something unparseable.
func defaultDecision() *Decision {
	return &Decision{
		Action:         ActionReply,
		RelevantUsers:  []string{},
		RelevantTopics: []string{},
		RelevantTags:   []string{},
	}
}

// Router makes routing and classification calls against the reasoning
// service.
type Router struct {
	llm llm.Service
}

func New(service llm.Service) *Router {
	return &Router{llm: service}
}

const decidePrompt = `TASK: You are a decision-making router for a bot. Analyze the user's message in context.
1. Decide on the primary action: ` + "`reply`, `bluesky_search`, or `write_post`" + `.
   - ` + "`reply`" + `: For normal conversation.
   - ` + "`bluesky_search`" + `: If the user explicitly asks to find posts or asks "what are people saying about X".
   - ` + "`write_post`" + `: If the user explicitly asks you to "write a post/thread about X".
2. Identify relevant memory blocks (users, topics, tags) from the conversation.
3. If searching or writing a post, provide a concise topic or query.

CONVERSATION HISTORY:
%s

MOST RECENT MESSAGE:
%s

AVAILABLE MEMORY BLOCKS:
- User handles with memories: %s
- Knowledge topics: %s
- Available tags: %s

Your entire output MUST be a single JSON object. Do not add explanations.

Return ONLY a JSON object with these keys:
{
  "action": "reply|bluesky_search|write_post",
  "query": "the_query_or_topic_if_needed_or_null",
  "relevant_users": ["list_of_relevant_user_handles"],
  "relevant_topics": ["list_of_relevant_knowledge_topics"],
  "relevant_tags": ["list_of_relevant_tags"]
}`

// Decide routes one turn. It never returns an error: any failure of
// the reasoning call or of parsing degrades to the default reply
// decision. The whole turn hinges on this single call and there is no
// retry.
func (r *Router) Decide(ctx context.Context, history, latest string, snapshot *store.MemorySnapshot) *Decision {
	prompt := fmt.Sprintf(decidePrompt,
		history,
		latest,
		strings.Join(capped(snapshot.Owners, 20), ", "),
		strings.Join(capped(snapshot.Topics, 30), ", "),
		strings.Join(capped(snapshot.Tags, 30), ", "),
	)

	response, err := r.llm.Complete(ctx, prompt, 400)
	if err != nil {
		slog.Warn("router: decision call failed, defaulting to reply", "error", err)
		return defaultDecision()
	}
	return parseDecision(response)
}

// looseDecision is the tolerant intermediate shape the raw response is
// parsed into before validation. The reasoning service is never
// trusted to match the strict type directly.
type looseDecision struct {
	Action         string   `json:"action"`
	Query          any      `json:"query"`
	RelevantUsers  []string `json:"relevant_users"`
	RelevantTopics []string `json:"relevant_topics"`
	RelevantTags   []string `json:"relevant_tags"`
}

// parseDecision extracts the first balanced {...} span from the raw
// response and validates it into a Decision. Anything unparseable
// degrades to the default.
func parseDecision(raw string) *Decision {
	span, ok := extractJSONObject(raw)
	if !ok {
		slog.Warn("router: no JSON object in decision response", "raw", truncate(raw, 200))
		return defaultDecision()
	}

	var loose looseDecision
	if err := json.Unmarshal([]byte(span), &loose); err != nil {
		slog.Warn("router: failed to parse decision JSON", "error", err, "raw", truncate(raw, 200))
		return defaultDecision()
	}

	decision := defaultDecision()
	switch Action(loose.Action) {
	case ActionReply, ActionSearch, ActionWritePost:
		decision.Action = Action(loose.Action)
	case "":
		return defaultDecision()
	default:
		slog.Warn("router: unknown action, defaulting to reply", "action", loose.Action)
	}
	if query, ok := loose.Query.(string); ok && query != "null" {
		decision.Query = query
	}
	if loose.RelevantUsers != nil {
		decision.RelevantUsers = loose.RelevantUsers
	}
	if loose.RelevantTopics != nil {
		decision.RelevantTopics = loose.RelevantTopics
	}
	if loose.RelevantTags != nil {
		decision.RelevantTags = loose.RelevantTags
	}
	return decision
}

// extractJSONObject returns the first balanced top-level {...} span in
// s, respecting strings and escapes.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func capped(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
