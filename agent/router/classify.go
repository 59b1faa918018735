package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// stopKeywords short-circuit the disengagement check without a
// reasoning call.
var stopKeywords = []string{"stop", "go away", "end conversation", "shut up", "enough"}

const stopPrompt = `Analyze the following user's message. The user is replying to a bot.
Does the user want the bot to stop replying, go away, end the conversation, or otherwise disengage from this specific thread?
Answer with only "true" or "false".

User message: %q`

// ShouldStopReplying reports whether the user is asking the agent to
// disengage from the thread. A keyword hit answers immediately;
// otherwise the reasoning service is asked, and only an exact "true"
// (case-insensitive) counts. Any failure means false.
func (r *Router) ShouldStopReplying(ctx context.Context, text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range stopKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	response, err := r.llm.Complete(ctx, fmt.Sprintf(stopPrompt, text), 10)
	if err != nil {
		slog.Warn("router: stop classification failed", "error", err)
		return false
	}
	return strings.EqualFold(response, "true")
}

const topicSafetyPrompt = `A user has asked a bot to write a new post about the following topic.
Analyze the topic for any sensitive, harmful, hateful, or dangerous content.
Banned categories include: hate speech, violence, illegal acts, self-harm, explicit content, and misinformation.

If the topic is safe and appropriate for a general social media audience, answer with only "true".
If the topic is unsafe or inappropriate, answer with only "false".

Topic: %q`

// IsTopicSafe reports whether a requested post topic passed the safety
// classification. Only an exact "true" authorizes posting; anything
// else, including a failed call, refuses.
func (r *Router) IsTopicSafe(ctx context.Context, topic string) bool {
	response, err := r.llm.Complete(ctx, fmt.Sprintf(topicSafetyPrompt, topic), 10)
	if err != nil {
		slog.Warn("router: topic safety classification failed", "error", err)
		return false
	}
	return strings.EqualFold(response, "true")
}
