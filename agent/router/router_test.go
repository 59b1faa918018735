package router

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/4uffin/aura-bot/store"
)

type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string, _ int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func emptySnapshot() *store.MemorySnapshot {
	return &store.MemorySnapshot{}
}

func TestDecideParsesCleanJSON(t *testing.T) {
	stub := &stubLLM{response: `{"action": "bluesky_search", "query": "golang generics", "relevant_users": ["alice"], "relevant_topics": ["programming"], "relevant_tags": ["go"]}`}
	router := New(stub)

	decision := router.Decide(context.Background(), "history", "latest", emptySnapshot())
	require.Equal(t, ActionSearch, decision.Action)
	require.Equal(t, "golang generics", decision.Query)
	require.Equal(t, []string{"alice"}, decision.RelevantUsers)
	require.Equal(t, []string{"programming"}, decision.RelevantTopics)
	require.Equal(t, []string{"go"}, decision.RelevantTags)
}

func TestDecideExtractsEmbeddedJSON(t *testing.T) {
	stub := &stubLLM{response: "Sure! Here is my decision:\n```json\n{\"action\": \"reply\", \"query\": null, \"relevant_users\": [], \"relevant_topics\": [], \"relevant_tags\": []}\n```\nHope that helps."}
	router := New(stub)

	decision := router.Decide(context.Background(), "", "hi", emptySnapshot())
	require.Equal(t, ActionReply, decision.Action)
	require.Empty(t, decision.Query)
}

func TestDecideDefaultsOnFailure(t *testing.T) {
	tests := []struct {
		name string
		stub *stubLLM
	}{
		{"llm error", &stubLLM{err: errors.New("boom")}},
		{"no json", &stubLLM{response: "I cannot decide."}},
		{"malformed json", &stubLLM{response: `{"action": "reply",`}},
		{"unknown action", &stubLLM{response: `{"action": "dance"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := New(tt.stub).Decide(context.Background(), "", "hi", emptySnapshot())
			require.Equal(t, ActionReply, decision.Action)
			require.Empty(t, decision.Query)
			require.Empty(t, decision.RelevantUsers)
		})
	}
}

func TestDecideIgnoresNullQuery(t *testing.T) {
	stub := &stubLLM{response: `{"action": "reply", "query": null}`}
	decision := New(stub).Decide(context.Background(), "", "hi", emptySnapshot())
	require.Empty(t, decision.Query)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around", `noise {"a": {"b": 2}} trailing`, `{"a": {"b": 2}}`, true},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`, true},
		{"escaped quote", `{"a": "\""}`, `{"a": "\""}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"no object", "nothing here", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestShouldStopReplyingKeywordFastPath(t *testing.T) {
	// A keyword hit never consults the reasoning service.
	stub := &stubLLM{response: "false"}
	router := New(stub)

	require.True(t, router.ShouldStopReplying(context.Background(), "please just STOP"))
	require.Empty(t, stub.prompts)
}

func TestShouldStopReplyingExactTrueContract(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     bool
	}{
		{"exact true", "true", nil, true},
		{"case variant", "True", nil, true},
		{"verbose answer", "true, the user wants to disengage", nil, false},
		{"false", "false", nil, false},
		{"llm failure", "", errors.New("timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := New(&stubLLM{response: tt.response, err: tt.err})
			require.Equal(t, tt.want, router.ShouldStopReplying(context.Background(), "thanks, that answers it"))
		})
	}
}

func TestIsTopicSafe(t *testing.T) {
	require.True(t, New(&stubLLM{response: "true"}).IsTopicSafe(context.Background(), "the history of tea"))
	require.False(t, New(&stubLLM{response: "false"}).IsTopicSafe(context.Background(), "something nasty"))
	// Failure closed: a broken classifier refuses the topic.
	require.False(t, New(&stubLLM{err: errors.New("down")}).IsTopicSafe(context.Background(), "the history of tea"))
}
