package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/4uffin/aura-bot/bsky"
)

type fakeFetcher struct {
	threads map[string]*bsky.ThreadViewPost
}

func (f *fakeFetcher) GetPostThread(_ context.Context, uri string) (*bsky.ThreadViewPost, error) {
	node, ok := f.threads[uri]
	if !ok {
		return nil, errors.Errorf("thread not found for %q", uri)
	}
	return node, nil
}

func post(handle, text string) *bsky.PostView {
	record, _ := json.Marshal(bsky.PostRecord{Type: "app.bsky.feed.post", Text: text})
	return &bsky.PostView{
		URI:    "at://" + handle + "/post",
		Author: bsky.Author{Handle: handle},
		Record: record,
	}
}

func TestReconstructSinglePost(t *testing.T) {
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{
		"at://leaf": {Post: post("alice.bsky.social", "hello bot")},
	}}

	transcript := Reconstruct(context.Background(), fetcher, "at://leaf")
	require.Equal(t, 1, transcript.Depth)
	require.Equal(t, "@alice.bsky.social: hello bot", transcript.History)
	require.Equal(t, transcript.History, transcript.Latest)
	require.Equal(t, "hello bot", transcript.LatestText())
}

func TestReconstructWalksParentChain(t *testing.T) {
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{
		"at://leaf": {
			Post: post("carol.example.com", "and what about generics?"),
			Parent: &bsky.ThreadViewPost{
				Post: post("bot.bsky.social", "Go is a compiled language."),
				Parent: &bsky.ThreadViewPost{
					Post: post("alice.bsky.social", "what is Go?"),
				},
			},
		},
	}}

	transcript := Reconstruct(context.Background(), fetcher, "at://leaf")
	require.Equal(t, 3, transcript.Depth)
	require.Equal(t,
		"@alice.bsky.social: what is Go?\n"+
			"@bot.bsky.social: Go is a compiled language.\n"+
			"@carol.example.com: and what about generics?",
		transcript.History)
	require.Equal(t, "@carol.example.com: and what about generics?", transcript.Latest)
	require.Equal(t, "and what about generics?", transcript.LatestText())
}

func TestReconstructFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{}}
	transcript := Reconstruct(context.Background(), fetcher, "at://missing")
	require.Equal(t, 0, transcript.Depth)
	require.Empty(t, transcript.History)
	require.Empty(t, transcript.Latest)
}

func TestReconstructBoundsAscent(t *testing.T) {
	// A cyclic parent chain must not loop forever.
	node := &bsky.ThreadViewPost{Post: post("alice.bsky.social", "loop")}
	node.Parent = node
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{"at://loop": node}}

	transcript := Reconstruct(context.Background(), fetcher, "at://loop")
	require.Equal(t, maxAscent, transcript.Depth)
}

func TestReconstructSkipsMissingPosts(t *testing.T) {
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{
		"at://leaf": {
			Post: post("alice.bsky.social", "reply"),
			Parent: &bsky.ThreadViewPost{
				// Deleted post: node present, post missing.
				Parent: &bsky.ThreadViewPost{Post: post("bob.example.com", "root")},
			},
		},
	}}

	transcript := Reconstruct(context.Background(), fetcher, "at://leaf")
	require.Equal(t, 2, transcript.Depth)
	require.Equal(t, "@bob.example.com: root\n@alice.bsky.social: reply", transcript.History)
}

func TestLatestTextWithoutPrefix(t *testing.T) {
	transcript := &Transcript{Latest: "bare text with no author prefix"}
	require.Equal(t, "bare text with no author prefix", transcript.LatestText())
}

func TestReconstructManyPosts(t *testing.T) {
	var node *bsky.ThreadViewPost
	for i := 0; i < 5; i++ {
		node = &bsky.ThreadViewPost{
			Post:   post("user.bsky.social", fmt.Sprintf("message %d", i)),
			Parent: node,
		}
	}
	fetcher := &fakeFetcher{threads: map[string]*bsky.ThreadViewPost{"at://leaf": node}}

	transcript := Reconstruct(context.Background(), fetcher, "at://leaf")
	require.Equal(t, 5, transcript.Depth)
	require.Equal(t, "@user.bsky.social: message 4", transcript.Latest)
}
