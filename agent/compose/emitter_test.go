package compose

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4uffin/aura-bot/bsky"
)

type sentPost struct {
	text  string
	reply *bsky.ReplyRef
}

type fakePoster struct {
	fakeResolver
	posts []sentPost
}

func (f *fakePoster) CreatePost(_ context.Context, text string, _ []bsky.Facet, reply *bsky.ReplyRef) (*bsky.StrongRef, error) {
	f.posts = append(f.posts, sentPost{text: text, reply: reply})
	n := len(f.posts)
	return &bsky.StrongRef{
		URI: fmt.Sprintf("at://did:plc:bot/app.bsky.feed.post/%d", n),
		CID: fmt.Sprintf("cid%d", n),
	}, nil
}

func threadReply() *bsky.ReplyRef {
	return &bsky.ReplyRef{
		Root:   bsky.StrongRef{URI: "at://root", CID: "cidroot"},
		Parent: bsky.StrongRef{URI: "at://parent", CID: "cidparent"},
	}
}

func TestSendThreadSingleReply(t *testing.T) {
	poster := &fakePoster{}
	emitter := NewEmitter(poster, 300)

	ref, err := emitter.SendThread(context.Background(), "a short reply", threadReply())
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)

	// Fitting replies go out verbatim, no numbering.
	require.Equal(t, "a short reply", poster.posts[0].text)
	require.Equal(t, "at://root", poster.posts[0].reply.Root.URI)
	require.Equal(t, "at://parent", poster.posts[0].reply.Parent.URI)
	require.Equal(t, ref.URI, "at://did:plc:bot/app.bsky.feed.post/1")
}

func TestSendThreadChunkedReply(t *testing.T) {
	poster := &fakePoster{}
	emitter := NewEmitter(poster, 300)
	long := strings.Repeat("chunked reply content with several words ", 30) // ~1230 bytes

	first, err := emitter.SendThread(context.Background(), long, threadReply())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(poster.posts), 3)
	require.Equal(t, "at://did:plc:bot/app.bsky.feed.post/1", first.URI)

	total := len(poster.posts)
	for i, post := range poster.posts {
		require.LessOrEqual(t, len(post.text), 300)
		require.Contains(t, post.text, fmt.Sprintf("(%d/%d)", i+1, total))
		// Every chunk keeps the original conversation root.
		require.Equal(t, "at://root", post.reply.Root.URI)
	}

	// First chunk replies to the triggering post, later chunks chain.
	require.Equal(t, "at://parent", poster.posts[0].reply.Parent.URI)
	for i := 1; i < total; i++ {
		require.Equal(t, fmt.Sprintf("at://did:plc:bot/app.bsky.feed.post/%d", i), poster.posts[i].reply.Parent.URI)
	}
}

func TestSendThreadTopLevel(t *testing.T) {
	poster := &fakePoster{}
	emitter := NewEmitter(poster, 300)
	long := strings.Repeat("fresh thread content with several words ", 30)

	first, err := emitter.SendThread(context.Background(), long, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(poster.posts), 2)

	// The opening post is top-level; the rest root at the opening post.
	require.Nil(t, poster.posts[0].reply)
	for _, post := range poster.posts[1:] {
		require.Equal(t, first.URI, post.reply.Root.URI)
	}
	require.Equal(t, first.URI, poster.posts[1].reply.Parent.URI)
}

func TestSendThreadTopLevelShortText(t *testing.T) {
	poster := &fakePoster{}
	emitter := NewEmitter(poster, 300)

	_, err := emitter.SendThread(context.Background(), "a single short post", nil)
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)
	require.Nil(t, poster.posts[0].reply)
	require.Equal(t, "a single short post", poster.posts[0].text)
}
