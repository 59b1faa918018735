// Package thread reconstructs conversation transcripts from the
// platform's thread trees.
package thread

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4uffin/aura-bot/bsky"
)

// Fetcher is the narrow platform surface the reconstructor needs.
type Fetcher interface {
	GetPostThread(ctx context.Context, uri string) (*bsky.ThreadViewPost, error)
}

// Transcript is an ordered root-to-leaf view of a conversation.
type Transcript struct {
	// History is the full transcript, one "@identity: text" line per
	// post, root first.
	History string
	// Latest is the final line of the transcript: the leaf post that
	// triggered processing.
	Latest string
	// Depth counts the posts in the transcript. Zero means there was
	// nothing to act on.
	Depth int
}

// maxAscent bounds the parent-chain walk so a pathological thread
// structure cannot recurse without limit.
const maxAscent = 100

// Reconstruct fetches the thread containing uri and walks the parent
// chain to the root, returning posts in root-to-leaf order. A fetch
// failure or malformed tree yields an empty transcript (depth 0)
// rather than an error; callers treat that as "nothing to act on" and
// skip the turn.
func Reconstruct(ctx context.Context, fetcher Fetcher, uri string) *Transcript {
	node, err := fetcher.GetPostThread(ctx, uri)
	if err != nil {
		slog.Error("thread: failed to fetch thread", "uri", uri, "error", err)
		return &Transcript{}
	}

	// Collect leaf-to-root, then reverse: parent-before-self order.
	var chain []*bsky.PostView
	for depth := 0; node != nil && depth < maxAscent; depth++ {
		if node.Post != nil {
			chain = append(chain, node.Post)
		}
		node = node.Parent
	}

	lines := make([]string, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		post := chain[i]
		lines = append(lines, fmt.Sprintf("@%s: %s", post.Author.Handle, post.Text()))
	}

	transcript := &Transcript{
		History: strings.Join(lines, "\n"),
		Depth:   len(lines),
	}
	if len(lines) > 0 {
		transcript.Latest = lines[len(lines)-1]
	}
	slog.Debug("thread: transcript reconstructed", "uri", uri, "depth", transcript.Depth)
	return transcript
}

// LatestText strips the "@identity: " prefix from the transcript's
// leaf line, returning the bare post text.
func (t *Transcript) LatestText() string {
	if _, text, ok := strings.Cut(t.Latest, ": "); ok {
		return text
	}
	return t.Latest
}
