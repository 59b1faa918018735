package compose

import (
	"context"
	"log/slog"

	"github.com/4uffin/aura-bot/bsky"
)

// Poster is the narrow platform surface the emitter posts through.
type Poster interface {
	Resolver
	CreatePost(ctx context.Context, text string, facets []bsky.Facet, reply *bsky.ReplyRef) (*bsky.StrongRef, error)
}

// Emitter publishes response text as a correctly rooted thread of one
// or more posts under the platform character limit.
type Emitter struct {
	poster   Poster
	maxBytes int
}

func NewEmitter(poster Poster, maxBytes int) *Emitter {
	return &Emitter{poster: poster, maxBytes: maxBytes}
}

// SendThread posts text, split into numbered chunks when it exceeds
// the limit. The first chunk replies to the given ref (or is posted
// top-level when ref is nil); each later chunk replies to the previous
// chunk, all sharing the thread root. Returns the ref of the first
// post.
func (e *Emitter) SendThread(ctx context.Context, text string, reply *bsky.ReplyRef) (*bsky.StrongRef, error) {
	// A reply that fits goes out verbatim, unnumbered.
	if reply != nil && len(text) <= e.maxBytes {
		return e.sendSingle(ctx, text, reply)
	}

	chunks := SplitIntoChunks(text, e.maxBytes)

	first, err := e.sendSingle(ctx, chunks[0], reply)
	if err != nil {
		return nil, err
	}

	root := first
	if reply != nil {
		root = &reply.Root
	}

	parent := first
	for _, chunk := range chunks[1:] {
		next, err := e.sendSingle(ctx, chunk, &bsky.ReplyRef{Root: *root, Parent: *parent})
		if err != nil {
			return first, err
		}
		parent = next
	}
	return first, nil
}

func (e *Emitter) sendSingle(ctx context.Context, text string, reply *bsky.ReplyRef) (*bsky.StrongRef, error) {
	facets := MentionFacets(ctx, e.poster, text)
	facets = append(facets, LinkFacets(text)...)

	ref, err := e.poster.CreatePost(ctx, text, facets, reply)
	if err != nil {
		return nil, err
	}
	slog.Debug("compose: posted", "uri", ref.URI, "bytes", len(text))
	return ref, nil
}
