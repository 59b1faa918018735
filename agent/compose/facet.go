package compose

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/4uffin/aura-bot/bsky"
)

// Resolver resolves a handle to a DID for mention facets.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

var (
	handlePattern = regexp.MustCompile(`@([a-zA-Z0-9._-]+(?:\.[a-zA-Z]{2,})?)`)
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
)

// MentionFacets detects @handle mentions in text and annotates each as
// a mention facet at its UTF-8 byte offsets. Handles that fail to
// resolve are silently dropped; the post still goes out without that
// annotation. Go regexp indices are byte offsets already, so no
// conversion is needed.
func MentionFacets(ctx context.Context, resolver Resolver, text string) []bsky.Facet {
	var facets []bsky.Facet
	for _, match := range handlePattern.FindAllStringSubmatchIndex(text, -1) {
		handle := text[match[2]:match[3]]
		did, err := resolver.ResolveHandle(ctx, handle)
		if err != nil {
			slog.Warn("compose: could not resolve mention handle", "handle", handle, "error", err)
			continue
		}
		facets = append(facets, bsky.Facet{
			Index:    bsky.ByteSlice{ByteStart: match[0], ByteEnd: match[1]},
			Features: []bsky.FacetFeature{{Type: bsky.FeatureMention, DID: did}},
		})
	}
	return facets
}

// LinkFacets detects bare URLs in text and annotates each as a link
// facet. Only full URLs with an http(s) scheme are matched.
func LinkFacets(text string) []bsky.Facet {
	var facets []bsky.Facet
	for _, match := range urlPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, bsky.Facet{
			Index:    bsky.ByteSlice{ByteStart: match[0], ByteEnd: match[1]},
			Features: []bsky.FacetFeature{{Type: bsky.FeatureLink, URI: text[match[0]:match[1]]}},
		})
	}
	return facets
}
