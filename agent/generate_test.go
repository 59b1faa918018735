package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKnowledgeItems(t *testing.T) {
	response := `TOPIC: Sourdough starters
INFO: A sourdough starter is a living culture of wild yeast and lactic acid bacteria used to leaven bread.
TAGS: food, cooking, fermentation

TOPIC: Too short
INFO: tiny
TAGS: misc

Some closing commentary from the model.`

	items := parseKnowledgeItems(response)
	require.Len(t, items, 1)
	require.Equal(t, "Sourdough starters", items[0].topic)
	require.Contains(t, items[0].body, "living culture")
	require.Equal(t, "food, cooking, fermentation", items[0].tags)
}

func TestParseKnowledgeItemsEmpty(t *testing.T) {
	require.Empty(t, parseKnowledgeItems("Nothing new to report."))
	require.Empty(t, parseKnowledgeItems(""))
}

func TestExtractTags(t *testing.T) {
	tags := extractTags("I love my cat and I'm learning Python programming for data science")
	require.Contains(t, tags, "cat")
	require.Contains(t, tags, "python")
	require.Contains(t, tags, "programming")
	require.Contains(t, tags, "science")

	require.Empty(t, extractTags("an utterly untaggable sentence"))
}

func TestPostWebURL(t *testing.T) {
	require.Equal(t,
		"https://bsky.app/profile/did:plc:alice/post/3kabc",
		postWebURL("at://did:plc:alice/app.bsky.feed.post/3kabc"))
	require.Equal(t, "N/A", postWebURL("not-a-record-uri"))
}

func TestStripLeadingMention(t *testing.T) {
	require.Equal(t, "post the history of tea", stripLeadingMention("@aura.bsky.social post the history of tea"))
	require.Equal(t, "no mention here", stripLeadingMention("no mention here"))
	require.Equal(t, "", stripLeadingMention("@aura.bsky.social"))
	require.Equal(t, "directive be kind", stripLeadingMention("  @aura.bsky.social directive be kind"))
}

func TestLatestTextHelper(t *testing.T) {
	require.Equal(t, "hello there", latestText("@alice.bsky.social: hello there"))
	require.Equal(t, "plain", latestText("plain"))
}
