package bsky

import "encoding/json"

// StrongRef is a (uri, cid) pair identifying a specific post record.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef links a post into a thread: Root is the post that started
// the conversation, Parent the post being replied to directly.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// ByteSlice is a byte-offset range into the UTF-8 encoding of a post's
// text.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature is a rich-text annotation: a mention of a DID or a
// link.
type FacetFeature struct {
	Type string `json:"$type"`
	DID  string `json:"did,omitempty"`
	URI  string `json:"uri,omitempty"`
}

const (
	FeatureMention = "app.bsky.richtext.facet#mention"
	FeatureLink    = "app.bsky.richtext.facet#link"
)

// Facet attaches one or more features to a byte range of post text.
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// Author identifies the account that produced a post or notification.
type Author struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// PostRecord is the app.bsky.feed.post record payload.
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	Facets    []Facet   `json:"facets,omitempty"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	CreatedAt string    `json:"createdAt"`
	Langs     []string  `json:"langs,omitempty"`
}

// Notification is one entry from listNotifications.
type Notification struct {
	URI    string          `json:"uri"`
	CID    string          `json:"cid"`
	Author Author          `json:"author"`
	Reason string          `json:"reason"` // mention, reply, like, repost, follow, quote
	Record json.RawMessage `json:"record"`
}

// ParseRecord decodes the notification's record payload. A malformed
// record yields a zero PostRecord, not an error; callers treat missing
// fields as absent.
func (n *Notification) ParseRecord() PostRecord {
	var record PostRecord
	_ = json.Unmarshal(n.Record, &record)
	return record
}

// PostView is a hydrated post as returned by thread and search
// endpoints.
type PostView struct {
	URI    string          `json:"uri"`
	CID    string          `json:"cid"`
	Author Author          `json:"author"`
	Record json.RawMessage `json:"record"`
}

// Text extracts the post text from the record, or "" when the record
// is malformed.
func (p *PostView) Text() string {
	var record PostRecord
	if err := json.Unmarshal(p.Record, &record); err != nil {
		return ""
	}
	return record.Text
}

// ThreadViewPost is a node of the thread tree returned by
// getPostThread. Only the parent chain is walked; replies are not
// needed for transcript reconstruction.
type ThreadViewPost struct {
	Type   string          `json:"$type"`
	Post   *PostView       `json:"post"`
	Parent *ThreadViewPost `json:"parent"`
}
