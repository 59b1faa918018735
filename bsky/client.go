// Package bsky is a minimal Bluesky (AT Protocol) XRPC client covering
// the surface the agent needs: session login, notification polling,
// thread fetch, post search, handle resolution, and post creation.
package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultServiceURL = "https://bsky.social"

// Client talks to a Bluesky PDS over XRPC.
type Client struct {
	serviceURL string
	httpClient *http.Client

	// createRecord pacing: a freshly created post must be visible
	// before the next chunk references it as parent, so writes are
	// limited to one every two seconds.
	writeLimiter *rate.Limiter

	mu         sync.Mutex
	accessJWT  string
	refreshJWT string
	did        string
	handle     string
}

// NewClient creates a client against the given PDS, or bsky.social
// when serviceURL is empty.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}
	return &Client{
		serviceURL:   serviceURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		writeLimiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// DID returns the authenticated account's DID.
func (c *Client) DID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.did
}

// Handle returns the authenticated account's handle.
func (c *Client) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

type sessionResponse struct {
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
	DID        string `json:"did"`
	Handle     string `json:"handle"`
}

// Login creates a session with the identifier/password pair.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	var session sessionResponse
	err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil,
		map[string]string{"identifier": identifier, "password": password}, &session)
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}

	c.mu.Lock()
	c.accessJWT = session.AccessJWT
	c.refreshJWT = session.RefreshJWT
	c.did = session.DID
	c.handle = session.Handle
	c.mu.Unlock()

	slog.Info("bsky: logged in", "handle", session.Handle, "did", session.DID)
	return nil
}

// RefreshSession exchanges the refresh token for a new access token.
func (c *Client) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshJWT
	c.mu.Unlock()
	if refresh == "" {
		return errors.New("no refresh token; not logged in")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serviceURL+"/xrpc/com.atproto.server.refreshSession", nil)
	if err != nil {
		return errors.Wrap(err, "failed to build refresh request")
	}
	req.Header.Set("Authorization", "Bearer "+refresh)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to refresh session")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("refresh session: status %d: %s", resp.StatusCode, body)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return errors.Wrap(err, "failed to decode refreshed session")
	}

	c.mu.Lock()
	c.accessJWT = session.AccessJWT
	c.refreshJWT = session.RefreshJWT
	c.mu.Unlock()
	return nil
}

// ListNotifications returns the most recent notifications, newest
// first.
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]*Notification, error) {
	var out struct {
		Notifications []*Notification `json:"notifications"`
	}
	params := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.call(ctx, http.MethodGet, "app.bsky.notification.listNotifications", params, nil, &out); err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return out.Notifications, nil
}

// GetPostThread fetches the thread view around the given post URI.
func (c *Client) GetPostThread(ctx context.Context, uri string) (*ThreadViewPost, error) {
	var out struct {
		Thread *ThreadViewPost `json:"thread"`
	}
	params := url.Values{"uri": {uri}}
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getPostThread", params, nil, &out); err != nil {
		return nil, errors.Wrap(err, "failed to get post thread")
	}
	if out.Thread == nil {
		return nil, errors.New("empty thread in response")
	}
	return out.Thread, nil
}

// SearchPosts searches recent posts for the query, newest first.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]*PostView, error) {
	var out struct {
		Posts []*PostView `json:"posts"`
	}
	params := url.Values{
		"q":     {query},
		"limit": {fmt.Sprint(limit)},
		"sort":  {"latest"},
	}
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.searchPosts", params, nil, &out); err != nil {
		return nil, errors.Wrap(err, "failed to search posts")
	}
	return out.Posts, nil
}

// ResolveHandle resolves a handle to its DID.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var out struct {
		DID string `json:"did"`
	}
	params := url.Values{"handle": {handle}}
	if err := c.call(ctx, http.MethodGet, "com.atproto.identity.resolveHandle", params, nil, &out); err != nil {
		return "", errors.Wrapf(err, "failed to resolve handle %q", handle)
	}
	return out.DID, nil
}

// CreatePost publishes a post record, optionally as a reply, and
// returns its strong ref. Calls are paced by the write limiter so a
// chunked thread's parents are resolvable before their children post.
func (c *Client) CreatePost(ctx context.Context, text string, facets []Facet, reply *ReplyRef) (*StrongRef, error) {
	if err := c.writeLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "write limiter interrupted")
	}

	c.mu.Lock()
	did := c.did
	c.mu.Unlock()

	record := PostRecord{
		Type:      "app.bsky.feed.post",
		Text:      text,
		Facets:    facets,
		Reply:     reply,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	input := map[string]any{
		"repo":       did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}

	var out StrongRef
	if err := c.call(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, input, &out); err != nil {
		return nil, errors.Wrap(err, "failed to create post")
	}
	return &out, nil
}

// call performs one XRPC request, refreshing the session once on an
// expired token.
func (c *Client) call(ctx context.Context, method, nsid string, params url.Values, input, output any) error {
	err := c.doCall(ctx, method, nsid, params, input, output)
	if err != nil && isExpiredToken(err) && nsid != "com.atproto.server.createSession" {
		if refreshErr := c.RefreshSession(ctx); refreshErr != nil {
			return refreshErr
		}
		err = c.doCall(ctx, method, nsid, params, input, output)
	}
	return err
}

type xrpcError struct {
	Status  int
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *xrpcError) Error() string {
	return fmt.Sprintf("xrpc status %d: %s: %s", e.Status, e.Name, e.Message)
}

func isExpiredToken(err error) bool {
	var xe *xrpcError
	return errors.As(err, &xe) && xe.Name == "ExpiredToken"
}

func (c *Client) doCall(ctx context.Context, method, nsid string, params url.Values, input, output any) error {
	endpoint := c.serviceURL + "/xrpc/" + nsid
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.accessJWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJWT)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "xrpc call %s failed", nsid)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		xe := &xrpcError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(xe)
		return xe
	}

	if output != nil {
		if err := json.NewDecoder(resp.Body).Decode(output); err != nil {
			return errors.Wrapf(err, "failed to decode %s response", nsid)
		}
	}
	return nil
}
