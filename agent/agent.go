// Package agent runs the conversational loop: it polls notifications,
// reconstructs threads, routes each turn through the reasoning
// service, and publishes replies.
package agent

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/4uffin/aura-bot/agent/compose"
	"github.com/4uffin/aura-bot/agent/convo"
	"github.com/4uffin/aura-bot/agent/router"
	"github.com/4uffin/aura-bot/agent/thread"
	"github.com/4uffin/aura-bot/ai/llm"
	"github.com/4uffin/aura-bot/bsky"
	"github.com/4uffin/aura-bot/internal/metrics"
	"github.com/4uffin/aura-bot/store"
)

// Platform is the full platform surface the agent needs. *bsky.Client
// satisfies it; tests substitute fakes.
type Platform interface {
	thread.Fetcher
	compose.Poster
	DID() string
	Handle() string
	ListNotifications(ctx context.Context, limit int) ([]*bsky.Notification, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]*bsky.PostView, error)
}

// Config carries the agent's tunables. Zero values fall back to the
// defaults below.
type Config struct {
	// Name is the persona name used in generation prompts.
	Name string
	// AdminDIDs may issue post and directive commands.
	AdminDIDs []string

	PollInterval time.Duration
	FetchLimit   int
	StreakLimit  int
	PostMaxBytes int
	Concurrency  int
}

const (
	defaultPollInterval = 60 * time.Second
	defaultFetchLimit   = 25
	defaultStreakLimit  = 10
	defaultPostMaxBytes = 300
	defaultConcurrency  = 4
)

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "Aura"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = defaultFetchLimit
	}
	if c.StreakLimit <= 0 {
		c.StreakLimit = defaultStreakLimit
	}
	if c.PostMaxBytes <= 0 {
		c.PostMaxBytes = defaultPostMaxBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
}

// Agent owns one account's conversational loop.
type Agent struct {
	config   Config
	store    *store.Store
	llm      llm.Service
	platform Platform
	router   *router.Router
	tracker  *convo.Tracker
	emitter  *compose.Emitter
	seen     *SeenLog
	admins   map[string]struct{}
}

// New wires an agent from its dependencies.
func New(config Config, st *store.Store, service llm.Service, platform Platform, seen *SeenLog) *Agent {
	config.applyDefaults()
	admins := make(map[string]struct{}, len(config.AdminDIDs))
	for _, did := range config.AdminDIDs {
		admins[did] = struct{}{}
	}
	return &Agent{
		config:   config,
		store:    st,
		llm:      service,
		platform: platform,
		router:   router.New(service),
		tracker:  convo.New(st, config.StreakLimit),
		emitter:  compose.NewEmitter(platform, config.PostMaxBytes),
		seen:     seen,
		admins:   admins,
	}
}

// Run polls notifications until ctx is canceled. The first poll fires
// immediately.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("agent: starting",
		"handle", a.platform.Handle(),
		"poll_interval", a.config.PollInterval,
		"seen", a.seen.Len())

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		a.poll(ctx)
		select {
		case <-ctx.Done():
			slog.Info("agent: stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// poll fetches one batch of notifications and dispatches the
// actionable ones concurrently. Turns on the same thread root are
// serialized by the tracker's per-root lock.
func (a *Agent) poll(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.PollDuration.Observe(time.Since(start).Seconds()) }()

	notifications, err := a.platform.ListNotifications(ctx, a.config.FetchLimit)
	if err != nil {
		slog.Error("agent: failed to list notifications", "error", err)
		return
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(a.config.Concurrency)
	dispatched := 0
	for _, notification := range notifications {
		notification := notification
		if !a.actionable(notification) {
			continue
		}
		dispatched++
		group.Go(func() error {
			a.handleNotification(gctx, notification)
			return nil
		})
	}
	_ = group.Wait()

	if dispatched > 0 {
		slog.Info("agent: poll complete", "dispatched", dispatched, "elapsed", time.Since(start))
	}
}

// actionable filters a notification before dispatch: unseen, not from
// the agent's own account, and a mention or reply.
func (a *Agent) actionable(notification *bsky.Notification) bool {
	if a.seen.Contains(notification.URI) {
		return false
	}
	if notification.Author.DID == a.platform.DID() {
		return false
	}
	return notification.Reason == "mention" || notification.Reason == "reply"
}

func (a *Agent) isAdmin(did string) bool {
	_, ok := a.admins[did]
	return ok
}

// markSeen records the notification as handled; a failed append is
// logged but never blocks the loop.
func (a *Agent) markSeen(uri string) {
	if err := a.seen.Add(uri); err != nil {
		slog.Error("agent: failed to record seen uri", "uri", uri, "error", err)
	}
}
