// Package metrics exposes the agent's operational counters over
// Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TurnsProcessed counts notification turns by outcome:
	// "replied", "skipped", "stopped", "failed".
	TurnsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "turns_processed_total",
		Help:      "Notification turns processed, by outcome.",
	}, []string{"outcome"})

	// PostsPublished counts posts created on the platform, by kind:
	// "reply", "chunk", "thread".
	PostsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "posts_published_total",
		Help:      "Posts published to the platform, by kind.",
	}, []string{"kind"})

	// Suppressions counts replies withheld, by reason: "blocklist",
	// "stopped", "streak_limit", "unsafe_topic", "empty".
	Suppressions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura",
		Name:      "suppressions_total",
		Help:      "Replies withheld before posting, by reason.",
	}, []string{"reason"})

	// PollDuration observes the wall time of each notification poll
	// cycle.
	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aura",
		Name:      "poll_duration_seconds",
		Help:      "Duration of one notification poll cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

// Serve starts the metrics endpoint on addr. It blocks, so callers run
// it in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
