// Package convo tracks per-thread conversation state: reply streaks
// and terminal stop records.
package convo

import (
	"context"
	"log/slog"
	"sync"

	"github.com/4uffin/aura-bot/store"
)

// Tracker gates each turn against the thread's streak and stop state.
//
// Per thread root the conversation is a two-state machine:
// Active(streak=n) and Stopped. An explicit mention resets the streak;
// each auto-continued reply increments it; reaching the limit, or an
// explicit disengage request, transitions to Stopped. Stopped is
// terminal. Nothing transitions back.
type Tracker struct {
	store *store.Store
	limit int
	locks keyedMutex
}

// New creates a tracker that stops a conversation after limit
// consecutive replies without an explicit mention.
func New(st *store.Store, limit int) *Tracker {
	return &Tracker{store: st, limit: limit}
}

// Lock serializes turns on the same thread root. Concurrent dispatch
// may process several notifications from one thread at once; without
// this the streak read-modify-write races past the stop transition.
func (t *Tracker) Lock(rootURI string) func() {
	return t.locks.lock(rootURI)
}

// Gate applies the per-turn check order: (1) an already stopped root
// skips the turn; (2) an explicit mention resets the streak; (3) a
// streak at or past the limit transitions the root to Stopped and
// skips the turn without replying. It returns true when the turn may
// proceed to generate a reply.
func (t *Tracker) Gate(ctx context.Context, rootURI string, mentioned bool) (bool, error) {
	stopped, err := t.store.IsStopped(ctx, rootURI)
	if err != nil {
		return false, err
	}
	if stopped {
		slog.Info("convo: skipping stopped conversation", "root", rootURI)
		return false, nil
	}

	if mentioned {
		if err := t.store.ResetStreak(ctx, rootURI); err != nil {
			return false, err
		}
		return true, nil
	}

	streak, err := t.store.GetStreak(ctx, rootURI)
	if err != nil {
		return false, err
	}
	if streak >= t.limit {
		slog.Info("convo: streak limit reached, stopping conversation", "root", rootURI, "streak", streak)
		if err := t.store.MarkStopped(ctx, rootURI); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// RecordAutoReply increments the streak after a reply that was not
// prompted by an explicit mention.
func (t *Tracker) RecordAutoReply(ctx context.Context, rootURI string) error {
	return t.store.IncrementStreak(ctx, rootURI)
}

// Stop marks the root stopped at the user's request. Idempotent.
func (t *Tracker) Stop(ctx context.Context, rootURI string) error {
	return t.store.MarkStopped(ctx, rootURI)
}

// keyedMutex provides one mutex per key, created on demand. Entries
// are retained for the process lifetime; the key space (thread roots
// with recent activity) stays small.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	entry, ok := k.m[key]
	if !ok {
		entry = &sync.Mutex{}
		k.m[key] = entry
	}
	k.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
