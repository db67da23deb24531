package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

// AnonymousKey is used when a request carries no credential subject.
const AnonymousKey = "anonymous"

// Gauge receives the live session count.
type Gauge interface {
	SetActiveSessions(n int)
}

// Registry maps session keys to their state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	gauge    Gauge
}

func NewRegistry(gauge Gauge) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		now:      time.Now,
		gauge:    gauge,
	}
}

// Get returns the session for key, creating it on first use.
func (r *Registry) Get(key string) *Session {
	key = strings.TrimSpace(key)
	if key == "" {
		key = AnonymousKey
	}
	now := r.now()

	r.mu.Lock()
	sess, ok := r.sessions[key]
	if !ok {
		sess = newSession(key, now)
		r.sessions[key] = sess
	}
	count := len(r.sessions)
	r.mu.Unlock()

	sess.touch(now)
	r.report(count)
	return sess
}

// Prune drops sessions idle for at least ttl and returns how many were removed.
func (r *Registry) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	removed := 0
	for key, sess := range r.sessions {
		if !sess.LastSeen().After(cutoff) {
			delete(r.sessions, key)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	r.report(count)
	return removed, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) report(count int) {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(count)
	}
}
