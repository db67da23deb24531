package cart

import (
	"context"
	"errors"
	"sync"
	"time"
)

// WholeCart is the re-fetch key used by operations that touch every line.
// Starting a WholeCart re-fetch supersedes every in-flight re-fetch.
const WholeCart = "*"

// ErrSuperseded is returned when a newer change for the same line replaced
// an in-flight re-fetch.
var ErrSuperseded = errors.New("re-fetch superseded by a newer change")

// Snapshot is a consistent read of the store.
type Snapshot struct {
	Lines     []Line    `json:"items"`
	Aggregate Aggregate `json:"aggregate"`
	Version   uint64    `json:"version"`
	SyncedAt  time.Time `json:"syncedAt"`
}

// Keys returns the line keys in the snapshot.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		keys = append(keys, line.Key())
	}
	return keys
}

// Store is the per-session cart cache. The remote cart service is the source
// of truth; the store only ever holds whole re-fetched line sets.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	agg      Aggregate
	version  uint64
	syncedAt time.Time
	now      func() time.Time

	refetchSeq uint64
	inflight   map[string]*Refetch
}

func NewStore() *Store {
	return &Store{
		lines:    []Line{},
		agg:      ComputeAggregate(nil),
		now:      time.Now,
		inflight: map[string]*Refetch{},
	}
}

// Replace swaps in a full line set and recomputes the aggregate.
func (s *Store) Replace(lines []Line) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(lines)
}

func (s *Store) replaceLocked(lines []Line) Snapshot {
	s.lines = sanitize(lines)
	s.agg = ComputeAggregate(s.lines)
	s.version++
	s.syncedAt = s.now()
	return s.snapshotLocked()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     cloneLines(s.lines),
		Aggregate: s.agg,
		Version:   s.version,
		SyncedAt:  s.syncedAt,
	}
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) Aggregate() Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg
}

// Line looks a line up by its key.
func (s *Store) Line(key string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines {
		if line.Key() == key {
			return line, true
		}
	}
	return Line{}, false
}

// Refetch is one in-flight pull of the authoritative cart on behalf of a line.
type Refetch struct {
	store  *Store
	key    string
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc

	// superseded is guarded by store.mu.
	superseded bool
}

// BeginRefetch registers a re-fetch for key and cancels any older re-fetch
// for the same key. A WholeCart re-fetch cancels all of them.
func (s *Store) BeginRefetch(parent context.Context, key string) *Refetch {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if key == WholeCart {
		for k, prev := range s.inflight {
			prev.supersedeLocked()
			delete(s.inflight, k)
		}
	} else {
		if prev, ok := s.inflight[key]; ok {
			prev.supersedeLocked()
		}
		if prev, ok := s.inflight[WholeCart]; ok {
			prev.supersedeLocked()
			delete(s.inflight, WholeCart)
		}
	}

	s.refetchSeq++
	r := &Refetch{store: s, key: key, seq: s.refetchSeq, ctx: ctx, cancel: cancel}
	s.inflight[key] = r
	return r
}

func (r *Refetch) supersedeLocked() {
	r.superseded = true
	r.cancel()
}

// Context is cancelled when the re-fetch is superseded or the caller's
// context ends.
func (r *Refetch) Context() context.Context {
	return r.ctx
}

// Superseded reports whether a newer change cancelled this re-fetch.
func (r *Refetch) Superseded() bool {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.superseded
}

// Commit writes the fetched lines unless the re-fetch was superseded or its
// caller went away. The check and the write happen under the store lock, so
// a superseded re-fetch can never land.
func (r *Refetch) Commit(lines []Line) (Snapshot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.superseded {
		return Snapshot{}, ErrSuperseded
	}
	if err := r.ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return s.replaceLocked(lines), nil
}

// Done releases the re-fetch registration.
func (r *Refetch) Done() {
	s := r.store
	s.mu.Lock()
	if cur, ok := s.inflight[r.key]; ok && cur.seq == r.seq {
		delete(s.inflight, r.key)
	}
	s.mu.Unlock()
	r.cancel()
}
