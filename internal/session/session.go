// Package session keeps the per-user state the cart handlers and checkout
// staging operate on: the cart cache, the selection, the degraded banner
// flag, the line being edited and the staged checkout.
package session

import (
	"sync"
	"time"

	"github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/checkout"
)

// Session is scoped state for one credential subject.
type Session struct {
	key       string
	store     *cart.Store
	selection *checkout.SelectionSet

	mu       sync.Mutex
	degraded bool
	editing  string
	staged   *checkout.Snapshot
	lastSeen time.Time
}

func newSession(key string, now time.Time) *Session {
	return &Session{
		key:       key,
		store:     cart.NewStore(),
		selection: checkout.NewSelectionSet(),
		lastSeen:  now,
	}
}

func (s *Session) Key() string { return s.key }

func (s *Session) Store() *cart.Store { return s.store }

func (s *Session) Selection() *checkout.SelectionSet { return s.selection }

func (s *Session) SetDegraded(v bool) {
	s.mu.Lock()
	s.degraded = v
	s.mu.Unlock()
}

// Degraded reports whether the last mutation was accepted offline.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// OpenEditing marks the line whose variant editor is open.
func (s *Session) OpenEditing(lineKey string) {
	s.mu.Lock()
	s.editing = lineKey
	s.mu.Unlock()
}

func (s *Session) CloseEditing() {
	s.mu.Lock()
	s.editing = ""
	s.mu.Unlock()
}

func (s *Session) Editing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *Session) ClearSelection() {
	s.selection.Clear()
}

func (s *Session) PruneSelection(existing []string) {
	s.selection.Prune(existing)
}

func (s *Session) Staged() *checkout.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

func (s *Session) SetStaged(snap *checkout.Snapshot) {
	s.mu.Lock()
	s.staged = snap
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is the time of the most recent Registry.Get for this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
