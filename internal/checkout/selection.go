package checkout

import (
	"sort"
	"sync"
)

// SelectionSet marks which cart lines are checked for checkout. It is never
// persisted.
type SelectionSet struct {
	mu       sync.RWMutex
	selected map[string]bool
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{selected: map[string]bool{}}
}

// Set marks or unmarks a line. Unmarked lines are removed from the map.
func (s *SelectionSet) Set(lineKey string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selected {
		s.selected[lineKey] = true
		return
	}
	delete(s.selected, lineKey)
}

// Toggle flips a line and returns its new state.
func (s *SelectionSet) Toggle(lineKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[lineKey] {
		delete(s.selected, lineKey)
		return false
	}
	s.selected[lineKey] = true
	return true
}

func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]bool{}
}

// IsSelected reports whether the line is checked.
func (s *SelectionSet) IsSelected(lineKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[lineKey]
}

// Selected returns the checked line keys in stable order.
func (s *SelectionSet) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.selected))
	for k, v := range s.selected {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies the selection for staging.
func (s *SelectionSet) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.selected))
	for k, v := range s.selected {
		out[k] = v
	}
	return out
}

// Prune drops selections for lines that no longer exist.
func (s *SelectionSet) Prune(existing []string) {
	keep := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		keep[k] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.selected {
		if _, ok := keep[k]; !ok {
			delete(s.selected, k)
		}
	}
}

func (s *SelectionSet) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}
