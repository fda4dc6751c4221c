// Package cache provides the last-known detail store for tree entities.
// Entries have no expiry; they live until explicitly invalidated (a 404 on
// the entity, or the disappearance of an ancestor group) and are overwritten
// on every successful fetch, so a revisit always has something to show while
// a refresh is in flight.
package cache

import (
	"strings"
	"sync"

	"github.com/avety/scandash/internal/domain"
)

// Entry is the cached pair for one entity: the resolved display view and the
// full detail payload it came with.
type Entry struct {
	View   domain.EntityView
	Detail domain.Detail
}

// Store maps structural keys (kind + normalized id) to their last-known
// entries. Fetch commands run in their own goroutines, so all access is
// mutex-protected.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Key derives the deterministic cache key for an entity. IDs are normalized
// so the same logical entity always maps to the same key regardless of how
// the id was spelled upstream.
func Key(kind domain.Kind, id string) string {
	return string(kind) + ":" + normalizeID(id)
}

// normalizeID trims surrounding whitespace and maps textual null markers to
// the empty string. Upstream ids pass through loosely typed layers and have
// been observed arriving as "null".
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "null" || id == "undefined" {
		return ""
	}
	return id
}

// Get returns the entry for key, if any.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Has reports whether an entry exists for key.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Set stores the entry for key, replacing any previous one.
func (s *Store) Set(key string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Delete removes the entry for key, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// DropGroup removes a group's entry along with every cached folder and file
// entry that belonged to it. Called when the server confirms the group is
// gone; orphaned descendant entries would otherwise serve data for entities
// that no longer exist.
func (s *Store) DropGroup(groupID string) {
	groupKey := Key(domain.KindGroup, groupID)
	normalized := normalizeID(groupID)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, groupKey)
	if normalized == "" {
		// An empty GroupID marks a top-level entry, not a descendant of a
		// group whose id normalized away. Never sweep on it.
		return
	}
	for key, entry := range s.entries {
		if normalizeID(entry.View.GroupID) == normalized {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}
