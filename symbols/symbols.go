// Package symbols implements the Global Symbol Store of spec.md §4.5:
// business-activity-scoped publish/resolve, concurrency-safe per the
// teacher's MemoryCache mutex-guarded-map idiom (runtime/registry/cache.go).
package symbols

import (
	"sync"

	"github.com/arolang/aro/value"
)

// Entry mirrors spec §3's GlobalSymbolEntry.
type Entry struct {
	Name             string
	Value            value.Value
	SourceFeatureSet string
	BusinessActivity string
}

// Store is a concrete ports.GlobalStore.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New constructs an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Publish overwrites (or inserts) name's entry, recording fromFeatureSet as
// its source feature set (I3); an empty fromFeatureSet is stored as given,
// not rejected.
func (s *Store) Publish(name string, v value.Value, fromFeatureSet, businessActivity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = Entry{Name: name, Value: v, SourceFeatureSet: fromFeatureSet, BusinessActivity: businessActivity}
}

// Resolve returns the value published under name iff its entry's activity
// is empty (framework-wide) or equals forActivity (spec §4.5).
func (s *Store) Resolve(name, forActivity string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return value.Null, false
	}
	if e.BusinessActivity != "" && e.BusinessActivity != forActivity {
		return value.Null, false
	}
	return e.Value, true
}

// IsAccessDenied reports whether name is published but not visible from
// forActivity, distinguishing that case from "absent entirely".
func (s *Store) IsAccessDenied(name, forActivity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return false
	}
	return e.BusinessActivity != "" && e.BusinessActivity != forActivity
}

// SourceFeatureSet reports the publishing feature set for name.
func (s *Store) SourceFeatureSet(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	return e.SourceFeatureSet, true
}

// BusinessActivity reports the publishing activity for name.
func (s *Store) BusinessActivity(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	return e.BusinessActivity, true
}
