// Package repository implements the in-memory Repository Store of spec.md
// §4.7: named collections scoped by (repositoryName, businessActivity),
// guarded the same way the teacher guards its registry caches
// (runtime/registry/cache.go) — one RWMutex over a map of collections.
package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
)

type collectionKey struct {
	repo     string
	activity string
}

// Store is a concrete ports.RepositoryStore.
type Store struct {
	mu          sync.RWMutex
	collections map[collectionKey]map[string]value.Value // id -> record
}

// New constructs an empty Store.
func New() *Store {
	return &Store{collections: make(map[collectionKey]map[string]value.Value)}
}

// IsRepositoryName reports whether name follows the "-repository" suffix
// convention (spec §4.2 step 4, §4.7).
func (s *Store) IsRepositoryName(name string) bool {
	return strings.HasSuffix(name, "-repository")
}

func (s *Store) collection(key collectionKey) map[string]value.Value {
	c, ok := s.collections[key]
	if !ok {
		c = make(map[string]value.Value)
		s.collections[key] = c
	}
	return c
}

func recordID(v value.Value) string {
	if v.Kind == value.KindEntity {
		return v.Entity.ID()
	}
	if v.Kind == value.KindMap {
		if id, ok := v.Map["id"]; ok && id.Kind == value.KindString {
			return id.Str
		}
	}
	return ""
}

func withID(v value.Value, id string) value.Value {
	switch v.Kind {
	case value.KindEntity:
		fields := make(map[string]value.Value, len(v.Entity.Fields)+1)
		for k, fv := range v.Entity.Fields {
			fields[k] = fv
		}
		fields["id"] = value.String(id)
		return value.FromEntity(value.Entity{Fields: fields})
	case value.KindMap:
		fields := make(map[string]value.Value, len(v.Map)+1)
		for k, fv := range v.Map {
			fields[k] = fv
		}
		fields["id"] = value.String(id)
		return value.Map(fields)
	default:
		return v
	}
}

// Store inserts or updates v, generating an id if absent (I4: RFC 4122 v4).
func (s *Store) Store(ctx context.Context, repo, activity string, v value.Value) (ports.StoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collection(collectionKey{repo, activity})

	id := recordID(v)
	if id == "" {
		id = uuid.NewString()
		v = withID(v, id)
	}

	old, isUpdate := coll[id]
	coll[id] = v.Clone()

	result := ports.StoreResult{Stored: true, IsUpdate: isUpdate, EntityID: id}
	if isUpdate {
		oldClone := old.Clone()
		result.Old = &oldClone
	}
	return result, nil
}

// Retrieve performs a full scan with an optional single-field equality
// filter (spec §4.7).
func (s *Store) Retrieve(ctx context.Context, repo, activity, whereField string, equals value.Value, hasFilter bool) ([]value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll := s.collections[collectionKey{repo, activity}]
	var out []value.Value
	for _, v := range coll {
		if hasFilter && !fieldEquals(v, whereField, equals) {
			continue
		}
		out = append(out, v.Clone())
	}
	return out, nil
}

// Delete removes matching records and returns them.
func (s *Store) Delete(ctx context.Context, repo, activity, whereField string, equals value.Value, hasFilter bool) ([]value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := collectionKey{repo, activity}
	coll := s.collections[key]
	var removed []value.Value
	for id, v := range coll {
		if hasFilter && !fieldEquals(v, whereField, equals) {
			continue
		}
		removed = append(removed, v.Clone())
		delete(coll, id)
	}
	return removed, nil
}

// FindByID looks up a single record by id.
func (s *Store) FindByID(ctx context.Context, repo, activity, id string) (value.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll := s.collections[collectionKey{repo, activity}]
	v, ok := coll[id]
	if !ok {
		return value.Null, false, nil
	}
	return v.Clone(), true, nil
}

// Exists reports whether a record with id exists.
func (s *Store) Exists(ctx context.Context, repo, activity, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collectionKey{repo, activity}][id]
	return ok, nil
}

// Clear removes every record from the (repo, activity) collection.
func (s *Store) Clear(ctx context.Context, repo, activity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collectionKey{repo, activity})
	return nil
}

// Export rekeys every record of (repo, fromActivity) into the framework
// scope ("") under asName (spec §4.7).
func (s *Store) Export(ctx context.Context, repo, fromActivity, asName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.collections[collectionKey{repo, fromActivity}]
	dst := s.collection(collectionKey{asName, ""})
	for id, v := range src {
		dst[id] = v.Clone()
	}
	return nil
}

func fieldEquals(v value.Value, field string, equals value.Value) bool {
	var fields map[string]value.Value
	switch v.Kind {
	case value.KindEntity:
		fields = v.Entity.Fields
	case value.KindMap:
		fields = v.Map
	default:
		return false
	}
	fv, ok := fields[field]
	if !ok {
		return false
	}
	return value.Equal(fv, equals)
}
