// Package ports declares the narrow interfaces that connect the Feature-Set
// Executor and Action implementations to the runtime's stateful subsystems
// (repository store, global symbol store, event bus, system objects).
// Keeping these as small interfaces — rather than letting actions import
// the concrete eventbus/repository/sysobj packages directly — mirrors the
// teacher's own seam between runtime/agent/engine (abstract Engine/Future)
// and runtime/agent/engine/inmem (one concrete implementation): callers code
// against the interface, and tests can substitute fakes without touching
// the execution core.
package ports

import (
	"context"
	"time"

	"github.com/arolang/aro/value"
)

// StoreResult is the outcome of a repository Store call (spec §4.7).
type StoreResult struct {
	Stored   bool
	Old      *value.Value
	IsUpdate bool
	EntityID string
}

// RepositoryStore is the in-memory keyed-collection store of spec §4.7.
type RepositoryStore interface {
	Store(ctx context.Context, repo, activity string, v value.Value) (StoreResult, error)
	Retrieve(ctx context.Context, repo, activity, whereField string, equals value.Value, hasFilter bool) ([]value.Value, error)
	Delete(ctx context.Context, repo, activity, whereField string, equals value.Value, hasFilter bool) ([]value.Value, error)
	FindByID(ctx context.Context, repo, activity, id string) (value.Value, bool, error)
	Exists(ctx context.Context, repo, activity, id string) (bool, error)
	Clear(ctx context.Context, repo, activity string) error
	Export(ctx context.Context, repo, fromActivity, asName string) error
	IsRepositoryName(name string) bool
}

// GlobalStore is the cross-feature-set publish/resolve store of spec §4.5.
type GlobalStore interface {
	Publish(name string, v value.Value, fromFeatureSet, businessActivity string)
	Resolve(name, forActivity string) (value.Value, bool)
	IsAccessDenied(name, forActivity string) bool
	SourceFeatureSet(name string) (string, bool)
	BusinessActivity(name string) (string, bool)
}

// Event is the payload flowing through the Event Bus (spec §3, §4.4).
type Event struct {
	EventType string
	Payload   map[string]value.Value
	Timestamp time.Time
}

// EventHandler processes one Event. Declarative feature-set handlers and
// programmatic subscribers both satisfy this signature.
type EventHandler func(ctx context.Context, ev Event) error

// EventBus is the single-process pub/sub bus of spec §4.4.
type EventBus interface {
	Subscribe(eventType string, handler EventHandler) string
	Unsubscribe(id string)
	Emit(ctx context.Context, ev Event) error
}

// Capability describes which directions a SystemObject supports (spec §4.9).
type Capability int

const (
	CapabilitySource Capability = 1 << iota
	CapabilitySink
)

func (c Capability) CanRead() bool  { return c&CapabilitySource != 0 }
func (c Capability) CanWrite() bool { return c&CapabilitySink != 0 }

// SystemObject exposes read/write against an external resource (spec §4.9).
type SystemObject interface {
	Capabilities() Capability
	Read(ctx context.Context, property string) (value.Value, error)
	Write(ctx context.Context, v value.Value) error
}

// SystemObjectFactory builds a SystemObject bound to a particular statement's
// object specifiers (e.g. a "file" object is constructed with a path taken
// from the specifiers).
type SystemObjectFactory func(specifiers []string) (SystemObject, error)

// SystemObjectRegistry maps identifiers to SystemObject factories (spec §4.9).
type SystemObjectRegistry interface {
	Lookup(identifier string) (SystemObjectFactory, bool)
	Register(identifier string, factory SystemObjectFactory)
}

// SchemaRegistry resolves a PascalCase Extract specifier to its raw OpenAPI
// (JSON Schema dialect) document, consulted by Extract's typed-schema path
// (spec §4.2).
type SchemaRegistry interface {
	Lookup(name string) (schema []byte, ok bool)
}
