// Package rtcontext implements the RuntimeContext scope graph described in
// spec.md §3-4.1: a tree of variable-binding nodes with write-once user
// bindings, rebindable framework-internal bindings, and service lookup by
// type identity. It is the runtime's answer to the teacher's engine.Context
// key-stashing pattern (runtime/agent/engine/context.go in the teacher):
// rather than threading engine-specific values through context.Context,
// RuntimeContext is an explicit parent-linked node the executor owns.
package rtcontext

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/value"
)

// OutputContext selects how responses/errors are rendered to callers.
type OutputContext string

const (
	OutputHuman     OutputContext = "human"
	OutputMachine   OutputContext = "machine"
	OutputDeveloper OutputContext = "developer"
)

// Response is the feature set's terminal payload, set by a Return action
// and required (per I6) to carry a status and a data map.
type Response struct {
	Status string
	Reason string
	Data   map[string]value.Value
}

// Context is one node in the RuntimeContext tree (spec §4.1). The zero value
// is not usable; construct roots with New and children with CreateChild.
type Context struct {
	mu sync.RWMutex

	featureSetName  string
	businessActivity string
	outputContext   OutputContext
	executionID     string

	bindings       map[string]value.Value
	immutableNames map[string]struct{}

	parent *Context

	services map[reflect.Type]any

	response *Response
}

// Options configures a root Context created by New.
type Options struct {
	FeatureSetName   string
	BusinessActivity string
	OutputContext    OutputContext
}

// New creates a root RuntimeContext node with a fresh execution id (I4: RFC
// 4122 v4, via google/uuid as the teacher's own direct dependency).
func New(opts Options) *Context {
	oc := opts.OutputContext
	if oc == "" {
		oc = OutputHuman
	}
	return &Context{
		featureSetName:   opts.FeatureSetName,
		businessActivity: opts.BusinessActivity,
		outputContext:    oc,
		executionID:      uuid.NewString(),
		bindings:         make(map[string]value.Value),
		immutableNames:   make(map[string]struct{}),
		services:         make(map[reflect.Type]any),
	}
}

// FeatureSetName returns the name of the feature set that created this node.
func (c *Context) FeatureSetName() string { return c.featureSetName }

// BusinessActivity returns the business-activity scope of this node.
func (c *Context) BusinessActivity() string { return c.businessActivity }

// OutputContext returns the rendering mode inherited from the root.
func (c *Context) OutputContext() OutputContext { return c.outputContext }

// ExecutionID returns this node's unique execution identifier.
func (c *Context) ExecutionID() string { return c.executionID }

// IsFrameworkInternal reports whether name is a framework variable (starts
// with "_"), which alone may be rebound in place (spec §3, §4.1).
func IsFrameworkInternal(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

// Bind inserts name=v into the current node. Returns ImmutableRebind if name
// already exists in this node and is not framework-internal (I1).
func (c *Context) Bind(name string, v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bindings[name]; exists && !IsFrameworkInternal(name) {
		return aroerr.Withf(aroerr.KindImmutableRebind,
			map[string]any{"name": name, "featureSet": c.featureSetName},
			"variable %q is already bound in this scope", name)
	}
	c.bindings[name] = v
	if !IsFrameworkInternal(name) {
		c.immutableNames[name] = struct{}{}
	}
	return nil
}

// BindAll binds every entry of m, stopping at the first ImmutableRebind.
func (c *Context) BindAll(m map[string]value.Value) error {
	for k, v := range m {
		if err := c.Bind(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Unbind removes name's binding and immutability record from the current
// node only (no effect on ancestors).
func (c *Context) Unbind(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, name)
	delete(c.immutableNames, name)
}

// Resolve walks self -> parent -> ... and returns the first binding found.
func (c *Context) Resolve(name string) (value.Value, bool) {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		v, ok := n.bindings[name]
		n.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return value.Null, false
}

// MustResolve resolves name or returns UndefinedVariable.
func (c *Context) MustResolve(name string) (value.Value, error) {
	v, ok := c.Resolve(name)
	if !ok {
		return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable,
			map[string]any{"name": name}, "undefined variable %q", name)
	}
	return v, nil
}

// Exists reports whether name resolves anywhere in the chain.
func (c *Context) Exists(name string) bool {
	_, ok := c.Resolve(name)
	return ok
}

// CreateChild creates a new node with parent=c. The child inherits
// outputContext and the service registry but starts with empty bindings and
// an independent immutability table (I2): binding a name in the child never
// mutates the parent.
func (c *Context) CreateChild(featureSetName string, businessActivity ...string) *Context {
	ba := c.businessActivity
	if len(businessActivity) > 0 && businessActivity[0] != "" {
		ba = businessActivity[0]
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Context{
		featureSetName:   featureSetName,
		businessActivity: ba,
		outputContext:    c.outputContext,
		executionID:      uuid.NewString(),
		bindings:         make(map[string]value.Value),
		immutableNames:   make(map[string]struct{}),
		parent:           c,
		services:         c.services, // shared, read-mostly map (spec §5)
	}
}

// Parent returns the parent node, or nil for a root.
func (c *Context) Parent() *Context { return c.parent }

// Register installs a service keyed by its static type T, replacing any prior
// registration of the same type. Registration should happen before the
// context tree fans out to concurrent feature-set tasks (spec §5: "The
// action registry is read-mostly; mutation is permitted only before first
// dispatch").
func Register[T any](c *Context, svc T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[reflect.TypeOf((*T)(nil)).Elem()] = svc
}

// Service looks up a service by its static type, walking to the root if
// necessary (services are shared across the whole tree).
func Service[T any](c *Context) (T, bool) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		v, ok := n.services[t]
		n.mu.RUnlock()
		if ok {
			if typed, ok := v.(T); ok {
				return typed, true
			}
		}
	}
	return zero, false
}

// SetResponse sets the current node's response slot (set by Return, §4.3).
func (c *Context) SetResponse(r Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.response = &r
}

// GetResponse returns the current node's response, if any.
func (c *Context) GetResponse() (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.response == nil {
		return Response{}, false
	}
	return *c.response, true
}

// DefaultOK synthesizes the {status: "OK"} response used when a feature set
// runs to completion without an explicit Return (spec §4.3 step 5).
func DefaultOK() Response {
	return Response{Status: "OK", Data: map[string]value.Value{}}
}

// RequireServiceErr builds the MissingService error for a named dependency.
func RequireServiceErr(name string) error {
	return aroerr.Withf(aroerr.KindMissingService, map[string]any{"service": name},
		"no %s service registered on this context", name)
}

// String renders a short diagnostic identity, used in logs.
func (c *Context) String() string {
	return fmt.Sprintf("Context{featureSet=%s activity=%s exec=%s}", c.featureSetName, c.businessActivity, c.executionID)
}
