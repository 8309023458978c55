// Package executor implements the Feature-Set Executor of spec.md §4.3: it
// sequences an AnalyzedFeatureSet's statements against a RuntimeContext,
// performs the object-routing step the registry's Dispatch doc comment
// defers to its caller (system object read / repository retrieve / variable
// resolve), evaluates guards, runs for-each and match/when blocks in fresh
// child contexts, and renders the four-line human error template of §6 on
// failure. This mirrors the teacher's own engine.Run loop shape
// (runtime/agent/engine/inmem/engine.go): a single driver function closing
// over a Deps bundle, not a long-lived object with mutable state.
package executor

import (
	"context"
	"strings"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/engine"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/statemachine"
	"github.com/arolang/aro/value"
)

// Engine drives feature sets against a shared Registry and Deps bundle. One
// Engine typically lives for the life of a process; Run may be called
// concurrently for independent feature-set executions.
type Engine struct {
	Registry *registry.Registry
	Deps     registry.Deps

	// EnableParallelIO turns on the optional mode of spec §4.3: adjacent
	// plain (unconditioned, non-loop, non-match) statements whose
	// conservative read/write footprints (engine.FootprintOf) don't
	// intersect run concurrently, joined before any statement that
	// consumes their results. Observable side effects (Log, Throw,
	// Broadcast, Return, Publish) always stay in as-written order.
	EnableParallelIO bool
}

// New builds an Engine over an already-populated Registry (actions.RegisterDefaults
// having been run) and a Deps bundle wired to the process's stateful subsystems.
func New(reg *registry.Registry, deps registry.Deps) *Engine {
	return &Engine{Registry: reg, Deps: deps}
}

// Run executes fs to completion against rc, implementing spec §4.3's five-step
// protocol, and returns the feature set's response (synthesized OK if none
// was set via Return).
func (e *Engine) Run(ctx context.Context, fs *program.AnalyzedFeatureSet, rc *rtcontext.Context) (rtcontext.Response, error) {
	e.emit(ctx, "featureset.start", map[string]value.Value{
		"name":        value.String(fs.Name),
		"activity":    value.String(fs.BusinessActivity),
		"executionId": value.String(rc.ExecutionID()),
	})

	failed, err := e.runStatements(ctx, fs, fs.Statements, rc)

	e.emit(ctx, "featureset.end", map[string]value.Value{
		"name":        value.String(fs.Name),
		"activity":    value.String(fs.BusinessActivity),
		"executionId": value.String(rc.ExecutionID()),
	})

	if err != nil {
		return rtcontext.Response{}, e.wrapError(fs, rc, failed, err)
	}
	if resp, ok := rc.GetResponse(); ok {
		return resp, nil
	}
	return rtcontext.DefaultOK(), nil
}

// runStatements executes a flat statement list in rc, stopping early once a
// Return (or a descendant loop/match child's Return) has populated a
// response.
func (e *Engine) runStatements(ctx context.Context, fs *program.AnalyzedFeatureSet, stmts []program.StatementDescriptor, rc *rtcontext.Context) (program.StatementDescriptor, error) {
	if e.EnableParallelIO {
		return e.runStatementsWindowed(ctx, fs, stmts, rc)
	}
	for _, stmt := range stmts {
		halt, failed, err := e.runOne(ctx, fs, stmt, rc)
		if err != nil {
			return failed, err
		}
		if halt {
			return program.StatementDescriptor{}, nil
		}
	}
	return program.StatementDescriptor{}, nil
}

// runStatementsWindowed is the EnableParallelIO path: maximal runs of plain
// (unconditioned, non-loop, non-match) statements are grouped into
// independent windows via engine.Window and dispatched concurrently with
// engine.ParallelGroup; guarded statements, loops, and match blocks always
// run on the sequential path since their control flow can short-circuit
// (spec §4.3's data-flow graph only covers a "statement window", not
// control-flow-bearing statements).
func (e *Engine) runStatementsWindowed(ctx context.Context, fs *program.AnalyzedFeatureSet, stmts []program.StatementDescriptor, rc *rtcontext.Context) (program.StatementDescriptor, error) {
	i := 0
	for i < len(stmts) {
		stmt := stmts[i]
		if stmt.Condition != nil || stmt.Loop != nil || stmt.Match != nil {
			halt, failed, err := e.runOne(ctx, fs, stmt, rc)
			if err != nil {
				return failed, err
			}
			if halt {
				return program.StatementDescriptor{}, nil
			}
			i++
			continue
		}

		j := i
		for j < len(stmts) && stmts[j].Condition == nil && stmts[j].Loop == nil && stmts[j].Match == nil {
			j++
		}
		plain := stmts[i:j]
		windows := engine.Window(plain)
		for _, window := range windows {
			if len(window) == 1 {
				halt, failed, err := e.runOne(ctx, fs, window[0], rc)
				if err != nil {
					return failed, err
				}
				if halt {
					return program.StatementDescriptor{}, nil
				}
				continue
			}

			fns := make([]func(context.Context) (program.StatementDescriptor, error), len(window))
			for k, s := range window {
				s := s
				fns[k] = func(ctx context.Context) (program.StatementDescriptor, error) {
					if err := e.runStatement(ctx, s, rc); err != nil {
						return s, err
					}
					return program.StatementDescriptor{}, nil
				}
			}
			failures, err := engine.ParallelGroup(ctx, fns)
			if err != nil {
				for _, f := range failures {
					if f.Verb != "" {
						return f, err
					}
				}
				return window[0], err
			}
			if _, ok := rc.GetResponse(); ok {
				return program.StatementDescriptor{}, nil
			}
		}
		i = j
	}
	return program.StatementDescriptor{}, nil
}

// runOne executes a single top-level list entry — a guarded dispatch, a
// for-each block, a match/when block, or a plain dispatch — and reports
// whether the caller should stop iterating the remainder of stmts (a
// Return fired).
func (e *Engine) runOne(ctx context.Context, fs *program.AnalyzedFeatureSet, stmt program.StatementDescriptor, rc *rtcontext.Context) (halt bool, failed program.StatementDescriptor, err error) {
	if stmt.Condition != nil && !stmt.Condition.Resolve(resolverFor(rc)) {
		return false, program.StatementDescriptor{}, nil
	}

	switch {
	case stmt.Loop != nil:
		if failed, err := e.runLoop(ctx, fs, stmt.Loop, rc); err != nil {
			return false, failed, err
		}
	case stmt.Match != nil:
		if failed, err := e.runMatch(ctx, fs, stmt.Match, rc); err != nil {
			return false, failed, err
		}
	default:
		if err := e.runStatement(ctx, stmt, rc); err != nil {
			return false, stmt, err
		}
	}

	if _, ok := rc.GetResponse(); ok {
		return true, program.StatementDescriptor{}, nil
	}
	return false, program.StatementDescriptor{}, nil
}

// runLoop implements for-each (spec §4.3): source resolves to a List or a
// Stream (spec §4.8); each element binds to Variable in a fresh child
// context created via CreateChild, so bindings never leak between
// iterations or back to the parent.
func (e *Engine) runLoop(ctx context.Context, fs *program.AnalyzedFeatureSet, loop *program.LoopDescriptor, rc *rtcontext.Context) (program.StatementDescriptor, error) {
	loopStmt := program.StatementDescriptor{Object: loop.Source}
	source, _, err := e.resolveObject(ctx, loopStmt, rc)
	if err != nil {
		return loopStmt, err
	}

	var elements []value.Value
	switch source.Kind {
	case value.KindList:
		elements = source.List
	case value.KindStream:
		collector, ok := source.Stream.(streamCollector)
		if !ok {
			return loopStmt, aroerr.New(aroerr.KindTypeMismatch, "for-each: stream handle does not support collection")
		}
		elements, err = collector.Collect(ctx)
		if err != nil {
			return loopStmt, err
		}
	default:
		return loopStmt, aroerr.New(aroerr.KindTypeMismatch, "for-each: source is neither a list nor a stream, got %s", source.Kind)
	}

	for _, el := range elements {
		child := rc.CreateChild(fs.Name)
		if err := child.Bind(loop.Variable, el); err != nil {
			return loopStmt, err
		}
		if failed, err := e.runStatements(ctx, fs, loop.Body, child); err != nil {
			return failed, err
		}
		if resp, ok := child.GetResponse(); ok {
			rc.SetResponse(resp)
			return program.StatementDescriptor{}, nil
		}
	}
	return program.StatementDescriptor{}, nil
}

// streamCollector narrows *stream.Stream down to the one capability the
// executor needs for for-each, avoiding an import of the stream package
// purely for a type name (the same narrow-seam idiom actions/extract.go uses).
type streamCollector interface {
	Collect(ctx context.Context) ([]value.Value, error)
}

// runMatch implements match/when (spec §4.3): the first arm whose Condition
// resolves true (or a nil Condition, an unconditional else) runs in a fresh
// child context; no arm running is not an error.
func (e *Engine) runMatch(ctx context.Context, fs *program.AnalyzedFeatureSet, arms []program.MatchArm, rc *rtcontext.Context) (program.StatementDescriptor, error) {
	for _, arm := range arms {
		if arm.Condition != nil && !arm.Condition.Resolve(resolverFor(rc)) {
			continue
		}
		child := rc.CreateChild(fs.Name)
		if failed, err := e.runStatements(ctx, fs, arm.Body, child); err != nil {
			return failed, err
		}
		if resp, ok := child.GetResponse(); ok {
			rc.SetResponse(resp)
		}
		return program.StatementDescriptor{}, nil
	}
	return program.StatementDescriptor{}, nil
}

// runStatement performs object routing (spec §4.2 step 4) then Dispatch, and
// binds the result under the statement's result name when the action calls
// for it (step 6).
func (e *Engine) runStatement(ctx context.Context, stmt program.StatementDescriptor, rc *rtcontext.Context) error {
	obj, exists, err := e.resolveObject(ctx, stmt, rc)
	if err != nil {
		return err
	}

	actx := &registry.ActionContext{
		Context:      ctx,
		RuntimeCtx:   rc,
		Statement:    stmt,
		Object:       obj,
		ObjectExists: exists,
		Deps:         e.Deps,
	}

	result, err := e.Registry.Dispatch(actx)
	if err != nil {
		return err
	}

	if e.Registry.BindsResult(stmt.Verb) && stmt.Result.Base != "" {
		if bindErr := rc.Bind(stmt.Result.Base, result); bindErr != nil {
			return bindErr
		}
	}
	return nil
}

// resolveObject performs the object-routing step shared by every statement
// and for-each source: a registered system object wins first, then a
// repository-named object is retrieved with an optional single-field filter,
// and otherwise the object base is resolved as an ordinary variable.
func (e *Engine) resolveObject(ctx context.Context, stmt program.StatementDescriptor, rc *rtcontext.Context) (value.Value, bool, error) {
	base := stmt.Object.Base

	if e.Deps.SystemObjs != nil {
		if factory, ok := e.Deps.SystemObjs.Lookup(base); ok {
			obj, err := factory(stmt.Object.Specifiers)
			if err != nil {
				return value.Null, false, err
			}
			if !obj.Capabilities().CanRead() {
				return value.Null, false, nil
			}
			v, err := obj.Read(ctx, stmt.Object.Specifier(0))
			if err != nil {
				return value.Null, false, err
			}
			return v, true, nil
		}
	}

	if e.Deps.Repositories != nil && e.Deps.Repositories.IsRepositoryName(base) {
		whereField := stmt.Object.Specifier(0)
		var equals value.Value
		hasFilter := whereField != ""
		if hasFilter {
			if v, ok := rc.Resolve(whereField); ok {
				equals = v
			}
		}
		records, err := e.Deps.Repositories.Retrieve(ctx, base, rc.BusinessActivity(), whereField, equals, hasFilter)
		if err != nil {
			return value.Null, false, err
		}
		return value.List(records), true, nil
	}

	v, ok := rc.Resolve(base)
	return v, ok, nil
}

// emit publishes a lifecycle event, swallowing the case where no event bus
// is wired (executors in unit tests routinely omit one).
func (e *Engine) emit(ctx context.Context, eventType string, payload map[string]value.Value) {
	if e.Deps.Events == nil {
		return
	}
	_ = e.Deps.Events.Emit(ctx, ports.Event{EventType: eventType, Payload: payload})
}

func resolverFor(rc *rtcontext.Context) func(name string) (any, bool) {
	return func(name string) (any, bool) {
		v, ok := rc.Resolve(name)
		if !ok {
			return nil, false
		}
		return v, true
	}
}

// RenderErrorTemplate builds the four-line human error surface of spec §6.
// Placeholders of the form <name> in the message are substituted with the
// corresponding resolved variable's rendered value, falling back to the
// error's own structured Fields when the name isn't bound in rc.
func RenderErrorTemplate(fs *program.AnalyzedFeatureSet, rc *rtcontext.Context, stmt program.StatementDescriptor, err error) string {
	msg := err.Error()
	if aerr, ok := err.(*aroerr.Error); ok {
		msg = substitutePlaceholders(aerr, rc)
	}
	var b strings.Builder
	b.WriteString("Runtime Error: " + msg + "\n")
	b.WriteString("Feature: " + fs.Name + "\n")
	b.WriteString("Business Activity: " + fs.BusinessActivity + "\n")
	b.WriteString("Statement: " + stmt.Span.Text)
	return b.String()
}

func substitutePlaceholders(aerr *aroerr.Error, rc *rtcontext.Context) string {
	msg := aerr.Message
	if aerr.Kind != "" && msg == "" {
		msg = string(aerr.Kind)
	}
	var b strings.Builder
	for i := 0; i < len(msg); i++ {
		if msg[i] != '<' {
			b.WriteByte(msg[i])
			continue
		}
		end := strings.IndexByte(msg[i:], '>')
		if end < 0 {
			b.WriteString(msg[i:])
			break
		}
		name := msg[i+1 : i+end]
		if v, ok := rc.Resolve(name); ok {
			b.WriteString(v.String())
		} else if f, ok := aerr.Field(name).(string); ok {
			b.WriteString(f)
		} else {
			b.WriteString(msg[i : i+end+1])
		}
		i += end
	}
	return b.String()
}

// wrapError wraps a raw action error as a RuntimeError carrying the
// rendered human template in its message, per spec §6/§7's propagation rule
// ("an error aborts remaining statements").
func (e *Engine) wrapError(fs *program.AnalyzedFeatureSet, rc *rtcontext.Context, stmt program.StatementDescriptor, err error) error {
	rendered := RenderErrorTemplate(fs, rc, stmt, err)
	return aroerr.Wrap(err, rendered)
}

// HandlerSubscription subscribes fs's declarative event handler (spec §4.4,
// §4.6) to bus, if fs.Handler is set, running it in a fresh root context per
// invocation. run is the caller-supplied factory building that root context
// (so callers can vary OutputContext/business-activity policy per handler).
func (e *Engine) HandlerSubscription(bus ports.EventBus, fs *program.AnalyzedFeatureSet, run func() *rtcontext.Context) string {
	if fs.Handler == nil || bus == nil {
		return ""
	}
	pattern := statemachine.HandlerPattern{
		EventType: fs.Handler.EventType,
		Guards:    statemachine.ParseGuards(fs.Handler.RawGuards),
	}
	return bus.Subscribe(fs.Handler.EventType, func(ctx context.Context, ev ports.Event) error {
		if !pattern.Matches(ev) {
			return nil
		}
		rc := run()
		if bindErr := rc.Bind("_event", eventPayloadValue(ev)); bindErr != nil {
			return bindErr
		}
		_, err := e.Run(ctx, fs, rc)
		return err
	})
}

func eventPayloadValue(ev ports.Event) value.Value {
	fields := make(map[string]value.Value, len(ev.Payload)+1)
	for k, v := range ev.Payload {
		fields[k] = v
	}
	fields["type"] = value.String(ev.EventType)
	return value.Map(fields)
}
