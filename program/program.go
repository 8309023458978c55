// Package program defines the data shapes the execution core consumes from
// the (out-of-scope) analyzer: AnalyzedFeatureSet and StatementDescriptor, as
// described in spec.md §3. The core never constructs these from source text —
// it only interprets them.
package program

// Role identifies a statement's role within a feature set (spec §3).
type Role string

const (
	RoleRequest  Role = "request"
	RoleOwn      Role = "own"
	RoleResponse Role = "response"
	RoleExport   Role = "export"
)

// Preposition identifies the object-side preposition of a statement.
type Preposition string

const (
	PrepFrom    Preposition = "from"
	PrepTo      Preposition = "to"
	PrepFor     Preposition = "for"
	PrepWith    Preposition = "with"
	PrepAgainst Preposition = "against"
	PrepVia     Preposition = "via"
	PrepOn      Preposition = "on"
	PrepInto    Preposition = "into"
	PrepAt      Preposition = "at"
)

// Span locates a node in the original source, carried through purely for
// diagnostics (the error template's "Statement:" line, spec §6).
type Span struct {
	Line, Column int
	Text         string // original statement text, verbatim
}

// ResultDescriptor is the <Result: specifiers> clause of a statement.
type ResultDescriptor struct {
	Base       string
	Specifiers []string
	Span       Span
}

// FullName renders "base" or "base: spec1, spec2" (spec §3).
func (r ResultDescriptor) FullName() string {
	if len(r.Specifiers) == 0 {
		return r.Base
	}
	out := r.Base + ": "
	for i, s := range r.Specifiers {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// Specifier returns the i-th specifier, or "" if absent.
func (r ResultDescriptor) Specifier(i int) string {
	if i < 0 || i >= len(r.Specifiers) {
		return ""
	}
	return r.Specifiers[i]
}

// ObjectDescriptor is the <preposition> the <Object: specifiers> clause.
type ObjectDescriptor struct {
	Preposition Preposition
	Base        string
	Specifiers  []string
	Span        Span
}

// KeyPath renders "base.spec1.spec2" for nested access (spec §3).
func (o ObjectDescriptor) KeyPath() string {
	out := o.Base
	for _, s := range o.Specifiers {
		out += "." + s
	}
	return out
}

// IsExternalReference reports whether the object is sourced externally
// (preposition == from), per spec §3.
func (o ObjectDescriptor) IsExternalReference() bool {
	return o.Preposition == PrepFrom
}

// Specifier returns the i-th specifier, or "" if absent.
func (o ObjectDescriptor) Specifier(i int) string {
	if i < 0 || i >= len(o.Specifiers) {
		return ""
	}
	return o.Specifiers[i]
}

// Condition is a guard expression attached to a statement ("when …") or to a
// match/when arm. The analyzer desugars guard syntax; the core only needs to
// evaluate the resolved boolean once operands are substituted, which is done
// via Resolve (a small variable-substituting predicate supplied by the
// analyzer contract).
type Condition struct {
	// Resolve evaluates the condition against a variable resolver and
	// returns its truth value. The analyzer supplies a concrete
	// implementation; the core treats it as an opaque predicate.
	Resolve func(resolve func(name string) (any, bool)) bool
}

// LoopDescriptor is the desugared form of a for-each block (spec §4.3): the
// executor binds each element of the source (a list or a stream, per §4.8)
// to Variable in a fresh child context and runs Body.
type LoopDescriptor struct {
	Variable string
	Source   ObjectDescriptor
	Body     []StatementDescriptor
}

// MatchArm is one guarded arm of a match/when block (spec §4.3): at most one
// arm's Body runs, in a fresh child context, the first whose Condition
// resolves true (a nil Condition is an unconditional "else" arm).
type MatchArm struct {
	Condition *Condition
	Body      []StatementDescriptor
}

// StatementDescriptor is the atomic execution unit (spec §3). A statement is
// either a plain dispatch (Loop and Match both nil), a for-each block (Loop
// set), or a match/when block (Match set) — never more than one.
type StatementDescriptor struct {
	Verb      string
	Role      Role
	Result    ResultDescriptor
	Object    ObjectDescriptor
	Condition *Condition
	Span      Span

	Loop  *LoopDescriptor
	Match []MatchArm
}

// HandlerMetadata carries the event-type and state-guard header for feature
// sets that act as declarative event handlers (spec §4.4, §4.6).
type HandlerMetadata struct {
	EventType string
	RawGuards string // the "<guard1;guard2;…>" suffix, unparsed
}

// AnalyzedFeatureSet is the opaque structure produced by the analyzer (spec
// §3). The core reads Name/BusinessActivity/Statements/Handler and nothing
// more.
type AnalyzedFeatureSet struct {
	Name             string
	BusinessActivity string
	Statements       []StatementDescriptor
	Handler          *HandlerMetadata
	Imports          []string
	Exports          []string
}
