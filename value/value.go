// Package value defines the discriminated Value sum that flows through every
// layer of the ARO execution core: variable bindings, action results, event
// payloads, repository records, and stream elements are all Values.
//
// Value is modeled as a closed sum (a Kind tag plus per-kind accessors)
// rather than a heterogeneous interface{} container, so dispatch on Value
// shape is a small switch rather than runtime reflection.
package value

import (
	"fmt"
	"sort"
	"time"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindBytes
	KindList
	KindMap
	KindDate
	KindDateRange
	KindDateDistance
	KindStream
	KindEntity
	KindForeignObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindDate:
		return "date"
	case KindDateRange:
		return "daterange"
	case KindDateDistance:
		return "datedistance"
	case KindStream:
		return "stream"
	case KindEntity:
		return "entity"
	case KindForeignObject:
		return "foreignobject"
	default:
		return "unknown"
	}
}

// StreamHandle is the narrow interface the value package needs from a stream
// producer; the stream package implements it. Kept here (rather than
// importing the stream package) to avoid an import cycle: stream values are
// carried by value.Value long before a Stream's own transform/sink API is
// needed by callers that only move values around.
type StreamHandle interface {
	// ID returns a stable identifier used for Stream-variant equality.
	ID() string
}

// ForeignHandle is the narrow interface for ForeignObject values (system
// object handles). Identity equality only, per spec §3.
type ForeignHandle interface {
	ID() string
}

// Date pairs a wall-clock time with the IANA timezone it was expressed in.
type Date struct {
	When     time.Time
	Timezone string // IANA name, e.g. "America/Los_Angeles"
}

// DateRange is an inclusive-by-default span between two Dates.
type DateRange struct {
	Start Date
	End   Date
}

// Contains reports whether d falls within [r.Start, r.End], inclusive of
// both endpoints (spec §8 boundary behavior).
func (r DateRange) Contains(d Date) bool {
	return !d.When.Before(r.Start.When) && !d.When.After(r.End.When)
}

// ContainsExclusive reports whether d falls within [r.Start, r.End), i.e.
// excludes the upper bound.
func (r DateRange) ContainsExclusive(d Date) bool {
	return !d.When.Before(r.Start.When) && d.When.Before(r.End.When)
}

// DateUnit is a single letter/short-code time unit used by DateDistance
// arithmetic and offset parsing. The spec fixes the source's ambiguous
// parse table: "m" means minutes, "mo" means months (see spec.md §9).
type DateUnit string

const (
	UnitSecond DateUnit = "s"
	UnitMinute DateUnit = "m"
	UnitHour   DateUnit = "h"
	UnitDay    DateUnit = "d"
	UnitWeek   DateUnit = "w"
	UnitMonth  DateUnit = "mo"
	UnitYear   DateUnit = "y"
)

// DateDistance is a signed quantity of a DateUnit, e.g. "+5d" or "-2mo".
type DateDistance struct {
	Amount int
	Unit   DateUnit
}

// Apply offsets t by the distance, correctly crossing month/year boundaries
// (spec §8: "2025-12-30 + 5d -> 2026-01-04").
func (d DateDistance) Apply(t time.Time) time.Time {
	switch d.Unit {
	case UnitSecond:
		return t.Add(time.Duration(d.Amount) * time.Second)
	case UnitMinute:
		return t.Add(time.Duration(d.Amount) * time.Minute)
	case UnitHour:
		return t.Add(time.Duration(d.Amount) * time.Hour)
	case UnitDay:
		return t.AddDate(0, 0, d.Amount)
	case UnitWeek:
		return t.AddDate(0, 0, 7*d.Amount)
	case UnitMonth:
		return t.AddDate(0, d.Amount, 0)
	case UnitYear:
		return t.AddDate(d.Amount, 0, 0)
	default:
		return t
	}
}

// Entity is an opaque value map required to carry an "id" field. Entities are
// produced by Create<PascalCase> and consumed by Accept and the repository
// store.
type Entity struct {
	Fields map[string]Value
}

// ID returns the entity's "id" field as a string, or "" if absent/non-string.
func (e Entity) ID() string {
	if e.Fields == nil {
		return ""
	}
	if v, ok := e.Fields["id"]; ok && v.Kind == KindString {
		return v.Str
	}
	return ""
}

// Value is the discriminated sum described in spec.md §3. Exactly one field
// group is meaningful per Kind; zero values of the others are ignored.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Double float64
	Str    string
	Bytes  []byte
	List   []Value
	Map    map[string]Value
	Date   Date
	Range  DateRange
	Dist   DateDistance
	Entity Entity

	Stream  StreamHandle
	Foreign ForeignHandle
}

// Null is the canonical Null value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value              { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value              { return Value{Kind: KindInt, Int: i} }
func Double(f float64) Value         { return Value{Kind: KindDouble, Double: f} }
func String(s string) Value          { return Value{Kind: KindString, Str: s} }
func Bytes(b []byte) Value           { return Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)} }
func List(vs []Value) Value          { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value   { return Value{Kind: KindMap, Map: m} }
func FromDate(d Date) Value          { return Value{Kind: KindDate, Date: d} }
func FromRange(r DateRange) Value    { return Value{Kind: KindDateRange, Range: r} }
func FromDistance(d DateDistance) Value { return Value{Kind: KindDateDistance, Dist: d} }
func FromEntity(e Entity) Value      { return Value{Kind: KindEntity, Entity: e} }
func FromStream(s StreamHandle) Value { return Value{Kind: KindStream, Stream: s} }
func FromForeign(f ForeignHandle) Value { return Value{Kind: KindForeignObject, Foreign: f} }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Clone performs a deep copy, per spec §3 ("All variants are shareable (deep
// copy on mutation)"). Stream and ForeignObject handles are identity-shared:
// they are handles, not owned data, so cloning preserves the same handle.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindBytes:
		return Bytes(v.Bytes)
	case KindList:
		out := make([]Value, len(v.List))
		for i, e := range v.List {
			out[i] = e.Clone()
		}
		return List(out)
	case KindMap:
		out := make(map[string]Value, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Clone()
		}
		return Map(out)
	case KindEntity:
		out := make(map[string]Value, len(v.Entity.Fields))
		for k, e := range v.Entity.Fields {
			out[k] = e.Clone()
		}
		return FromEntity(Entity{Fields: out})
	default:
		return v
	}
}

// Equal implements the structural equality rules of spec §3: all variants
// compare structurally except Stream and ForeignObject, which compare by
// handle identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindDouble:
		return a.Double == b.Double
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return mapEqual(a.Map, b.Map)
	case KindDate:
		return a.Date.When.Equal(b.Date.When) && a.Date.Timezone == b.Date.Timezone
	case KindDateRange:
		return Equal(FromDate(a.Range.Start), FromDate(b.Range.Start)) &&
			Equal(FromDate(a.Range.End), FromDate(b.Range.End))
	case KindDateDistance:
		return a.Dist == b.Dist
	case KindEntity:
		return mapEqual(a.Entity.Fields, b.Entity.Fields)
	case KindStream:
		return a.Stream != nil && b.Stream != nil && a.Stream.ID() == b.Stream.ID()
	case KindForeignObject:
		return a.Foreign != nil && b.Foreign != nil && a.Foreign.ID() == b.Foreign.ID()
	default:
		return false
	}
}

func mapEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// SortedKeys returns m's keys in ascending order, used by deterministic
// serializers (CSV header ordering, debug dumps).
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a human-readable representation, used by the error
// template's <var> placeholder substitution (spec §7) and by Log actions.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindDouble:
		return fmt.Sprintf("%g", v.Double)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case KindList:
		return fmt.Sprintf("<list of %d>", len(v.List))
	case KindMap:
		return fmt.Sprintf("<map of %d>", len(v.Map))
	case KindDate:
		return v.Date.When.Format(time.RFC3339)
	case KindDateRange:
		return fmt.Sprintf("%s..%s", v.Range.Start.When.Format(time.RFC3339), v.Range.End.When.Format(time.RFC3339))
	case KindDateDistance:
		return fmt.Sprintf("%+d%s", v.Dist.Amount, v.Dist.Unit)
	case KindEntity:
		return fmt.Sprintf("<entity %s>", v.Entity.ID())
	case KindStream:
		return "<stream>"
	case KindForeignObject:
		return "<foreign object>"
	default:
		return "<unknown>"
	}
}
