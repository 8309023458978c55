// Package actions implements the built-in Action table of spec.md §4.2: one
// file per verb family, wired together by RegisterDefaults. Each Action is a
// thin, stateless struct satisfying registry.Action; the heavy lifting
// (coercion, stream transforms, repository CRUD) lives in the packages these
// actions delegate to, the same split the teacher keeps between its
// runtime/agent/tools adapters and the engine/inmem implementations they
// wrap.
package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// ComputeAction implements the Compute/Calculate/Derive verb family (spec
// §4.2): length/count/hash/uppercase/lowercase/identity, plus a legacy mode
// where the result's base name itself is the operation.
type ComputeAction struct{}

func (ComputeAction) Role() program.Role { return program.RoleOwn }
func (ComputeAction) Verbs() []string    { return []string{"compute", "calculate", "derive"} }
func (ComputeAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepFor, program.PrepWith}
}
func (ComputeAction) BindsResult() bool { return true }

func (a ComputeAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	op := actx.Statement.Result.Specifier(0)
	if op == "" {
		// legacy mode: the result base itself names the operation, e.g. "<length>"
		op = actx.Statement.Result.Base
	}
	return computeOp(strings.ToLower(op), actx.Object)
}

func computeOp(op string, v value.Value) (value.Value, error) {
	switch op {
	case "length":
		return computeLength(v)
	case "count":
		return computeCount(v)
	case "hash":
		return value.String(sha256Hex(v)), nil
	case "uppercase":
		s, err := value.CoerceToString(v)
		if err != nil {
			return value.Null, err
		}
		return value.String(strings.ToUpper(s.Str)), nil
	case "lowercase":
		s, err := value.CoerceToString(v)
		if err != nil {
			return value.Null, err
		}
		return value.String(strings.ToLower(s.Str)), nil
	case "identity":
		return v, nil
	default:
		return value.Null, aroerr.Withf(aroerr.KindTypeMismatch, map[string]any{"operation": op},
			"compute: unknown operation %q", op)
	}
}

func computeLength(v value.Value) (value.Value, error) {
	switch v.Kind {
	case value.KindString:
		return value.Int(int64(utf8.RuneCountInString(v.Str))), nil
	case value.KindList:
		return value.Int(int64(len(v.List))), nil
	case value.KindBytes:
		return value.Int(int64(len(v.Bytes))), nil
	case value.KindMap:
		return value.Int(int64(len(v.Map))), nil
	default:
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "compute length: unsupported kind %s", v.Kind)
	}
}

func computeCount(v value.Value) (value.Value, error) {
	switch v.Kind {
	case value.KindList:
		return value.Int(int64(len(v.List))), nil
	case value.KindMap:
		return value.Int(int64(len(v.Map))), nil
	default:
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "compute count: unsupported kind %s", v.Kind)
	}
}

func sha256Hex(v value.Value) string {
	h := sha256.Sum256([]byte(v.String()))
	return hex.EncodeToString(h[:])
}
