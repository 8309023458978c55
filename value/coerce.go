package value

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeMismatch reports that an operand's Kind cannot satisfy an action's
// contract (spec §7).
type TypeMismatch struct {
	From Kind
	To   Kind
	Verb string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: cannot convert %s to %s (%s)", e.From, e.To, e.Verb)
}

// CoerceToInt implements the string->int row of Table T-1: decimal parse,
// sign allowed, leading/trailing whitespace rejected.
func CoerceToInt(v Value) (Value, error) {
	switch v.Kind {
	case KindInt:
		return v, nil
	case KindDouble:
		return Int(int64(v.Double)), nil
	case KindString:
		s := v.Str
		if s != strings.TrimSpace(s) {
			return Null, &TypeMismatch{From: KindString, To: KindInt, Verb: "transform"}
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Null, &TypeMismatch{From: KindString, To: KindInt, Verb: "transform"}
		}
		return Int(n), nil
	default:
		return Null, &TypeMismatch{From: v.Kind, To: KindInt, Verb: "transform"}
	}
}

// CoerceToDouble implements the string->double row: same whitespace rule,
// exponent form accepted.
func CoerceToDouble(v Value) (Value, error) {
	switch v.Kind {
	case KindDouble:
		return v, nil
	case KindInt:
		return Double(float64(v.Int)), nil
	case KindString:
		s := v.Str
		if s != strings.TrimSpace(s) {
			return Null, &TypeMismatch{From: KindString, To: KindDouble, Verb: "transform"}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null, &TypeMismatch{From: KindString, To: KindDouble, Verb: "transform"}
		}
		return Double(f), nil
	default:
		return Null, &TypeMismatch{From: v.Kind, To: KindDouble, Verb: "transform"}
	}
}

// CoerceToBool implements the string->bool row: case-insensitive
// {"true","1"}->true, {"false","0"}->false, else TypeMismatch.
func CoerceToBool(v Value) (Value, error) {
	switch v.Kind {
	case KindBool:
		return v, nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "1":
			return Bool(true), nil
		case "false", "0":
			return Bool(false), nil
		default:
			return Null, &TypeMismatch{From: KindString, To: KindBool, Verb: "transform"}
		}
	default:
		return Null, &TypeMismatch{From: v.Kind, To: KindBool, Verb: "transform"}
	}
}

// CoerceToString renders any scalar Value as a String variant.
func CoerceToString(v Value) (Value, error) {
	switch v.Kind {
	case KindString:
		return v, nil
	case KindInt, KindDouble, KindBool, KindDate, KindDateDistance:
		return String(v.String()), nil
	default:
		return Null, &TypeMismatch{From: v.Kind, To: KindString, Verb: "transform"}
	}
}

// Transform dispatches on the lowercase target-type specifier, per the
// Compute/Transform specifier routing rules of spec §4.2.
func Transform(v Value, target string) (Value, error) {
	switch strings.ToLower(target) {
	case "int":
		return CoerceToInt(v)
	case "double":
		return CoerceToDouble(v)
	case "bool", "boolean":
		return CoerceToBool(v)
	case "string":
		return CoerceToString(v)
	default:
		return Null, &TypeMismatch{From: v.Kind, To: KindNull, Verb: "transform:" + target}
	}
}

// CoerceCLIScalar implements the command-line parameter coercion order from
// spec §6: Int -> Double -> Bool (case-insensitive) -> String.
func CoerceCLIScalar(raw string) Value {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Double(f)
	}
	switch strings.ToLower(raw) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(raw)
}

// AutoCoerceCell implements the CSV typed auto-coercion rule from spec §4.8:
// parse true/yes/1/false/no/0 -> Bool, then Int, then Double, else String.
func AutoCoerceCell(raw string) Value {
	switch strings.ToLower(raw) {
	case "true", "yes", "1":
		return Bool(true)
	case "false", "no", "0":
		return Bool(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Double(f)
	}
	return String(raw)
}
