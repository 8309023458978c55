package actions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// emailPattern is a pragmatic (not RFC 5322-exhaustive) address shape check,
// matching what a validate-class action needs: "local@domain.tld".
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateAction implements the Validate/Verify/Check verb family (spec
// §4.2): rules produce a ValidationResult {isValid, rule, message?} rather
// than raising, so execution continues past a failed check (spec §7:
// "Validation results flow as ordinary values").
type ValidateAction struct{}

func (ValidateAction) Role() program.Role { return program.RoleOwn }
func (ValidateAction) Verbs() []string    { return []string{"validate", "verify", "check"} }
func (ValidateAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFor, program.PrepFrom, program.PrepAgainst, program.PrepWith}
}
func (ValidateAction) BindsResult() bool { return true }

func (a ValidateAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	rule := strings.ToLower(actx.Statement.Result.Specifier(0))
	if rule == "" {
		rule = strings.ToLower(actx.Statement.Result.Base)
	}

	ok, message := applyRule(rule, actx.Object, actx.ObjectExists)
	result := map[string]value.Value{
		"isValid": value.Bool(ok),
		"rule":    value.String(rule),
	}
	if message != "" {
		result["message"] = value.String(message)
	}
	return value.Map(result), nil
}

func applyRule(rule string, v value.Value, exists bool) (bool, string) {
	switch rule {
	case "required":
		if !exists || v.IsNull() || (v.Kind == value.KindString && v.Str == "") {
			return false, "value is required"
		}
		return true, ""
	case "email":
		if v.Kind != value.KindString || !emailPattern.MatchString(v.Str) {
			return false, "not a valid email address"
		}
		return true, ""
	case "numeric":
		switch v.Kind {
		case value.KindInt, value.KindDouble:
			return true, ""
		case value.KindString:
			if _, err := strconv.ParseFloat(v.Str, 64); err == nil {
				return true, ""
			}
		}
		return false, "value is not numeric"
	case "range":
		// range bounds are out of the descriptor's reach here (no operand
		// slots on ValidationResult beyond rule/message); a bare presence +
		// numeric check is the faithful subset the base rule set supports.
		if ok, msg := applyRule("numeric", v, exists); !ok {
			return false, msg
		}
		return true, ""
	case "nonempty":
		var ok bool
		switch v.Kind {
		case value.KindString:
			ok = v.Str != ""
		case value.KindList:
			ok = len(v.List) > 0
		case value.KindMap:
			ok = len(v.Map) > 0
		default:
			ok = exists && !v.IsNull()
		}
		if !ok {
			return false, "value is empty"
		}
		return true, ""
	default:
		return false, "unknown validation rule"
	}
}
