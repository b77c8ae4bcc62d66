package expr

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Env is the variable environment for evaluation. Nested maps are traversed
// by dotted paths.
type Env map[string]any

// Fault records a non-aborting evaluation problem: an unknown variable, a
// type mismatch or a bad regular expression. The faulting subexpression
// evaluates to false and evaluation of the enclosing expression continues.
type Fault struct {
	Pos     Pos    `json:"pos"`
	Message string `json:"message"`
}

func (f Fault) String() string {
	return fmt.Sprintf("%s: %s", f.Pos, f.Message)
}

// Eval evaluates the expression against env and returns the resulting value
// together with any faults recorded along the way. Short-circuit skips both
// evaluation and fault recording of the untaken side.
func (e *Expr) Eval(env Env) (any, []Fault) {
	ev := &evaluator{env: env}
	val, ok := ev.eval(e.root)
	if !ok {
		return nil, ev.faults
	}
	return val, ev.faults
}

// EvalBool evaluates the expression and coerces the result to a boolean.
// A non-boolean result is a fault and yields false.
func (e *Expr) EvalBool(env Env) (bool, []Fault) {
	ev := &evaluator{env: env}
	result := ev.evalBool(e.root)
	return result, ev.faults
}

type evaluator struct {
	env    Env
	faults []Fault
}

func (ev *evaluator) fault(at Pos, format string, args ...any) {
	ev.faults = append(ev.faults, Fault{Pos: at, Message: fmt.Sprintf(format, args...)})
}

// evalBool coerces a subexpression to a boolean. Faulted or non-boolean
// operands count as false.
func (ev *evaluator) evalBool(n node) bool {
	val, ok := ev.eval(n)
	if !ok {
		return false
	}
	b, isBool := val.(bool)
	if !isBool {
		ev.fault(n.pos(), "expected a boolean, got %s", typeName(val))
		return false
	}
	return b
}

// eval returns the value of a subexpression. ok is false only when a
// variable lookup failed; operators absorb that into a false result.
func (ev *evaluator) eval(n node) (any, bool) {
	switch n := n.(type) {
	case *literalNode:
		return n.val, true

	case *pathNode:
		return ev.lookup(n)

	case *callNode:
		return ev.call(n), true

	case *unaryNode:
		return !ev.evalBool(n.operand), true

	case *binaryNode:
		switch n.op {
		case "and":
			if !ev.evalBool(n.left) {
				return false, true
			}
			return ev.evalBool(n.right), true
		case "or":
			if ev.evalBool(n.left) {
				return true, true
			}
			return ev.evalBool(n.right), true
		default:
			return ev.compare(n), true
		}
	}
	return nil, true
}

func (ev *evaluator) lookup(n *pathNode) (any, bool) {
	current, ok := indexMap(ev.env, n.parts[0])
	if !ok {
		ev.fault(n.at, "unknown variable %q", n.parts[0])
		return nil, false
	}
	for i := 1; i < len(n.parts); i++ {
		child, ok := indexAny(current, n.parts[i])
		if !ok {
			ev.fault(n.at, "unknown variable %q", strings.Join(n.parts[:i+1], "."))
			return nil, false
		}
		current = child
	}
	return current, true
}

func indexMap(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func indexAny(container any, key string) (any, bool) {
	switch m := container.(type) {
	case map[string]any:
		return indexMap(m, key)
	case Env:
		return indexMap(m, key)
	case map[any]any:
		v, ok := m[key]
		return v, ok
	}
	return nil, false
}

func (ev *evaluator) call(n *callNode) any {
	args := make([]any, len(n.args))
	for i, arg := range n.args {
		val, ok := ev.eval(arg)
		if !ok {
			// lookup already recorded the fault; the call yields false
			return false
		}
		args[i] = val
	}

	switch n.fn {
	case "len":
		return ev.builtinLen(n, args[0])
	case "contains":
		return ev.builtinContains(n, args[0], args[1])
	case "matches":
		return ev.builtinMatches(n, args[0], args[1])
	case "is_empty":
		return ev.builtinIsEmpty(n, args[0])
	case "is_null":
		return args[0] == nil
	}
	return false
}

func (ev *evaluator) builtinLen(n *callNode, v any) any {
	switch v := v.(type) {
	case string:
		return int64(utf8.RuneCountInString(v))
	case []any:
		return int64(len(v))
	case map[string]any:
		return int64(len(v))
	case map[any]any:
		return int64(len(v))
	}
	ev.fault(n.at, "len() requires a string, list or object, got %s", typeName(v))
	return false
}

func (ev *evaluator) builtinContains(n *callNode, haystack, needle any) any {
	switch h := haystack.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			ev.fault(n.at, "contains() on a string requires a string needle, got %s", typeName(needle))
			return false
		}
		return strings.Contains(h, s)
	case []any:
		for _, item := range h {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	case map[string]any:
		key, ok := needle.(string)
		if !ok {
			ev.fault(n.at, "contains() on an object requires a string key, got %s", typeName(needle))
			return false
		}
		_, present := h[key]
		return present
	case map[any]any:
		_, present := h[needle]
		return present
	}
	ev.fault(n.at, "contains() requires a string, list or object, got %s", typeName(haystack))
	return false
}

func (ev *evaluator) builtinMatches(n *callNode, subject, pattern any) any {
	s, ok := subject.(string)
	if !ok {
		ev.fault(n.at, "matches() requires a string subject, got %s", typeName(subject))
		return false
	}
	p, ok := pattern.(string)
	if !ok {
		ev.fault(n.at, "matches() requires a string pattern, got %s", typeName(pattern))
		return false
	}
	re, err := regexp.Compile(p)
	if err != nil {
		ev.fault(n.at, "invalid regular expression %q", p)
		return false
	}
	// Unanchored search semantics: the pattern may match anywhere.
	return re.MatchString(s)
}

func (ev *evaluator) builtinIsEmpty(n *callNode, v any) any {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case map[any]any:
		return len(v) == 0
	}
	ev.fault(n.at, "is_empty() requires a string, list or object, got %s", typeName(v))
	return false
}

func (ev *evaluator) compare(n *binaryNode) bool {
	left, lok := ev.eval(n.left)
	right, rok := ev.eval(n.right)
	if !lok || !rok {
		return false
	}

	switch n.op {
	case "==":
		return looseEqual(left, right)
	case "!=":
		return !looseEqual(left, right)
	}

	lf, lIsNum := asFloat(left)
	rf, rIsNum := asFloat(right)
	if lIsNum && rIsNum {
		switch n.op {
		case "<":
			return lf < rf
		case ">":
			return lf > rf
		case "<=":
			return lf <= rf
		case ">=":
			return lf >= rf
		}
	}

	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	if lIsStr && rIsStr {
		switch n.op {
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		case ">=":
			return ls >= rs
		}
	}

	ev.fault(n.at, "cannot compare %s with %s using %q", typeName(left), typeName(right), n.op)
	return false
}

// looseEqual compares values with numeric promotion: 1 == 1.0. Values of
// different non-numeric types are unequal, never a fault.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any, map[any]any, Env:
		return "object"
	}
	if _, ok := asFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
