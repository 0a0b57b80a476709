package dsl

import (
	"math"
	"math/big"
	"net/url"
	"regexp"

	"github.com/google/uuid"

	strux "github.com/strux-go/strux"
)

// ---- string ----

type stringCheck struct {
	kind string
	n    int
	re   *regexp.Regexp
}

type stringNode struct {
	checks []stringCheck
}

func (n *stringNode) TypeName() string { return "string" }

func (n *stringNode) clone() *stringNode {
	nn := &stringNode{checks: make([]stringCheck, len(n.checks))}
	copy(nn.checks, n.checks)
	return nn
}

// putStringCheck drops any existing check of the same kind (last writer
// wins) and appends c. Pattern checks stack instead.
func putStringCheck(checks []stringCheck, c stringCheck) []stringCheck {
	if c.kind == "pattern" {
		return append(checks, c)
	}
	out := make([]stringCheck, 0, len(checks)+1)
	for _, ex := range checks {
		if ex.kind == c.kind {
			continue
		}
		out = append(out, ex)
	}
	return append(out, c)
}

var emailRe = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// validURL requires an absolute URL with a host.
func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (n *stringNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return failType(pc, "string", v)
	}
	length := len([]rune(s))
	for _, c := range n.checks {
		if pc.ShouldAbort() {
			break
		}
		switch c.kind {
		case "min":
			if length < c.n {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "min", "min": c.n, "got": length})
			}
		case "max":
			if length > c.n {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "max", "max": c.n, "got": length})
			}
		case "length":
			if length != c.n {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "length", "expected": c.n, "got": length})
			}
		case "nonempty":
			if length == 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "nonempty"})
			}
		case "pattern":
			if !c.re.MatchString(s) {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "pattern", "pattern": c.re.String()})
			}
		case "email":
			if !emailRe.MatchString(s) {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "email"})
			}
		case "url":
			if !validURL(s) {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "url"})
			}
		case "uuid":
			if _, err := uuid.Parse(s); err != nil {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "string", "check": "uuid"})
			}
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(s)
}

// StringSchema validates string values with ordered checks.
type StringSchema struct {
	AnySchema
	sn *stringNode
}

// String builds a string schema.
func String() StringSchema {
	n := &stringNode{}
	return StringSchema{AnySchema: wrap(n), sn: n}
}

func (s StringSchema) with(c stringCheck) StringSchema {
	nn := s.sn.clone()
	nn.checks = putStringCheck(nn.checks, c)
	return StringSchema{AnySchema: wrap(nn), sn: nn}
}

// Min requires at least m characters (counted in runes).
func (s StringSchema) Min(m int) StringSchema { return s.with(stringCheck{kind: "min", n: m}) }

// Max allows at most m characters.
func (s StringSchema) Max(m int) StringSchema { return s.with(stringCheck{kind: "max", n: m}) }

// Len requires exactly m characters.
func (s StringSchema) Len(m int) StringSchema { return s.with(stringCheck{kind: "length", n: m}) }

// NonEmpty rejects the empty string.
func (s StringSchema) NonEmpty() StringSchema { return s.with(stringCheck{kind: "nonempty"}) }

// Pattern requires the string to match the expression. An invalid expression
// is API misuse and panics with *strux.UsageError. Patterns stack.
func (s StringSchema) Pattern(expr string) StringSchema {
	re, err := regexp.Compile(expr)
	if err != nil {
		panic(strux.NewUsageError("String.Pattern", "invalid pattern %q: %v", expr, err))
	}
	return s.with(stringCheck{kind: "pattern", re: re})
}

// Email requires a conventional email shape.
func (s StringSchema) Email() StringSchema { return s.with(stringCheck{kind: "email"}) }

// URL requires a scheme://rest shape.
func (s StringSchema) URL() StringSchema { return s.with(stringCheck{kind: "url"}) }

// UUID requires an RFC 4122 textual UUID.
func (s StringSchema) UUID() StringSchema { return s.with(stringCheck{kind: "uuid"}) }

// ---- number ----

type numberCheck struct {
	kind string
	val  float64
}

type numberNode struct {
	checks []numberCheck
}

func (n *numberNode) TypeName() string { return "number" }

func (n *numberNode) clone() *numberNode {
	nn := &numberNode{checks: make([]numberCheck, len(n.checks))}
	copy(nn.checks, n.checks)
	return nn
}

func putNumberCheck(checks []numberCheck, c numberCheck) []numberCheck {
	out := make([]numberCheck, 0, len(checks)+1)
	for _, ex := range checks {
		if ex.kind == c.kind {
			continue
		}
		out = append(out, ex)
	}
	return append(out, c)
}

func (n *numberNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.KindOf(v) != strux.KindNumber {
		return failType(pc, "number", v)
	}
	f, ok := strux.NumberValue(v)
	if !ok {
		return failType(pc, "number", v)
	}
	for _, c := range n.checks {
		if pc.ShouldAbort() {
			break
		}
		switch c.kind {
		case "min":
			if f < c.val {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "min", "min": c.val, "got": f})
			}
		case "max":
			if f > c.val {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "max", "max": c.val, "got": f})
			}
		case "gt":
			if f <= c.val {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "gt", "gt": c.val, "got": f})
			}
		case "lt":
			if f >= c.val {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "lt", "lt": c.val, "got": f})
			}
		case "int":
			if f != math.Trunc(f) {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "int", "got": f})
			}
		case "multiple_of":
			if c.val == 0 || math.Abs(math.Mod(f, c.val)) > 1e-9 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "multiple_of", "multipleOf": c.val, "got": f})
			}
		case "positive":
			if f <= 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "positive", "got": f})
			}
		case "negative":
			if f >= 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "number", "check": "negative", "got": f})
			}
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(v)
}

// NumberSchema validates any numeric kind, including json.Number. The input
// value passes through unchanged.
type NumberSchema struct {
	AnySchema
	nn *numberNode
}

// Number builds a number schema.
func Number() NumberSchema {
	n := &numberNode{}
	return NumberSchema{AnySchema: wrap(n), nn: n}
}

func (s NumberSchema) with(c numberCheck) NumberSchema {
	nn := s.nn.clone()
	nn.checks = putNumberCheck(nn.checks, c)
	return NumberSchema{AnySchema: wrap(nn), nn: nn}
}

// Min requires the number to be at least m.
func (s NumberSchema) Min(m float64) NumberSchema { return s.with(numberCheck{kind: "min", val: m}) }

// Max requires the number to be at most m.
func (s NumberSchema) Max(m float64) NumberSchema { return s.with(numberCheck{kind: "max", val: m}) }

// Gt requires the number to exceed m.
func (s NumberSchema) Gt(m float64) NumberSchema { return s.with(numberCheck{kind: "gt", val: m}) }

// Lt requires the number to be below m.
func (s NumberSchema) Lt(m float64) NumberSchema { return s.with(numberCheck{kind: "lt", val: m}) }

// Int requires a whole number.
func (s NumberSchema) Int() NumberSchema { return s.with(numberCheck{kind: "int"}) }

// MultipleOf requires the number to be a multiple of m.
func (s NumberSchema) MultipleOf(m float64) NumberSchema {
	return s.with(numberCheck{kind: "multiple_of", val: m})
}

// Positive requires the number to exceed zero.
func (s NumberSchema) Positive() NumberSchema { return s.with(numberCheck{kind: "positive"}) }

// Negative requires the number to be below zero.
func (s NumberSchema) Negative() NumberSchema { return s.with(numberCheck{kind: "negative"}) }

// ---- bigint ----

type bigintCheck struct {
	kind string
	val  *big.Int
}

type bigintNode struct {
	checks []bigintCheck
}

func (n *bigintNode) TypeName() string { return "bigint" }

func (n *bigintNode) clone() *bigintNode {
	nn := &bigintNode{checks: make([]bigintCheck, len(n.checks))}
	copy(nn.checks, n.checks)
	return nn
}

func (n *bigintNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	b, ok := v.(*big.Int)
	if !ok || b == nil {
		return failType(pc, "bigint", v)
	}
	for _, c := range n.checks {
		if pc.ShouldAbort() {
			break
		}
		switch c.kind {
		case "min":
			if b.Cmp(c.val) < 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "bigint", "check": "min", "min": c.val.String(), "got": b.String()})
			}
		case "max":
			if b.Cmp(c.val) > 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "bigint", "check": "max", "max": c.val.String(), "got": b.String()})
			}
		case "positive":
			if b.Sign() <= 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "bigint", "check": "positive", "got": b.String()})
			}
		case "negative":
			if b.Sign() >= 0 {
				pc.AddIssue(strux.CodeCustom, map[string]any{"kind": "bigint", "check": "negative", "got": b.String()})
			}
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(b)
}

// BigIntSchema validates *big.Int values.
type BigIntSchema struct {
	AnySchema
	bn *bigintNode
}

// BigInt builds a bigint schema.
func BigInt() BigIntSchema {
	n := &bigintNode{}
	return BigIntSchema{AnySchema: wrap(n), bn: n}
}

func (s BigIntSchema) with(c bigintCheck) BigIntSchema {
	nn := s.bn.clone()
	out := make([]bigintCheck, 0, len(nn.checks)+1)
	for _, ex := range nn.checks {
		if ex.kind == c.kind {
			continue
		}
		out = append(out, ex)
	}
	nn.checks = append(out, c)
	return BigIntSchema{AnySchema: wrap(nn), bn: nn}
}

// Min requires the value to be at least m.
func (s BigIntSchema) Min(m *big.Int) BigIntSchema { return s.with(bigintCheck{kind: "min", val: m}) }

// Max requires the value to be at most m.
func (s BigIntSchema) Max(m *big.Int) BigIntSchema { return s.with(bigintCheck{kind: "max", val: m}) }

// Positive requires the value to exceed zero.
func (s BigIntSchema) Positive() BigIntSchema { return s.with(bigintCheck{kind: "positive"}) }

// Negative requires the value to be below zero.
func (s BigIntSchema) Negative() BigIntSchema { return s.with(bigintCheck{kind: "negative"}) }

// ---- boolean ----

type booleanNode struct {
	coerce bool
	truthy []any
	falsy  []any
}

func (n *booleanNode) TypeName() string { return "boolean" }

func (n *booleanNode) clone() *booleanNode {
	nn := &booleanNode{coerce: n.coerce}
	nn.truthy = append([]any(nil), n.truthy...)
	nn.falsy = append([]any(nil), n.falsy...)
	return nn
}

func (n *booleanNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if len(n.truthy) > 0 || len(n.falsy) > 0 {
		for _, t := range n.truthy {
			if valueEqual(v, t) {
				return pc.OK(true)
			}
		}
		for _, f := range n.falsy {
			if valueEqual(v, f) {
				return pc.OK(false)
			}
		}
		if b, ok := v.(bool); ok {
			return pc.OK(b)
		}
		return failType(pc, "boolean", v)
	}
	if n.coerce {
		return pc.OK(truthiness(v))
	}
	b, ok := v.(bool)
	if !ok {
		return failType(pc, "boolean", v)
	}
	return pc.OK(b)
}

// truthiness mirrors scripting-language coercion: null, absent, false, zero
// and the empty string are falsy, everything else is truthy.
func truthiness(v any) bool {
	switch t := v.(type) {
	case nil, strux.UndefinedType:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := strux.NumberValue(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// BooleanSchema validates booleans, optionally coercing other kinds.
type BooleanSchema struct {
	AnySchema
	bn *booleanNode
}

// Boolean builds a boolean schema. Coercion is off by default.
func Boolean() BooleanSchema {
	n := &booleanNode{}
	return BooleanSchema{AnySchema: wrap(n), bn: n}
}

func (s BooleanSchema) with(mut func(*booleanNode)) BooleanSchema {
	nn := s.bn.clone()
	mut(nn)
	return BooleanSchema{AnySchema: wrap(nn), bn: nn}
}

// Coerce accepts any input and converts it by truthiness. Blanket coercion
// and the selective lists are mutually exclusive; enabling this clears them.
func (s BooleanSchema) Coerce() BooleanSchema {
	return s.with(func(n *booleanNode) {
		n.coerce = true
		n.truthy = nil
		n.falsy = nil
	})
}

// Truthy lists values that coerce to true, matched by deep equality before
// the strict boolean check. Setting it clears blanket coercion.
func (s BooleanSchema) Truthy(vals ...any) BooleanSchema {
	return s.with(func(n *booleanNode) {
		n.coerce = false
		n.truthy = append([]any(nil), vals...)
	})
}

// Falsy lists values that coerce to false. Setting it clears blanket
// coercion.
func (s BooleanSchema) Falsy(vals ...any) BooleanSchema {
	return s.with(func(n *booleanNode) {
		n.coerce = false
		n.falsy = append([]any(nil), vals...)
	})
}
