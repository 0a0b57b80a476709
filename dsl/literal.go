package dsl

import (
	"fmt"
	"strings"

	strux "github.com/strux-go/strux"
)

type literalNode struct {
	want any
}

func (n *literalNode) TypeName() string { return "literal" }

func literalRender(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func (n *literalNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		pc.AddIssue(strux.CodeRequired, map[string]any{"expected": literalRender(n.want)})
		return pc.Abort()
	}
	if !valueEqual(v, n.want) {
		pc.AddIssue(strux.CodeInvalidLiteral, map[string]any{
			"expected": literalRender(n.want),
			"received": literalRender(v),
		})
		return pc.Abort()
	}
	return pc.OK(n.want)
}

// LiteralSchema accepts exactly one value.
type LiteralSchema struct {
	AnySchema
	ln *literalNode
}

// Literal accepts only values deeply equal to want. Numbers compare across
// numeric kinds, so Literal(1) accepts float64(1) and json.Number("1").
// The parsed output is the canonical literal, not the input.
func Literal(want any) LiteralSchema {
	n := &literalNode{want: want}
	return LiteralSchema{AnySchema: wrap(n), ln: n}
}

// Value reports the accepted literal.
func (s LiteralSchema) Value() any { return s.ln.want }

type enumNode struct {
	vals []string
}

func (n *enumNode) TypeName() string { return "enum" }

func (n *enumNode) expected() string {
	quoted := make([]string, len(n.vals))
	for i, v := range n.vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, " | ")
}

func (n *enumNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		pc.AddIssue(strux.CodeRequired, map[string]any{"expected": "enum"})
		return pc.Abort()
	}
	if s, ok := v.(string); ok {
		for _, want := range n.vals {
			if s == want {
				return pc.OK(s)
			}
		}
	}
	pc.AddIssue(strux.CodeInvalidEnumValue, map[string]any{
		"expected": n.expected(),
		"received": literalRender(v),
		"options":  append([]string(nil), n.vals...),
	})
	return pc.Abort()
}

// EnumSchema accepts one of a fixed set of strings.
type EnumSchema struct {
	AnySchema
	en *enumNode
}

// Enum accepts any of the listed strings. An empty list is API misuse and
// panics with *strux.UsageError.
func Enum(vals ...string) EnumSchema {
	if len(vals) == 0 {
		panic(strux.NewUsageError("Enum", "at least one value is required"))
	}
	n := &enumNode{vals: append([]string(nil), vals...)}
	return EnumSchema{AnySchema: wrap(n), en: n}
}

// Values reports the accepted strings in declaration order.
func (s EnumSchema) Values() []string {
	return append([]string(nil), s.en.vals...)
}
