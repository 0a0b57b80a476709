package dsl

import (
	"reflect"

	strux "github.com/strux-go/strux"
)

type anyNode struct{ name string }

func (n *anyNode) TypeName() string { return n.name }

func (n *anyNode) run(pc *strux.ParseCtx, v any) (any, bool) { return pc.OK(v) }

// Any accepts every input, including absent values.
func Any() AnySchema { return wrap(&anyNode{name: "any"}) }

// Unknown accepts every input. It differs from Any only in the reported
// type name, for callers that want to signal "not yet validated".
func Unknown() AnySchema { return wrap(&anyNode{name: "unknown"}) }

type neverNode struct{}

func (n *neverNode) TypeName() string { return "never" }

func (n *neverNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	pc.AddIssue(strux.CodeForbidden, map[string]any{"received": strux.KindOf(v)})
	return pc.Abort()
}

// Never rejects every input.
func Never() AnySchema { return wrap(&neverNode{}) }

type nullNode struct{}

func (n *nullNode) TypeName() string { return "null" }

func (n *nullNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if v == nil {
		return pc.OK(nil)
	}
	return failType(pc, "null", v)
}

// Null accepts only nil.
func Null() AnySchema { return wrap(&nullNode{}) }

type undefinedNode struct{ name string }

func (n *undefinedNode) TypeName() string { return n.name }

func (n *undefinedNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		return pc.OK(strux.Undefined)
	}
	pc.AddIssue(strux.CodeInvalidType, map[string]any{
		"expected": n.name,
		"received": string(strux.KindOf(v)),
	})
	return pc.Abort()
}

// Undefined accepts only the absent-value sentinel. Absence is the expected
// input here, so it never reports a required issue.
func Undefined() AnySchema { return wrap(&undefinedNode{name: "undefined"}) }

// Void accepts only the absent-value sentinel, for functions that return
// nothing.
func Void() AnySchema { return wrap(&undefinedNode{name: "void"}) }

type symbolNode struct{}

func (n *symbolNode) TypeName() string { return "symbol" }

func (n *symbolNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if _, ok := v.(strux.Symbol); ok {
		return pc.OK(v)
	}
	return failType(pc, "symbol", v)
}

// Symbol accepts strux.Symbol values.
func Symbol() AnySchema { return wrap(&symbolNode{}) }

type instanceNode struct {
	t    reflect.Type
	name string
}

func (n *instanceNode) TypeName() string { return "instanceof" }

func (n *instanceNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		pc.AddIssue(strux.CodeRequired, map[string]any{"expected": n.name})
		return pc.Abort()
	}
	if v != nil && reflect.TypeOf(v).AssignableTo(n.t) {
		return pc.OK(v)
	}
	pc.AddIssue(strux.CodeInvalidInstance, map[string]any{
		"expected": n.name,
		"received": string(strux.KindOf(v)),
	})
	return pc.Abort()
}

// InstanceOf accepts values assignable to T. T may be a concrete or an
// interface type.
func InstanceOf[T any]() AnySchema {
	var zero *T
	t := reflect.TypeOf(zero).Elem()
	return wrap(&instanceNode{t: t, name: t.String()})
}
