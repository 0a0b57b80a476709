package dsl

import (
	"context"
	"sync"

	strux "github.com/strux-go/strux"
)

// ---- optional ----

type optionalNode struct{ inner node }

// Optional accepts the absent value: Undefined passes through untouched and
// is omitted from object output. Wrapping an already-optional schema is a
// no-op, which keeps Partial idempotent.
func Optional(s Schema) AnySchema {
	n := nodeOf(s)
	if _, ok := n.(*optionalNode); ok {
		return wrap(n)
	}
	return wrap(&optionalNode{inner: n})
}

func (n *optionalNode) TypeName() string { return "optional" }

func (n *optionalNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		return pc.OK(strux.Undefined)
	}
	return n.inner.run(pc.Child(n.inner, v), v)
}

// ---- nullable ----

type nullableNode struct{ inner node }

// Nullable accepts null: nil passes through untouched.
func Nullable(s Schema) AnySchema {
	n := nodeOf(s)
	if _, ok := n.(*nullableNode); ok {
		return wrap(n)
	}
	return wrap(&nullableNode{inner: n})
}

func (n *nullableNode) TypeName() string { return "nullable" }

func (n *nullableNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if v == nil {
		return pc.OK(nil)
	}
	return n.inner.run(pc.Child(n.inner, v), v)
}

// ---- default ----

type defaultNode struct {
	inner node
	val   any
	fn    func() any
}

// Default substitutes v for absent input, then validates the substitute
// through s.
func Default(s Schema, v any) AnySchema {
	return wrap(&defaultNode{inner: nodeOf(s), val: v})
}

// DefaultFunc is Default with a generator, for defaults that must be fresh
// per parse.
func DefaultFunc(s Schema, fn func() any) AnySchema {
	return wrap(&defaultNode{inner: nodeOf(s), fn: fn})
}

func (n *defaultNode) TypeName() string { return "default" }

func (n *defaultNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if strux.IsUndefined(v) {
		if n.fn != nil {
			v = n.fn()
		} else {
			v = n.val
		}
	}
	return n.inner.run(pc.Child(n.inner, v), v)
}

// defaultValue reports the configured fallback for projection purposes.
func (n *defaultNode) defaultValue() any {
	if n.fn != nil {
		return n.fn()
	}
	return n.val
}

// ---- catch ----

type catchNode struct {
	inner    node
	fallback any
}

// Catch replaces any validation failure of s with the fallback value. The
// failed attempt leaves no trace in the surrounding parse.
func Catch(s Schema, fallback any) AnySchema {
	return wrap(&catchNode{inner: nodeOf(s), fallback: fallback})
}

func (n *catchNode) TypeName() string { return "catch" }

func (n *catchNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	cpc := pc.Clone(n.inner, v)
	out, ok := n.inner.run(cpc, v)
	if ok && cpc.Valid() {
		return pc.OK(out)
	}
	return pc.OK(n.fallback)
}

// ---- brand ----

type brandNode struct {
	inner node
	tag   string
}

// Brand tags s with a nominal marker. Validation and output are unchanged;
// the tag only distinguishes otherwise identical schemas.
func Brand(s Schema, tag string) AnySchema {
	return wrap(&brandNode{inner: nodeOf(s), tag: tag})
}

func (n *brandNode) TypeName() string { return n.inner.TypeName() }

func (n *brandNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	return n.inner.run(pc, v)
}

// BrandOf returns the brand tag of s, if any.
func BrandOf(s Schema) (string, bool) {
	if b, ok := nodeOf(s).(*brandNode); ok {
		return b.tag, true
	}
	return "", false
}

// ---- lazy ----

type lazyNode struct {
	once  sync.Once
	thunk func() Schema
	inner node
}

// Lazy defers schema construction until first use, enabling self-referential
// schemas. The thunk runs at most once.
func Lazy(thunk func() Schema) AnySchema {
	return wrap(&lazyNode{thunk: thunk})
}

func (n *lazyNode) resolve() node {
	n.once.Do(func() { n.inner = nodeOf(n.thunk()) })
	return n.inner
}

func (n *lazyNode) TypeName() string { return "lazy" }

func (n *lazyNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	in := n.resolve()
	return in.run(pc.Child(in, v), v)
}

// ---- promise ----

type promiseNode struct{ inner node }

// Promise expects a *strux.Deferred and returns a new Deferred whose await
// yields the validated payload. Payload validation is always the suspended
// part: it runs on await, in async mode, never inside the surrounding parse.
func Promise(s Schema) AnySchema {
	return wrap(&promiseNode{inner: nodeOf(s)})
}

func (n *promiseNode) TypeName() string { return "promise" }

func (n *promiseNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	d, ok := v.(*strux.Deferred)
	if !ok {
		// async parses lift plain values into a resolved deferred
		if !pc.Async() {
			return failType(pc, "promise", v)
		}
		d = strux.Resolved(v)
	}
	inner := n.inner
	opt := pc.CallOpt()
	return pc.OK(strux.NewDeferred(func(ctx context.Context) (any, error) {
		payload, err := d.Await(ctx)
		if err != nil {
			epc := strux.NewParseCtx(ctx, inner, nil, true, opt)
			epc.AddIssueErr(strux.CodeCustom, err, map[string]any{"reason": "await"})
			return nil, epc.Issues()
		}
		res := execute(ctx, inner, payload, true, []strux.ParseOpt{opt})
		if !res.OK {
			return nil, res.Err
		}
		return res.Value, nil
	}))
}
