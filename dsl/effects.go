package dsl

import (
	"context"

	strux "github.com/strux-go/strux"
)

// ---- preprocess ----

type preprocessNode struct {
	inner   node
	fn      func(v any) any
	asyncFn func(ctx context.Context, v any) (any, error)
}

// Preprocess maps the raw input through fn before s sees it. Coercion
// helpers and input massaging live here.
func Preprocess(fn func(v any) any, s Schema) AnySchema {
	return wrap(&preprocessNode{inner: nodeOf(s), fn: fn})
}

// PreprocessAsync is Preprocess with a suspending mapper. Running it through
// a sync parse is API misuse and panics with *strux.UsageError.
func PreprocessAsync(fn func(ctx context.Context, v any) (any, error), s Schema) AnySchema {
	return wrap(&preprocessNode{inner: nodeOf(s), asyncFn: fn})
}

func (n *preprocessNode) TypeName() string { return "preprocess" }

func (n *preprocessNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if n.asyncFn != nil {
		if !pc.Async() {
			panic(strux.NewUsageError("Preprocess", "async preprocess requires ParseAsync; use PreprocessAsync only with async parsing"))
		}
		nv, err := n.asyncFn(pc.Context(), v)
		if err != nil {
			pc.AddIssueErr(strux.CodeCustom, err, map[string]any{"effect": "preprocess"})
			return pc.Abort()
		}
		v = nv
	} else if n.fn != nil {
		v = n.fn(v)
	}
	return n.inner.run(pc.Child(n.inner, v), v)
}

// ---- refine ----

type refineNode struct {
	inner     node
	pred      func(v any) bool
	asyncPred func(ctx context.Context, v any) (bool, error)
	msg       string
	msgFn     func(v any) string
	params    map[string]any
	at        []strux.PathSeg
}

// RefineOpt customizes the issue a failing refinement records.
type RefineOpt func(*refineNode)

// RefineMessage sets a fixed payload message for the refinement issue.
func RefineMessage(msg string) RefineOpt {
	return func(n *refineNode) { n.msg = msg }
}

// RefineMessageFn derives the payload message from the offending value.
func RefineMessageFn(fn func(v any) string) RefineOpt {
	return func(n *refineNode) { n.msgFn = fn }
}

// RefineParams attaches structured parameters to the refinement issue.
func RefineParams(params map[string]any) RefineOpt {
	return func(n *refineNode) { n.params = params }
}

// RefineAt records the refinement issue at a sub-path instead of the
// schema's own path, for cross-field rules that blame one field.
func RefineAt(segs ...strux.PathSeg) RefineOpt {
	return func(n *refineNode) { n.at = segs }
}

// Refine runs pred over the validated output of s; a false result records a
// custom issue. The predicate never runs when s itself failed.
func Refine(s Schema, pred func(v any) bool, opts ...RefineOpt) AnySchema {
	n := &refineNode{inner: nodeOf(s), pred: pred}
	for _, o := range opts {
		o(n)
	}
	return wrap(n)
}

// RefineAsync is Refine with a suspending predicate. Running it through a
// sync parse is API misuse and panics with *strux.UsageError.
func RefineAsync(s Schema, pred func(ctx context.Context, v any) (bool, error), opts ...RefineOpt) AnySchema {
	n := &refineNode{inner: nodeOf(s), asyncPred: pred}
	for _, o := range opts {
		o(n)
	}
	return wrap(n)
}

func (n *refineNode) TypeName() string { return n.inner.TypeName() }

func (n *refineNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	out, ok := n.inner.run(pc.Child(n.inner, v), v)
	if !ok || pc.Invalid() {
		return pc.Abort()
	}
	ipc := pc
	if len(n.at) > 0 {
		ipc = pc.Child(n, out, n.at...)
	}
	if n.asyncPred != nil {
		if !pc.Async() {
			panic(strux.NewUsageError("Refine", "async refinement requires ParseAsync; use RefineAsync only with async parsing"))
		}
		hold, err := n.asyncPred(pc.Context(), out)
		if err != nil {
			ipc.AddIssueErr(strux.CodeCustom, err, n.params)
			return pc.Abort()
		}
		if !hold {
			n.fail(ipc, out)
			return pc.Abort()
		}
		return pc.OK(out)
	}
	if n.pred != nil && !n.pred(out) {
		n.fail(ipc, out)
		return pc.Abort()
	}
	return pc.OK(out)
}

func (n *refineNode) fail(pc *strux.ParseCtx, v any) {
	msg := n.msg
	if n.msgFn != nil {
		msg = n.msgFn(v)
	}
	if msg != "" {
		pc.AddIssueMsg(strux.CodeCustom, msg, n.params)
		return
	}
	pc.AddIssue(strux.CodeCustom, n.params)
}

// ---- transform ----

type transformNode struct {
	inner   node
	fn      func(v any) any
	asyncFn func(ctx context.Context, v any) (any, error)
}

// Transform maps the validated output of s through fn. The mapper never runs
// when s failed, so it can rely on its input shape.
func Transform(s Schema, fn func(v any) any) AnySchema {
	return wrap(&transformNode{inner: nodeOf(s), fn: fn})
}

// TransformAsync is Transform with a suspending mapper. Running it through a
// sync parse is API misuse and panics with *strux.UsageError.
func TransformAsync(s Schema, fn func(ctx context.Context, v any) (any, error)) AnySchema {
	return wrap(&transformNode{inner: nodeOf(s), asyncFn: fn})
}

func (n *transformNode) TypeName() string { return "transform" }

func (n *transformNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	out, ok := n.inner.run(pc.Child(n.inner, v), v)
	if !ok || pc.Invalid() {
		return pc.Abort()
	}
	if n.asyncFn != nil {
		if !pc.Async() {
			panic(strux.NewUsageError("Transform", "async transform requires ParseAsync; use TransformAsync only with async parsing"))
		}
		nv, err := n.asyncFn(pc.Context(), out)
		if err != nil {
			pc.AddIssueErr(strux.CodeCustom, err, map[string]any{"effect": "transform"})
			return pc.Abort()
		}
		return pc.OK(nv)
	}
	return pc.OK(n.fn(out))
}
