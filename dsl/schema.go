package dsl

import (
	"context"
	"reflect"

	strux "github.com/strux-go/strux"
)

// node is a single traversal step of the parse engine. The unexported method
// keeps the variant set closed to this package.
type node interface {
	strux.SchemaInfo
	run(pc *strux.ParseCtx, v any) (any, bool)
}

// Schema is the public handle every builder satisfies. It is implemented by
// embedding AnySchema; external packages cannot add variants.
type Schema interface {
	strux.SchemaInfo
	// Parse validates data and returns the output value, or strux.Issues.
	Parse(ctx context.Context, data any, opts ...strux.ParseOpt) (any, error)
	// MustParse is Parse but panics with strux.Issues on failure.
	MustParse(ctx context.Context, data any, opts ...strux.ParseOpt) any
	// SafeParse never returns an error for data problems; inspect Result.
	SafeParse(ctx context.Context, data any, opts ...strux.ParseOpt) strux.Result
	// ParseAsync is Parse in may-suspend mode: async effects and promise
	// awaits are allowed, union and intersection members may run
	// concurrently.
	ParseAsync(ctx context.Context, data any, opts ...strux.ParseOpt) (any, error)
	// SafeParseAsync is SafeParse in may-suspend mode.
	SafeParseAsync(ctx context.Context, data any, opts ...strux.ParseOpt) strux.Result

	base() AnySchema
}

// AnySchema is the type-erased schema handle. Every builder embeds it, so
// the generic combinators below are available on all of them.
type AnySchema struct {
	n node
}

func wrap(n node) AnySchema { return AnySchema{n: n} }

// nodeOf extracts the traversal node behind any Schema handle.
func nodeOf(s Schema) node { return s.base().n }

func nodesOf(ss []Schema) []node {
	out := make([]node, len(ss))
	for i, s := range ss {
		out[i] = nodeOf(s)
	}
	return out
}

func (s AnySchema) base() AnySchema { return s }

// TypeName names the schema variant, e.g. "string" or "object".
func (s AnySchema) TypeName() string { return s.n.TypeName() }

// Parse validates data and returns the output value, or strux.Issues.
func (s AnySchema) Parse(ctx context.Context, data any, opts ...strux.ParseOpt) (any, error) {
	return s.SafeParse(ctx, data, opts...).Unwrap()
}

// MustParse is Parse but panics with strux.Issues on failure.
func (s AnySchema) MustParse(ctx context.Context, data any, opts ...strux.ParseOpt) any {
	v, err := s.Parse(ctx, data, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// SafeParse validates data without ever returning an error for data
// problems; the Result carries either the value or the issues.
func (s AnySchema) SafeParse(ctx context.Context, data any, opts ...strux.ParseOpt) strux.Result {
	return execute(ctx, s.n, data, false, opts)
}

// ParseAsync validates data in may-suspend mode.
func (s AnySchema) ParseAsync(ctx context.Context, data any, opts ...strux.ParseOpt) (any, error) {
	return s.SafeParseAsync(ctx, data, opts...).Unwrap()
}

// SafeParseAsync is SafeParse in may-suspend mode.
func (s AnySchema) SafeParseAsync(ctx context.Context, data any, opts ...strux.ParseOpt) strux.Result {
	return execute(ctx, s.n, data, true, opts)
}

func execute(ctx context.Context, n node, data any, async bool, opts []strux.ParseOpt) strux.Result {
	pc := strux.NewParseCtx(ctx, n, data, async, strux.MergeParseOpts(opts...))
	v, ok := n.run(pc, data)
	if !ok || pc.Invalid() {
		iss := pc.Issues()
		if len(iss) == 0 {
			// a node aborted without recording; surface something rather
			// than an empty error
			pc.AddIssue(strux.CodeCustom, nil)
			iss = pc.Issues()
		}
		return strux.Result{Err: iss}
	}
	return strux.Result{OK: true, Value: v}
}

// ---- package-level parse entry points ----

// Parse validates data against s. See Schema.Parse.
func Parse(ctx context.Context, s Schema, data any, opts ...strux.ParseOpt) (any, error) {
	return s.Parse(ctx, data, opts...)
}

// MustParse validates data against s, panicking with strux.Issues on failure.
func MustParse(ctx context.Context, s Schema, data any, opts ...strux.ParseOpt) any {
	return s.MustParse(ctx, data, opts...)
}

// SafeParse validates data against s. See Schema.SafeParse.
func SafeParse(ctx context.Context, s Schema, data any, opts ...strux.ParseOpt) strux.Result {
	return s.SafeParse(ctx, data, opts...)
}

// ParseAsync validates data against s in may-suspend mode.
func ParseAsync(ctx context.Context, s Schema, data any, opts ...strux.ParseOpt) (any, error) {
	return s.ParseAsync(ctx, data, opts...)
}

// SafeParseAsync validates data against s in may-suspend mode.
func SafeParseAsync(ctx context.Context, s Schema, data any, opts ...strux.ParseOpt) strux.Result {
	return s.SafeParseAsync(ctx, data, opts...)
}

// ---- generic fluent combinators ----

// Optional accepts the absent value: Undefined passes through untouched.
func (s AnySchema) Optional() AnySchema { return Optional(s) }

// Nullable accepts null: nil passes through untouched.
func (s AnySchema) Nullable() AnySchema { return Nullable(s) }

// Nullish accepts both the absent value and null.
func (s AnySchema) Nullish() AnySchema { return Optional(Nullable(s)) }

// Default substitutes v for absent input before validating.
func (s AnySchema) Default(v any) AnySchema { return Default(s, v) }

// DefaultFunc substitutes fn() for absent input before validating.
func (s AnySchema) DefaultFunc(fn func() any) AnySchema { return DefaultFunc(s, fn) }

// Catch replaces any validation failure with the fallback value.
func (s AnySchema) Catch(fallback any) AnySchema { return Catch(s, fallback) }

// Brand tags the schema with a nominal marker; validation is unchanged.
func (s AnySchema) Brand(tag string) AnySchema { return Brand(s, tag) }

// Promise expects a deferred value and validates its payload on await.
func (s AnySchema) Promise() AnySchema { return Promise(s) }

// Array builds an array-of-this schema.
func (s AnySchema) Array() ArraySchema { return Array(s) }

// Or unions this schema with the given members, in order.
func (s AnySchema) Or(members ...Schema) UnionSchema {
	return Union(append([]Schema{s}, members...)...)
}

// And intersects this schema with the given members, in order.
func (s AnySchema) And(members ...Schema) IntersectionSchema {
	return Intersection(append([]Schema{s}, members...)...)
}

// Refine runs pred over the validated output; a false result records a
// custom issue.
func (s AnySchema) Refine(pred func(v any) bool, opts ...RefineOpt) AnySchema {
	return Refine(s, pred, opts...)
}

// RefineAsync is Refine with a suspending predicate; it requires an async
// parse.
func (s AnySchema) RefineAsync(pred func(ctx context.Context, v any) (bool, error), opts ...RefineOpt) AnySchema {
	return RefineAsync(s, pred, opts...)
}

// Transform maps the validated output through fn.
func (s AnySchema) Transform(fn func(v any) any) AnySchema { return Transform(s, fn) }

// TransformAsync is Transform with a suspending mapper; it requires an async
// parse.
func (s AnySchema) TransformAsync(fn func(ctx context.Context, v any) (any, error)) AnySchema {
	return TransformAsync(s, fn)
}

// Preprocess maps the raw input through fn before this schema sees it.
func (s AnySchema) Preprocess(fn func(v any) any) AnySchema { return Preprocess(fn, s) }

// PreprocessAsync is Preprocess with a suspending mapper; it requires an
// async parse.
func (s AnySchema) PreprocessAsync(fn func(ctx context.Context, v any) (any, error)) AnySchema {
	return PreprocessAsync(fn, s)
}

// WithErrorMap attaches a schema-level error map consulted for issues this
// schema raises, below the call-site map and above the registry map.
func (s AnySchema) WithErrorMap(m strux.ErrorMap) AnySchema {
	return wrap(withOptions(s.n, m, nil))
}

// WithAbortEarly overrides the abort-early switch for issues this schema
// raises.
func (s AnySchema) WithAbortEarly(v bool) AnySchema {
	return wrap(withOptions(s.n, nil, &v))
}

// optionsNode attaches per-schema overrides without touching the wrapped
// node. It runs the inner node on the same context so issues raised directly
// by the inner node resolve against these overrides; nested schemas keep
// their own.
type optionsNode struct {
	inner      node
	errMap     strux.ErrorMap
	abortEarly *bool
}

func withOptions(n node, m strux.ErrorMap, ae *bool) node {
	if on, ok := n.(*optionsNode); ok {
		merged := &optionsNode{inner: on.inner, errMap: on.errMap, abortEarly: on.abortEarly}
		if m != nil {
			merged.errMap = m
		}
		if ae != nil {
			merged.abortEarly = ae
		}
		return merged
	}
	return &optionsNode{inner: n, errMap: m, abortEarly: ae}
}

func (n *optionsNode) TypeName() string               { return n.inner.TypeName() }
func (n *optionsNode) SchemaErrorMap() strux.ErrorMap { return n.errMap }
func (n *optionsNode) SchemaAbortEarly() *bool        { return n.abortEarly }

func (n *optionsNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	return n.inner.run(pc, v)
}

// ---- shared issue helpers ----

// valueEqual compares two dynamic values, treating all numeric kinds as one
// domain so 2 matches 2.0 and json.Number("2").
func valueEqual(a, b any) bool {
	if na, ok := strux.NumberValue(a); ok {
		if nb, ok := strux.NumberValue(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// failType records the canonical wrong-kind issue: Required when the value
// is absent, InvalidType otherwise.
func failType(pc *strux.ParseCtx, expected string, v any) (any, bool) {
	if strux.IsUndefined(v) {
		pc.AddIssue(strux.CodeRequired, map[string]any{"expected": expected})
		return pc.Abort()
	}
	pc.AddIssue(strux.CodeInvalidType, map[string]any{
		"expected": expected,
		"received": string(strux.KindOf(v)),
	})
	return pc.Abort()
}
