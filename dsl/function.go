package dsl

import (
	"context"

	strux "github.com/strux-go/strux"
)

type functionNode struct {
	args *tupleNode // nil leaves arguments unconstrained
	ret  node       // nil leaves the return value unconstrained
}

func (n *functionNode) TypeName() string { return "function" }

func (n *functionNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	switch fn := v.(type) {
	case strux.Fn:
		return pc.OK(fn)
	case func([]any) any:
		return pc.OK(strux.Fn(fn))
	}
	return failType(pc, "function", v)
}

// callIssue wraps the issues of one side of a call boundary in a single
// carrier issue, which Format and Flatten unpack again.
func callIssue(code, key string, sub strux.Issues, schema strux.SchemaInfo, data any) strux.Issues {
	pc := strux.NewParseCtx(context.Background(), schema, data, false, strux.ParseOpt{})
	pc.AddIssue(code, map[string]any{key: sub})
	return pc.Issues()
}

// FunctionSchema validates callable values and builds wrappers that check
// arguments and return values at call time.
type FunctionSchema struct {
	AnySchema
	fn *functionNode
}

// Function builds a function schema. Parsing only checks that the input is
// a strux.Fn; argument and return validation happen through Implement.
func Function() FunctionSchema {
	n := &functionNode{}
	return FunctionSchema{AnySchema: wrap(n), fn: n}
}

// Args constrains call arguments as a positional tuple.
func (s FunctionSchema) Args(items ...Schema) FunctionSchema {
	n := &functionNode{args: &tupleNode{items: nodesOf(items)}, ret: s.fn.ret}
	return FunctionSchema{AnySchema: wrap(n), fn: n}
}

// Variadic accepts arguments beyond the fixed positions, each validated
// against r.
func (s FunctionSchema) Variadic(r Schema) FunctionSchema {
	var items []node
	if s.fn.args != nil {
		items = s.fn.args.items
	}
	n := &functionNode{args: &tupleNode{items: items, rest: nodeOf(r)}, ret: s.fn.ret}
	return FunctionSchema{AnySchema: wrap(n), fn: n}
}

// Returns constrains the return value.
func (s FunctionSchema) Returns(r Schema) FunctionSchema {
	n := &functionNode{args: s.fn.args, ret: nodeOf(r)}
	return FunctionSchema{AnySchema: wrap(n), fn: n}
}

// Implement wraps fn so every call validates its arguments first and its
// return value after. Argument failures surface as one invalid_arguments
// issue carrying the positional issues; return failures as one
// invalid_return_type issue.
func (s FunctionSchema) Implement(fn strux.Fn, opts ...strux.ParseOpt) func(args ...any) (any, error) {
	n := s.fn
	return func(args ...any) (any, error) {
		in := append([]any(nil), args...)
		if n.args != nil {
			res := execute(context.Background(), n.args, in, false, opts)
			if !res.OK {
				return nil, callIssue(strux.CodeInvalidArguments, "argumentsError", res.Err, n, in)
			}
			in = res.Value.([]any)
		}
		out := fn(in)
		if n.ret != nil {
			res := execute(context.Background(), n.ret, out, false, opts)
			if !res.OK {
				return nil, callIssue(strux.CodeInvalidReturnType, "returnTypeError", res.Err, n, out)
			}
			out = res.Value
		}
		return out, nil
	}
}

// ImplementAsync is Implement for suspending implementations: validation
// runs in async mode and fn receives the caller's context.
func (s FunctionSchema) ImplementAsync(fn func(ctx context.Context, args []any) (any, error), opts ...strux.ParseOpt) func(ctx context.Context, args ...any) (any, error) {
	n := s.fn
	return func(ctx context.Context, args ...any) (any, error) {
		in := append([]any(nil), args...)
		if n.args != nil {
			res := execute(ctx, n.args, in, true, opts)
			if !res.OK {
				return nil, callIssue(strux.CodeInvalidArguments, "argumentsError", res.Err, n, in)
			}
			in = res.Value.([]any)
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		if n.ret != nil {
			res := execute(ctx, n.ret, out, true, opts)
			if !res.OK {
				return nil, callIssue(strux.CodeInvalidReturnType, "returnTypeError", res.Err, n, out)
			}
			out = res.Value
		}
		return out, nil
	}
}
