package dsl_test

import (
	"context"
	"errors"
	"testing"

	strux "github.com/strux-go/strux"
	g "github.com/strux-go/strux/dsl"
)

func TestFunctionParse(t *testing.T) {
	ctx := context.Background()
	s := g.Function()

	impl := strux.Fn(func(args []any) any { return len(args) })
	v, err := s.Parse(ctx, impl)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fn, ok := v.(strux.Fn); !ok || fn([]any{1, 2}) != 2 {
		t.Fatalf("output = %T", v)
	}

	// Raw funcs of the right shape are lifted to strux.Fn.
	v, err = s.Parse(ctx, func(args []any) any { return "called" })
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := v.(strux.Fn); !ok {
		t.Fatalf("output = %T, want strux.Fn", v)
	}

	iss := mustFail(t, s.SafeParse(ctx, "not callable"))
	if it := iss.First(); it.Code != strux.CodeInvalidType || it.Param("expected") != "function" {
		t.Fatalf("issue = %+v", it)
	}
}

func TestFunctionImplement(t *testing.T) {
	add := g.Function().
		Args(g.Number(), g.Number()).
		Returns(g.Number()).
		Implement(func(args []any) any {
			a, _ := strux.NumberValue(args[0])
			b, _ := strux.NumberValue(args[1])
			return a + b
		})

	v, err := add(1, 2)
	if err != nil || v != float64(3) {
		t.Fatalf("call = %v, %v", v, err)
	}

	_, err = add("x", 2)
	iss, ok := strux.AsIssues(err)
	if !ok || iss.First().Code != strux.CodeInvalidArguments {
		t.Fatalf("err = %v", err)
	}
	sub, ok := iss.First().Param("argumentsError").(strux.Issues)
	if !ok {
		t.Fatalf("params = %v", iss.First().Params)
	}
	if it, found := strux.IssueAt(sub, "/0"); !found || it.Code != strux.CodeInvalidType {
		t.Fatalf("argument issue = %+v, %v", it, found)
	}
	// The tree projection reaches through the carrier.
	if iss.Format().AtIndex(0) == nil {
		t.Fatalf("Format did not unpack the arguments issue")
	}

	_, err = add(1)
	iss, _ = strux.AsIssues(err)
	sub = iss.First().Param("argumentsError").(strux.Issues)
	if sub.First().Code != strux.CodeInvalidTuple {
		t.Fatalf("arity issue = %+v", sub.First())
	}
}

func TestFunctionReturnValidation(t *testing.T) {
	broken := g.Function().
		Returns(g.Number()).
		Implement(func(args []any) any { return "oops" })

	_, err := broken()
	iss, ok := strux.AsIssues(err)
	if !ok || iss.First().Code != strux.CodeInvalidReturnType {
		t.Fatalf("err = %v", err)
	}
	sub := iss.First().Param("returnTypeError").(strux.Issues)
	if sub.First().Code != strux.CodeInvalidType || sub.First().Param("expected") != "number" {
		t.Fatalf("return issue = %+v", sub.First())
	}
}

func TestFunctionArgumentOutputsFlow(t *testing.T) {
	// Implementations receive validated output, so coercions apply.
	var got []any
	record := g.Function().
		Args(g.Boolean().Coerce()).
		Implement(func(args []any) any {
			got = append([]any(nil), args...)
			return nil
		})

	if _, err := record("yes"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(got) != 1 || got[0] != true {
		t.Fatalf("implementation saw %v", got)
	}
}

func TestFunctionVariadic(t *testing.T) {
	join := g.Function().
		Args(g.String()).
		Variadic(g.Number()).
		Implement(func(args []any) any { return len(args) })

	v, err := join("tag", 1, 2, 3)
	if err != nil || v != 4 {
		t.Fatalf("call = %v, %v", v, err)
	}

	_, err = join("tag", "not a number")
	iss, _ := strux.AsIssues(err)
	sub := iss.First().Param("argumentsError").(strux.Issues)
	if it, found := strux.IssueAt(sub, "/1"); !found || it.Code != strux.CodeInvalidType {
		t.Fatalf("variadic issue = %+v, %v", it, found)
	}
}

func TestFunctionImplementAsync(t *testing.T) {
	ctx := context.Background()
	fetch := g.Function().
		Args(g.String().UUID()).
		Returns(g.Object().Field("id", g.String())).
		ImplementAsync(func(_ context.Context, args []any) (any, error) {
			return map[string]any{"id": args[0].(string)}, nil
		})

	v, err := fetch(ctx, "8f14e45f-ceea-467f-abcd-0123456789ab")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.(map[string]any)["id"] != "8f14e45f-ceea-467f-abcd-0123456789ab" {
		t.Fatalf("result = %v", v)
	}

	if _, err := fetch(ctx, "not-a-uuid"); err == nil {
		t.Fatalf("invalid argument accepted")
	}

	// Implementation errors pass through untouched.
	sentinel := errors.New("backend offline")
	failing := g.Function().ImplementAsync(func(context.Context, []any) (any, error) {
		return nil, sentinel
	})
	if _, err := failing(ctx); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}
}
