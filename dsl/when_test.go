package dsl_test

import (
	"context"
	"strings"
	"testing"

	strux "github.com/strux-go/strux"
	g "github.com/strux-go/strux/dsl"
)

func paymentSchema() g.AnySchema {
	return g.Object().
		Field("method", g.String()).
		Field("cardNumber", g.String().Optional()).
		Check(g.When("/method", g.Eq, "card").Then(g.Require("cardNumber")))
}

func TestCheckConditionalRequire(t *testing.T) {
	ctx := context.Background()

	if res := paymentSchema().SafeParse(ctx, map[string]any{"method": "cash"}); !res.OK {
		t.Fatalf("cash rejected: %v", res.Err)
	}
	if res := paymentSchema().SafeParse(ctx, map[string]any{"method": "card", "cardNumber": "4111"}); !res.OK {
		t.Fatalf("card with number rejected: %v", res.Err)
	}

	iss := mustFail(t, paymentSchema().SafeParse(ctx, map[string]any{"method": "card"}))
	it, ok := strux.IssueAt(iss, "/cardNumber")
	if !ok || it.Code != strux.CodeRequired {
		t.Fatalf("issue = %+v, %v", it, ok)
	}
	if it.Message != "required value missing" {
		t.Fatalf("message = %q", it.Message)
	}
}

func TestCondOperators(t *testing.T) {
	ctx := context.Background()
	gate := func(c g.Cond) g.AnySchema {
		return g.Object().
			Field("n", g.Number().Optional()).
			Field("s", g.String().Optional()).
			Check(c.Then(g.Require("flag")))
	}
	holds := func(c g.Cond, in map[string]any) bool {
		return !gate(c).SafeParse(ctx, in).OK
	}

	cases := []struct {
		name string
		cond g.Cond
		in   map[string]any
		want bool
	}{
		{"eq hit", g.When("/n", g.Eq, 5), map[string]any{"n": float64(5)}, true},
		{"eq miss", g.When("/n", g.Eq, 5), map[string]any{"n": float64(4)}, false},
		{"ne", g.When("/n", g.Ne, 5), map[string]any{"n": float64(4)}, true},
		{"lt", g.When("/n", g.Lt, 5), map[string]any{"n": float64(4)}, true},
		{"le boundary", g.When("/n", g.Le, 5), map[string]any{"n": float64(5)}, true},
		{"gt boundary", g.When("/n", g.Gt, 5), map[string]any{"n": float64(5)}, false},
		{"ge", g.When("/n", g.Ge, 5), map[string]any{"n": float64(5)}, true},
		{"strings order", g.When("/s", g.Lt, "m"), map[string]any{"s": "a"}, true},
		{"missing never holds", g.When("/absent", g.Eq, 1), map[string]any{}, false},
		{"incomparable never holds", g.When("/n", g.Lt, "x"), map[string]any{"n": float64(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := holds(tc.cond, tc.in); got != tc.want {
				t.Fatalf("condition held = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCondCombinators(t *testing.T) {
	ctx := context.Background()
	both := g.WhenAll(g.When("/a", g.Eq, 1), g.When("/b", g.Eq, 2))
	either := g.WhenAny(g.When("/a", g.Eq, 1), g.When("/b", g.Eq, 2))

	s := func(c g.Cond) g.AnySchema {
		return g.Object().
			Field("a", g.Number().Optional()).
			Field("b", g.Number().Optional()).
			Check(c.Then(g.Require("x")))
	}

	if res := s(both).SafeParse(ctx, map[string]any{"a": float64(1)}); !res.OK {
		t.Fatalf("partial match should not trigger WhenAll: %v", res.Err)
	}
	mustFail(t, s(both).SafeParse(ctx, map[string]any{"a": float64(1), "b": float64(2)}))

	mustFail(t, s(either).SafeParse(ctx, map[string]any{"b": float64(2)}))
	if res := s(either).SafeParse(ctx, map[string]any{}); !res.OK {
		t.Fatalf("no match should not trigger WhenAny: %v", res.Err)
	}

	// Fluent composition mirrors the constructors.
	fluent := g.When("/a", g.Eq, 1).And(g.When("/b", g.Eq, 2))
	mustFail(t, s(fluent).SafeParse(ctx, map[string]any{"a": float64(1), "b": float64(2)}))
	fluentOr := g.When("/a", g.Eq, 1).Or(g.When("/b", g.Eq, 2))
	mustFail(t, s(fluentOr).SafeParse(ctx, map[string]any{"a": float64(1)}))
}

func TestAtLeastOne(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("items", g.Array(g.Any()).Optional()).
		Check(g.AtLeastOne("/items"))

	iss := mustFail(t, s.SafeParse(ctx, map[string]any{"items": []any{}}))
	it, ok := strux.IssueAt(iss, "/items")
	if !ok || it.Code != strux.CodeInvalidArray {
		t.Fatalf("issue = %+v, %v", it, ok)
	}
	if it.Param("check") != "min" || it.Param("got") != 0 {
		t.Fatalf("params = %v", it.Params)
	}

	if res := s.SafeParse(ctx, map[string]any{"items": []any{1}}); !res.OK {
		t.Fatalf("non-empty rejected: %v", res.Err)
	}
	// Absence is the field schema's concern, not the rule's.
	if res := s.SafeParse(ctx, map[string]any{}); !res.OK {
		t.Fatalf("missing collection rejected: %v", res.Err)
	}
}

func TestUniqueBy(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("items", g.Array(g.Object().Field("id", g.String()))).
		Check(g.UniqueBy("/items", "/id"))

	in := map[string]any{"items": []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
		map[string]any{"id": "a"},
	}}
	iss := mustFail(t, s.SafeParse(ctx, in))
	it, ok := strux.IssueAt(iss, "/items/2")
	if !ok || it.Code != strux.CodeCustom {
		t.Fatalf("issue = %+v, %v", it, ok)
	}
	if it.Param("check") != "unique" || it.Param("firstIndex") != 0 || it.Param("value") != "a" {
		t.Fatalf("params = %v", it.Params)
	}

	ok2 := map[string]any{"items": []any{
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
	}}
	if res := s.SafeParse(ctx, ok2); !res.OK {
		t.Fatalf("distinct keys rejected: %v", res.Err)
	}
}

func TestCheckObjectLevelViolation(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("from", g.Number()).
		Field("to", g.Number()).
		Check(func(m map[string]any) []g.RuleIssue {
			f, _ := strux.NumberValue(m["from"])
			to, _ := strux.NumberValue(m["to"])
			if f > to {
				return []g.RuleIssue{{Message: "range is reversed"}}
			}
			return nil
		})

	iss := mustFail(t, s.SafeParse(ctx, map[string]any{"from": float64(9), "to": float64(1)}))
	it := iss.First()
	if it.Code != strux.CodeCustom || it.Path.Pointer() != "" {
		t.Fatalf("issue = %+v", it)
	}
	if it.Message != "range is reversed" {
		t.Fatalf("message = %q", it.Message)
	}
}

func TestCheckSeesTransformedValues(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("tag", g.String().Transform(func(v any) any { return strings.ToLower(v.(string)) })).
		Check(g.When("/tag", g.Eq, "x").Then(g.Require("detail")))

	// The condition matches the transformed output, not the raw input.
	mustFail(t, s.SafeParse(ctx, map[string]any{"tag": "X"}))
	if res := s.SafeParse(ctx, map[string]any{"tag": "Y"}); !res.OK {
		t.Fatalf("non-matching tag rejected: %v", res.Err)
	}
}

func TestCheckSkippedWhenObjectInvalid(t *testing.T) {
	ctx := context.Background()
	s := g.Object().
		Field("n", g.Number()).
		Check(func(map[string]any) []g.RuleIssue {
			return []g.RuleIssue{{Message: "rule should not run"}}
		})

	iss := mustFail(t, s.SafeParse(ctx, map[string]any{"n": "not a number"}))
	if len(iss) != 1 || iss.First().Code != strux.CodeInvalidType {
		t.Fatalf("issues = %v", iss)
	}
}
