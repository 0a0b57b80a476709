package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	strux "github.com/strux-go/strux"
	g "github.com/strux-go/strux/dsl"
)

func TestPreprocess(t *testing.T) {
	ctx := context.Background()
	s := g.Preprocess(func(v any) any {
		if sv, ok := v.(string); ok {
			return strings.TrimSpace(sv)
		}
		return v
	}, g.String().Min(3))

	v, err := s.Parse(ctx, "  abc  ")
	if err != nil || v != "abc" {
		t.Fatalf("Parse = %v, %v", v, err)
	}

	// The mapper runs before validation, so checks see its output.
	iss := mustFail(t, s.SafeParse(ctx, "  a  "))
	if iss.First().Param("check") != "min" {
		t.Fatalf("params = %v", iss.First().Params)
	}

	// Fluent form wraps the receiver.
	fl := g.Number().Preprocess(func(v any) any {
		if sv, ok := v.(string); ok && sv == "one" {
			return 1
		}
		return v
	})
	if v, err := fl.Parse(ctx, "one"); err != nil || v != 1 {
		t.Fatalf("Parse = %v, %v", v, err)
	}
}

func TestPreprocessAsync(t *testing.T) {
	ctx := context.Background()
	s := g.PreprocessAsync(func(_ context.Context, v any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	}, g.String())

	v, err := s.ParseAsync(ctx, "ok")
	if err != nil || v != "OK" {
		t.Fatalf("ParseAsync = %v, %v", v, err)
	}

	failing := g.PreprocessAsync(func(context.Context, any) (any, error) {
		return nil, errors.New("lookup failed")
	}, g.String())
	iss := mustFail(t, failing.SafeParseAsync(ctx, "x"))
	it := iss.First()
	if it.Code != strux.CodeCustom || it.Param("effect") != "preprocess" {
		t.Fatalf("issue = %+v", it)
	}

	defer func() {
		if _, ok := recover().(*strux.UsageError); !ok {
			t.Fatalf("expected a *strux.UsageError panic")
		}
	}()
	s.SafeParse(ctx, "sync")
}

func TestRefine(t *testing.T) {
	ctx := context.Background()
	even := g.Number().Int().Refine(func(v any) bool {
		n, _ := strux.NumberValue(v)
		return int64(n)%2 == 0
	})

	if _, err := even.Parse(ctx, 4); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	iss := mustFail(t, even.SafeParse(ctx, 5))
	it := iss.First()
	if it.Code != strux.CodeCustom {
		t.Fatalf("code = %q", it.Code)
	}
	if it.Message != "invalid value" {
		t.Fatalf("message = %q", it.Message)
	}
}

func TestRefineOptions(t *testing.T) {
	ctx := context.Background()
	never := func(any) bool { return false }

	iss := mustFail(t, g.Refine(g.String(), never, g.RefineMessage("not allowed")).SafeParse(ctx, "x"))
	if iss.First().Message != "not allowed" {
		t.Fatalf("message = %q", iss.First().Message)
	}

	iss = mustFail(t, g.Refine(g.String(), never,
		g.RefineMessageFn(func(v any) string { return "rejected: " + v.(string) })).SafeParse(ctx, "abc"))
	if iss.First().Message != "rejected: abc" {
		t.Fatalf("message = %q", iss.First().Message)
	}

	iss = mustFail(t, g.Refine(g.String(), never,
		g.RefineParams(map[string]any{"rule": "blocklist"})).SafeParse(ctx, "x"))
	if iss.First().Param("rule") != "blocklist" {
		t.Fatalf("params = %v", iss.First().Params)
	}
}

func TestRefineAt(t *testing.T) {
	ctx := context.Background()
	form := g.Object().
		Field("password", g.String()).
		Field("confirm", g.String())
	match := g.Refine(form, func(v any) bool {
		m := v.(map[string]any)
		return m["password"] == m["confirm"]
	}, g.RefineMessage("passwords do not match"), g.RefineAt(strux.Key("confirm")))

	iss := mustFail(t, match.SafeParse(ctx, map[string]any{"password": "a", "confirm": "b"}))
	it, ok := strux.IssueAt(iss, "/confirm")
	if !ok || it.Message != "passwords do not match" {
		t.Fatalf("issue = %+v, %v", it, ok)
	}

	if res := match.SafeParse(ctx, map[string]any{"password": "a", "confirm": "a"}); !res.OK {
		t.Fatalf("matching input rejected: %v", res.Err)
	}
}

func TestRefineSkippedOnInnerFailure(t *testing.T) {
	ctx := context.Background()
	ran := false
	s := g.Refine(g.Number(), func(any) bool {
		ran = true
		return true
	})

	mustFail(t, s.SafeParse(ctx, "not a number"))
	if ran {
		t.Fatalf("predicate ran on invalid input")
	}
}

func TestRefineAsync(t *testing.T) {
	ctx := context.Background()
	taken := map[string]bool{"admin": true}
	s := g.RefineAsync(g.String(), func(_ context.Context, v any) (bool, error) {
		return !taken[v.(string)], nil
	}, g.RefineMessage("name already taken"))

	if _, err := s.ParseAsync(ctx, "alice"); err != nil {
		t.Fatalf("ParseAsync: %v", err)
	}

	iss := mustFail(t, s.SafeParseAsync(ctx, "admin"))
	if iss.First().Message != "name already taken" {
		t.Fatalf("message = %q", iss.First().Message)
	}

	erring := g.RefineAsync(g.String(), func(context.Context, any) (bool, error) {
		return false, errors.New("registry unreachable")
	})
	iss = mustFail(t, erring.SafeParseAsync(ctx, "x"))
	if iss.First().Code != strux.CodeCustom {
		t.Fatalf("code = %q", iss.First().Code)
	}

	defer func() {
		if _, ok := recover().(*strux.UsageError); !ok {
			t.Fatalf("expected a *strux.UsageError panic")
		}
	}()
	s.SafeParse(ctx, "sync")
}

func TestTransform(t *testing.T) {
	ctx := context.Background()
	s := g.String().
		Transform(func(v any) any { return strings.TrimSpace(v.(string)) }).
		Transform(func(v any) any { return strings.ToUpper(v.(string)) })

	v, err := s.Parse(ctx, "  hello  ")
	if err != nil || v != "HELLO" {
		t.Fatalf("Parse = %v, %v", v, err)
	}

	// The mapper never sees invalid input.
	ran := false
	guarded := g.Number().Transform(func(v any) any {
		ran = true
		return v
	})
	mustFail(t, guarded.SafeParse(ctx, "nope"))
	if ran {
		t.Fatalf("mapper ran on invalid input")
	}
}

func TestTransformAsync(t *testing.T) {
	ctx := context.Background()
	s := g.TransformAsync(g.String(), func(_ context.Context, v any) (any, error) {
		return len(v.(string)), nil
	})

	v, err := s.ParseAsync(ctx, "four")
	if err != nil || v != 4 {
		t.Fatalf("ParseAsync = %v, %v", v, err)
	}

	failing := g.TransformAsync(g.String(), func(context.Context, any) (any, error) {
		return nil, errors.New("enrichment failed")
	})
	iss := mustFail(t, failing.SafeParseAsync(ctx, "x"))
	it := iss.First()
	if it.Code != strux.CodeCustom || it.Param("effect") != "transform" {
		t.Fatalf("issue = %+v", it)
	}

	defer func() {
		if _, ok := recover().(*strux.UsageError); !ok {
			t.Fatalf("expected a *strux.UsageError panic")
		}
	}()
	s.SafeParse(ctx, "sync")
}
