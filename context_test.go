package strux_test

import (
	"context"
	"testing"

	strux "github.com/strux-go/strux"
)

type infoStub string

func (s infoStub) TypeName() string { return string(s) }

func TestParseCtxRecordsThroughAncestors(t *testing.T) {
	root := strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, strux.ParseOpt{})
	child := root.Child(infoStub("string"), "x", strux.Key("name"))
	child.AddIssue(strux.CodeInvalidType, map[string]any{"expected": "string", "received": "number"})

	if root.Valid() {
		t.Fatalf("root stayed valid after child issue")
	}
	iss := root.Issues()
	if len(iss) != 1 {
		t.Fatalf("root issues = %d", len(iss))
	}
	it := iss[0]
	if it.Pointer != "/name" || it.TypeName != "string" {
		t.Fatalf("issue = %+v", it)
	}
	if it.Message != "expected string, received number" {
		t.Fatalf("message = %q", it.Message)
	}
	if it.ID == "" || it.Timestamp.IsZero() {
		t.Fatalf("identity fields not minted: %+v", it)
	}
}

func TestParseCtxCloneIsDetached(t *testing.T) {
	root := strux.NewParseCtx(context.Background(), infoStub("union"), nil, false, strux.ParseOpt{})
	clone := root.Clone(infoStub("string"), "x")
	clone.AddIssue(strux.CodeInvalidType, nil)

	if clone.Valid() {
		t.Fatalf("clone should be invalid")
	}
	if root.Invalid() || len(root.Issues()) != 0 {
		t.Fatalf("clone issue leaked into the root: %v", root.Issues())
	}

	// surfacing is explicit, via AddRaw
	root.AddRaw(clone.Issues()...)
	if root.Valid() || len(root.Issues()) != 1 {
		t.Fatalf("AddRaw did not propagate: %v", root.Issues())
	}
}

func TestParseCtxAbortEarlySuppresses(t *testing.T) {
	opt := strux.ParseOpt{AbortEarly: strux.Bool(true)}
	root := strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, opt)
	root.Child(infoStub("string"), nil, strux.Key("a")).AddIssue(strux.CodeRequired, nil)
	root.Child(infoStub("string"), nil, strux.Key("b")).AddIssue(strux.CodeRequired, nil)

	if got := len(root.Issues()); got != 1 {
		t.Fatalf("abort-early recorded %d issues", got)
	}
	if !root.ShouldAbort() {
		t.Fatalf("ShouldAbort = false after failure")
	}
}

func TestParseCtxMessageLayers(t *testing.T) {
	reg := strux.NewRegistry()
	reg.SetErrorMap(strux.MapByCode(map[string]any{
		strux.CodeRequired: "registry says required",
	}))

	// registry layer overrides the catalog
	root := strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, strux.ParseOpt{Registry: reg})
	root.AddIssue(strux.CodeRequired, nil)
	if got := root.Issues().First().Message; got != "registry says required" {
		t.Fatalf("registry layer message = %q", got)
	}

	// the call-site map sees the registry result as its default and wins
	callMap := func(it strux.Issue, ctx strux.ErrorMapCtx) string {
		if ctx.Default != "registry says required" {
			t.Fatalf("call map default = %q", ctx.Default)
		}
		return "call says required"
	}
	root = strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, strux.ParseOpt{Registry: reg, ErrorMap: callMap})
	root.AddIssue(strux.CodeRequired, nil)
	if got := root.Issues().First().Message; got != "call says required" {
		t.Fatalf("call layer message = %q", got)
	}

	// a payload message outranks every map
	root = strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, strux.ParseOpt{Registry: reg, ErrorMap: callMap})
	root.AddIssueMsg(strux.CodeRequired, "payload wins", nil)
	if got := root.Issues().First().Message; got != "payload wins" {
		t.Fatalf("payload message = %q", got)
	}

	// returning "" defers to the layer below
	root = strux.NewParseCtx(context.Background(), infoStub("object"), nil, false, strux.ParseOpt{
		Registry: reg,
		ErrorMap: func(strux.Issue, strux.ErrorMapCtx) string { return "" },
	})
	root.AddIssue(strux.CodeRequired, nil)
	if got := root.Issues().First().Message; got != "registry says required" {
		t.Fatalf("deferring map message = %q", got)
	}
}

func TestMergeParseOpts(t *testing.T) {
	reg := strux.NewRegistry()
	m1 := strux.MapByCode(map[string]any{"custom": "one"})
	m2 := strux.MapByCode(map[string]any{"custom": "two"})
	got := strux.MergeParseOpts(
		strux.ParseOpt{AbortEarly: strux.Bool(false), ErrorMap: m1},
		strux.ParseOpt{AbortEarly: strux.Bool(true)},
		strux.ParseOpt{ErrorMap: m2, Registry: reg},
	)
	if got.AbortEarly == nil || !*got.AbortEarly {
		t.Fatalf("AbortEarly = %v", got.AbortEarly)
	}
	if got.Registry != reg {
		t.Fatalf("Registry not carried")
	}
	if msg := got.ErrorMap(strux.Issue{Code: "custom"}, strux.ErrorMapCtx{}); msg != "two" {
		t.Fatalf("later ErrorMap should win, got %q", msg)
	}
}

func TestMapByCodeTable(t *testing.T) {
	m := strux.MapByCode(map[string]any{
		strux.CodeRequired: "missing!",
		strux.DefaultMapKey: func(it strux.Issue, ctx strux.ErrorMapCtx) string {
			return "fallback for " + it.Code
		},
	})
	if got := m(strux.Issue{Code: strux.CodeRequired}, strux.ErrorMapCtx{}); got != "missing!" {
		t.Fatalf("entry = %q", got)
	}
	if got := m(strux.Issue{Code: strux.CodeCustom}, strux.ErrorMapCtx{}); got != "fallback for custom" {
		t.Fatalf("default entry = %q", got)
	}
	empty := strux.MapByCode(map[string]any{})
	if got := empty(strux.Issue{Code: "x"}, strux.ErrorMapCtx{}); got != "" {
		t.Fatalf("empty table = %q", got)
	}
}
