package dsl_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	strux "github.com/strux-go/strux"
	g "github.com/strux-go/strux/dsl"
)

func userSchema() g.ObjectSchema {
	return g.Object().
		Field("name", g.String().Min(1)).
		Field("age", g.Number().Int().Min(0))
}

func TestObjectParse(t *testing.T) {
	ctx := context.Background()
	s := userSchema()

	v, err := s.Parse(ctx, map[string]any{"name": "ada", "age": float64(36)})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]any{"name": "ada", "age": float64(36)}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}

	iss := mustFail(t, s.SafeParse(ctx, "not an object"))
	if iss.First().Code != strux.CodeInvalidType {
		t.Fatalf("code = %q", iss.First().Code)
	}
}

func TestObjectMissingAndInvalidFields(t *testing.T) {
	ctx := context.Background()
	s := userSchema()

	iss := mustFail(t, s.SafeParse(ctx, map[string]any{"age": "x"}))
	if len(iss) != 2 {
		t.Fatalf("issues = %d, want 2: %v", len(iss), iss)
	}
	if it, ok := strux.IssueAt(iss, "/name"); !ok || it.Code != strux.CodeRequired {
		t.Fatalf("name issue = %+v", it)
	}
	if it, ok := strux.IssueAt(iss, "/age"); !ok || it.Code != strux.CodeInvalidType {
		t.Fatalf("age issue = %+v", it)
	}
}

func TestObjectAbortEarly(t *testing.T) {
	ctx := context.Background()
	iss := mustFail(t, userSchema().SafeParse(ctx, map[string]any{}, strux.ParseOpt{AbortEarly: strux.Bool(true)}))
	if len(iss) != 1 {
		t.Fatalf("abort-early issues = %d", len(iss))
	}
}

func TestObjectUnknownPolicies(t *testing.T) {
	ctx := context.Background()
	base := g.Object().Field("a", g.String())
	in := map[string]any{"a": "x", "zz": 1, "mm": 2}

	// strip is the default
	v, err := base.Parse(ctx, in)
	if err != nil {
		t.Fatalf("strip Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "x"}, v); diff != "" {
		t.Fatalf("strip output (-want +got):\n%s", diff)
	}

	v, err = base.Passthrough().Parse(ctx, in)
	if err != nil {
		t.Fatalf("passthrough Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "x", "zz": float64(1), "mm": float64(2)}, normalizeNums(v)); diff != "" {
		t.Fatalf("passthrough output (-want +got):\n%s", diff)
	}

	iss := mustFail(t, base.Strict().SafeParse(ctx, in))
	if len(iss) != 1 {
		t.Fatalf("strict issues = %d", len(iss))
	}
	it := iss.First()
	if it.Code != strux.CodeUnrecognizedKeys {
		t.Fatalf("code = %q", it.Code)
	}
	// extras are reported once, sorted
	if diff := cmp.Diff([]string{"mm", "zz"}, it.Param("keys")); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
}

// normalizeNums widens ints in test fixtures so cmp fixtures stay uniform.
func normalizeNums(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNums(e)
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalizeNums(t[i])
		}
		return t
	case int:
		return float64(t)
	}
	return v
}

func TestObjectCatchall(t *testing.T) {
	ctx := context.Background()
	s := g.Object().Field("a", g.String()).Catchall(g.Number())

	v, err := s.Parse(ctx, map[string]any{"a": "x", "extra": float64(5)})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "x", "extra": float64(5)}, v); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}

	iss := mustFail(t, s.SafeParse(ctx, map[string]any{"a": "x", "extra": "not a number"}))
	if it, ok := strux.IssueAt(iss, "/extra"); !ok || it.Code != strux.CodeInvalidType {
		t.Fatalf("extra issue = %+v", it)
	}

	// a later policy setter clears the catchall
	if res := s.Strip().SafeParse(ctx, map[string]any{"a": "x", "extra": "anything"}); !res.OK {
		t.Fatalf("strip after catchall: %v", res.Err)
	}
}

func TestObjectFieldReplacementKeepsPosition(t *testing.T) {
	s := g.Object().
		Field("a", g.String()).
		Field("b", g.String()).
		Field("a", g.Number())
	entries := s.Entries()
	if len(entries) != 2 || entries[0].Name != "a" || entries[1].Name != "b" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Schema.TypeName() != "number" {
		t.Fatalf("replaced schema = %q", entries[0].Schema.TypeName())
	}
}

func TestObjectAugmentAndMerge(t *testing.T) {
	ctx := context.Background()
	base := g.Object().Field("id", g.String()).Field("n", g.Number())

	aug := base.Augment(map[string]g.Schema{
		"zz": g.Boolean(),
		"aa": g.String(),
		"n":  g.String(), // overwrite keeps position
	})
	names := fieldNames(aug)
	if diff := cmp.Diff([]string{"id", "n", "aa", "zz"}, names); diff != "" {
		t.Fatalf("augment order (-want +got):\n%s", diff)
	}
	if res := aug.SafeParse(ctx, map[string]any{"id": "1", "n": "now a string", "aa": "x", "zz": true}); !res.OK {
		t.Fatalf("augmented parse: %v", res.Err)
	}

	other := g.Object().Field("n", g.Boolean()).Field("extra", g.String()).Strict()
	merged := base.Merge(other)
	if diff := cmp.Diff([]string{"id", "n", "extra"}, fieldNames(merged)); diff != "" {
		t.Fatalf("merge order (-want +got):\n%s", diff)
	}
	// other's schema and policy win
	if res := merged.SafeParse(ctx, map[string]any{"id": "1", "n": true, "extra": "e"}); !res.OK {
		t.Fatalf("merged parse: %v", res.Err)
	}
	if res := merged.SafeParse(ctx, map[string]any{"id": "1", "n": true, "extra": "e", "zz": 1}); res.OK {
		t.Fatalf("merged object kept the lenient policy")
	}
}

func fieldNames(s g.ObjectSchema) []string {
	entries := s.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestObjectPickOmitDiff(t *testing.T) {
	base := g.Object().
		Field("a", g.String()).
		Field("b", g.Number()).
		Field("c", g.Boolean())

	if diff := cmp.Diff([]string{"a", "c"}, fieldNames(base.Pick("c", "a", "nope"))); diff != "" {
		t.Fatalf("pick (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, fieldNames(base.Omit("a", "c", "nope"))); diff != "" {
		t.Fatalf("omit (-want +got):\n%s", diff)
	}

	other := g.Object().
		Field("b", g.String()).
		Field("d", g.String())
	if diff := cmp.Diff([]string{"a", "c", "d"}, fieldNames(base.Diff(other))); diff != "" {
		t.Fatalf("diff (-want +got):\n%s", diff)
	}
	// symmetric: swapping sides keeps the same set, other's unique names first
	if diff := cmp.Diff([]string{"d", "a", "c"}, fieldNames(other.Diff(base))); diff != "" {
		t.Fatalf("reverse diff (-want +got):\n%s", diff)
	}
}

func TestObjectPartial(t *testing.T) {
	ctx := context.Background()
	s := userSchema().Partial()

	v, err := s.Parse(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("all-partial Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{}, v); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}

	// named partial leaves the rest required
	named := userSchema().Partial("age")
	iss := mustFail(t, named.SafeParse(ctx, map[string]any{}))
	if _, ok := strux.IssueAt(iss, "/name"); !ok {
		t.Fatalf("name should stay required: %v", iss)
	}
	if _, ok := strux.IssueAt(iss, "/age"); ok {
		t.Fatalf("age should be optional: %v", iss)
	}

	// idempotent
	twice := userSchema().Partial().Partial()
	if res := twice.SafeParse(ctx, map[string]any{}); !res.OK {
		t.Fatalf("double partial: %v", res.Err)
	}

	// present values still validate
	iss = mustFail(t, s.SafeParse(ctx, map[string]any{"age": -1.0}))
	if it, ok := strux.IssueAt(iss, "/age"); !ok || it.Param("check") != "min" {
		t.Fatalf("age issue = %+v", it)
	}
}

func TestObjectPartialDeepAndRequired(t *testing.T) {
	ctx := context.Background()
	nested := g.Object().
		Field("profile", g.Object().Field("bio", g.String())).
		Field("tags", g.Array(g.Object().Field("label", g.String())))

	deep := nested.PartialDeep()
	if res := deep.SafeParse(ctx, map[string]any{"profile": map[string]any{}}); !res.OK {
		t.Fatalf("deep partial nested object: %v", res.Err)
	}
	// array elements themselves cannot be absent, but their fields can
	if res := deep.SafeParse(ctx, map[string]any{"tags": []any{map[string]any{}}}); !res.OK {
		t.Fatalf("deep partial array element: %v", res.Err)
	}

	req := userSchema().Partial().RequiredKeys()
	iss := mustFail(t, req.SafeParse(ctx, map[string]any{}))
	if len(iss) != 2 {
		t.Fatalf("required-again issues = %d", len(iss))
	}

	// nullable layers survive RequiredKeys
	s := g.Object().Field("note", g.Nullable(g.String()).Optional()).RequiredKeys()
	if res := s.SafeParse(ctx, map[string]any{"note": nil}); !res.OK {
		t.Fatalf("nullable survived: %v", res.Err)
	}
	iss = mustFail(t, s.SafeParse(ctx, map[string]any{}))
	if iss.First().Code != strux.CodeRequired {
		t.Fatalf("missing nullable code = %q", iss.First().Code)
	}
}

func TestObjectKeyofEntriesShape(t *testing.T) {
	ctx := context.Background()
	s := userSchema()

	keys := s.Keyof()
	if res := keys.SafeParse(ctx, "name"); !res.OK {
		t.Fatalf("keyof: %v", res.Err)
	}
	if res := keys.SafeParse(ctx, "email"); res.OK {
		t.Fatalf("keyof accepted an undeclared name")
	}

	shape := s.Shape()
	if shape["name"].TypeName() != "string" || shape["age"].TypeName() != "number" {
		t.Fatalf("shape = %v", shape)
	}

	defer func() {
		if _, ok := recover().(*strux.UsageError); !ok {
			t.Fatalf("Keyof on empty object did not panic")
		}
	}()
	g.Object().Keyof()
}

func TestObjectSetKey(t *testing.T) {
	ctx := context.Background()
	s := g.Object().SetKey("k", g.String())
	if res := s.SafeParse(ctx, map[string]any{"k": "v"}); !res.OK {
		t.Fatalf("SetKey parse: %v", res.Err)
	}
}
