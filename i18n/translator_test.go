package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

var allCodes = []string{
	"required", "invalid_type", "invalid_array", "invalid_date",
	"invalid_set", "invalid_tuple", "invalid_enum_value", "invalid_literal",
	"invalid_arguments", "invalid_return_type", "invalid_union",
	"invalid_intersection", "invalid_instance", "unrecognized_keys",
	"forbidden", "custom",
}

func TestCatalogIsTotal(t *testing.T) {
	defer SetLanguage("en")
	for _, lang := range []string{"en", "ja"} {
		SetLanguage(lang)
		for _, code := range allCodes {
			if msg := T(code, nil); msg == "" || msg == code {
				t.Fatalf("lang %s: code %q resolved to %q", lang, code, msg)
			}
		}
	}
}

func TestUnknownCodeFallsBack(t *testing.T) {
	if got := T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestParamInterpolation(t *testing.T) {
	SetLanguage("en")
	cases := []struct {
		code   string
		params map[string]any
		want   string
	}{
		{"invalid_type", map[string]any{"expected": "string", "received": "number"}, "expected string, received number"},
		{"invalid_enum_value", map[string]any{"expected": "admin | user"}, "invalid enum value, expected one of admin | user"},
		{"unrecognized_keys", map[string]any{"keys": "x, y"}, "unrecognized key(s) in object: x, y"},
		{"custom", map[string]any{"kind": "string", "check": "min", "min": 3}, "string must contain at least 3 character(s)"},
		{"custom", map[string]any{"kind": "number", "check": "min", "min": 5}, "value must be greater than or equal to 5"},
		{"custom", map[string]any{"check": "pattern"}, "string does not match the required pattern"},
		{"invalid_array", map[string]any{"check": "min", "min": 1}, "array must contain at least 1 element(s)"},
		{"invalid_array", map[string]any{"check": "ascending"}, "array must be sorted in ascending order"},
		{"invalid_set", map[string]any{"check": "size", "expected": 2}, "set must contain exactly 2 element(s)"},
		{"invalid_date", map[string]any{"check": "parse"}, "value could not be coerced to a date"},
	}
	for _, tc := range cases {
		if got := T(tc.code, tc.params); got != tc.want {
			t.Fatalf("T(%s, %v) = %q, want %q", tc.code, tc.params, got, tc.want)
		}
	}
}

type staticTranslator struct{}

func (staticTranslator) Message(code string, params map[string]any) string {
	return "XX:" + code
}

func TestSetTranslator(t *testing.T) {
	SetTranslator(staticTranslator{})
	if got := T("required", nil); got != "XX:required" {
		t.Fatalf("custom translator = %q", got)
	}
	SetTranslator(nil)
	if got := T("required", nil); got != "required value missing" {
		t.Fatalf("reset translator = %q", got)
	}
}
