package strux

// Package strux provides:
//
// - A combinator algebra for validating, coercing and transforming untrusted
//   input (schemas live under dsl/)
// - A stable error model via Issues (JSON Pointer, code, message) with
//   Format/Flatten projections
// - Decode front doors (JSON/YAML/TOML/MessagePack) with duplicate-key,
//   depth and size enforcement
// - Layered message resolution: payload, call-site map, schema map, registry
//   map, built-in catalog (i18n/)
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations
//   under internal/.
// - Place the schema DSL under dsl/, document loading under schemafile/, and
//   the CLI under cmd/strux.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := dsl.Object().
//		Field("name", dsl.String().Min(1)).
//		Field("age", dsl.Number().Optional())
//	data, err := strux.FromJSON(raw)
//	v, err := s.Parse(ctx, data)
//	if iss, ok := strux.AsIssues(err); ok {
//		tree := iss.Format()
//		_ = tree
//	}
