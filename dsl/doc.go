// Package dsl provides the schema combinator DSL for strux.
//
// Overview
//   - Leafs: String()/Number()/BigInt()/Boolean()/Date()/Symbol()/Null()/
//     Undefined()/Void()/Any()/Unknown()/Never()/Literal(v)/Enum(...)/InstanceOf[T]().
//   - Composites: Array(elem), SetOf(elem), Tuple(items...), Record(value), MapOf(key, value),
//     Object(), Union(...)/DiscriminatedUnion(key, variants), Intersection(...).
//   - Wrappers: Optional/Nullable/Default/Catch/Brand/Lazy/Promise, also available as fluent
//     methods on every schema handle.
//   - Effects: Preprocess/Refine/Transform plus async variants; rule helpers (When/Check) for
//     cross-field object validation.
//
// Entry points
//   - Build a schema with the constructors above, then call Parse/SafeParse (sync) or
//     ParseAsync/SafeParseAsync (may suspend: async effects, promise awaits, concurrent
//     union and intersection members). Failures surface as strux.Issues.
//   - Object(): chain Field(name, schema), then policy setters (Strict/Passthrough/Strip/
//     Catchall) and composers (Augment/Extend/Merge/Pick/Omit/Diff/Partial/PartialDeep/...).
//   - BindStruct[T]: decode a validated object into a struct by resolved field keys.
//
// File layout (roles)
//   - schema.go: node/Schema contracts, AnySchema handle, parse entry points, fluent methods.
//   - primitives.go: string/number/bigint/boolean leafs and their check chains.
//   - date.go, literal.go, misc.go: date coercion, literal/enum, any/never/null/symbol leafs.
//   - array.go/record.go/object.go: composite traversal; object policies and composers.
//   - union.go: plain, discriminated and async-concurrent union paths; intersection merge.
//   - wrap.go/effects.go: wrapper and effect nodes.
//   - function.go: argument/return validation carriers for wrapped functions.
//   - when.go: declarative cross-field rules compiled onto object schemas.
//   - jsonschema.go: projection of every projectable node into jsonschema.Schema.
//
// Design guidelines
//   - Schema values are immutable; with-methods return new handles, so sharing schemas
//     across goroutines is safe.
//   - Keep public APIs minimal; the node set is closed to this package.
//   - Align runtime semantics of unknown/optional/default with the JSON Schema output.
package dsl
