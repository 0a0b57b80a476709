package dsl

import (
	"sort"

	strux "github.com/strux-go/strux"
)

type field struct {
	name string
	n    node
}

type unknownPolicy int

const (
	unknownStrip unknownPolicy = iota
	unknownPassthrough
	unknownStrict
)

type objectNode struct {
	fields   []field
	index    map[string]int
	policy   unknownPolicy
	catchall node // non-nil overrides policy
}

func (n *objectNode) TypeName() string { return "object" }

func (n *objectNode) clone() *objectNode {
	nn := &objectNode{
		fields:   make([]field, len(n.fields)),
		index:    make(map[string]int, len(n.index)),
		policy:   n.policy,
		catchall: n.catchall,
	}
	copy(nn.fields, n.fields)
	for k, i := range n.index {
		nn.index[k] = i
	}
	return nn
}

func (n *objectNode) put(name string, fn node) {
	if i, ok := n.index[name]; ok {
		n.fields[i].n = fn
		return
	}
	n.index[name] = len(n.fields)
	n.fields = append(n.fields, field{name: name, n: fn})
}

func (n *objectNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	m, ok := stringMap(v)
	if !ok {
		return failType(pc, "object", v)
	}
	out := make(map[string]any, len(m))
	for _, f := range n.fields {
		if pc.ShouldAbort() {
			break
		}
		fv, present := m[f.name]
		if !present {
			fv = strux.Undefined
		}
		cpc := pc.Child(f.n, fv, strux.Key(f.name))
		ov, fok := f.n.run(cpc, fv)
		if fok && cpc.Valid() && !strux.IsUndefined(ov) {
			out[f.name] = ov
		}
	}
	var extras []string
	for k := range m {
		if _, declared := n.index[k]; !declared {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	switch {
	case n.catchall != nil:
		for _, k := range extras {
			if pc.ShouldAbort() {
				break
			}
			cpc := pc.Child(n.catchall, m[k], strux.Key(k))
			ov, cok := n.catchall.run(cpc, m[k])
			if cok && cpc.Valid() && !strux.IsUndefined(ov) {
				out[k] = ov
			}
		}
	case n.policy == unknownPassthrough:
		for _, k := range extras {
			out[k] = m[k]
		}
	case n.policy == unknownStrict:
		if len(extras) > 0 && !pc.ShouldAbort() {
			pc.AddIssue(strux.CodeUnrecognizedKeys, map[string]any{"keys": extras})
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

func optionalWrap(n node) node {
	if _, ok := n.(*optionalNode); ok {
		return n
	}
	return &optionalNode{inner: n}
}

// deepPartialNode pushes optional wrapping through objects, arrays, and the
// optional/nullable wrappers. Only object fields become optional; sequence
// elements cannot be absent.
func deepPartialNode(n node) node {
	switch t := n.(type) {
	case *optionalNode:
		return &optionalNode{inner: deepPartialNode(t.inner)}
	case *nullableNode:
		return &nullableNode{inner: deepPartialNode(t.inner)}
	case *arrayNode:
		nn := t.clone()
		nn.elem = deepPartialNode(t.elem)
		return nn
	case *objectNode:
		nn := t.clone()
		for i, f := range nn.fields {
			nn.fields[i].n = optionalWrap(deepPartialNode(f.n))
		}
		return nn
	}
	return n
}

// requiredNode strips optional layers while preserving nullable ones.
func requiredNode(n node) node {
	switch t := n.(type) {
	case *optionalNode:
		return requiredNode(t.inner)
	case *nullableNode:
		return &nullableNode{inner: requiredNode(t.inner)}
	}
	return n
}

// ObjectSchema validates string-keyed structures field by field. Every
// derivation below is pure: the receiver is never mutated.
type ObjectSchema struct {
	AnySchema
	on *objectNode
}

// Object builds an empty object schema. Unknown keys are stripped until a
// policy or catchall says otherwise.
func Object() ObjectSchema {
	n := &objectNode{index: map[string]int{}}
	return ObjectSchema{AnySchema: wrap(n), on: n}
}

func objectFrom(n *objectNode) ObjectSchema {
	return ObjectSchema{AnySchema: wrap(n), on: n}
}

// Field declares or replaces a field. Replacing keeps the field's position.
func (s ObjectSchema) Field(name string, fs Schema) ObjectSchema {
	nn := s.on.clone()
	nn.put(name, nodeOf(fs))
	return objectFrom(nn)
}

// SetKey is Field under the name composer APIs use.
func (s ObjectSchema) SetKey(name string, fs Schema) ObjectSchema {
	return s.Field(name, fs)
}

// Augment adds every given field, incoming schema winning on collision. New
// names append in lexicographic order.
func (s ObjectSchema) Augment(fields map[string]Schema) ObjectSchema {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	nn := s.on.clone()
	for _, k := range names {
		nn.put(k, nodeOf(fields[k]))
	}
	return objectFrom(nn)
}

// Extend is an alias for Augment.
func (s ObjectSchema) Extend(fields map[string]Schema) ObjectSchema {
	return s.Augment(fields)
}

// Merge augments with other's fields (other wins on collision) and adopts
// other's unknown-key policy and catchall.
func (s ObjectSchema) Merge(other ObjectSchema) ObjectSchema {
	nn := s.on.clone()
	for _, f := range other.on.fields {
		nn.put(f.name, f.n)
	}
	nn.policy = other.on.policy
	nn.catchall = other.on.catchall
	return objectFrom(nn)
}

// Pick keeps only the named fields, preserving declared order. Names that
// are not declared are ignored.
func (s ObjectSchema) Pick(keys ...string) ObjectSchema {
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}
	nn := &objectNode{index: map[string]int{}, policy: s.on.policy, catchall: s.on.catchall}
	for _, f := range s.on.fields {
		if keep[f.name] {
			nn.put(f.name, f.n)
		}
	}
	return objectFrom(nn)
}

// Omit drops the named fields, preserving declared order of the rest.
func (s ObjectSchema) Omit(keys ...string) ObjectSchema {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	nn := &objectNode{index: map[string]int{}, policy: s.on.policy, catchall: s.on.catchall}
	for _, f := range s.on.fields {
		if !drop[f.name] {
			nn.put(f.name, f.n)
		}
	}
	return objectFrom(nn)
}

// Diff keeps the SYMMETRIC difference of the two field sets: fields unique
// to the receiver (in its order) followed by fields unique to other (in
// other's order). Fields present in both are dropped regardless of their
// schemas. Policy and catchall come from the receiver.
func (s ObjectSchema) Diff(other ObjectSchema) ObjectSchema {
	nn := &objectNode{index: map[string]int{}, policy: s.on.policy, catchall: s.on.catchall}
	for _, f := range s.on.fields {
		if _, shared := other.on.index[f.name]; !shared {
			nn.put(f.name, f.n)
		}
	}
	for _, f := range other.on.fields {
		if _, shared := s.on.index[f.name]; !shared {
			nn.put(f.name, f.n)
		}
	}
	return objectFrom(nn)
}

// Partial wraps fields in Optional. With no arguments every field becomes
// optional; with names only those do. Already-optional fields are left
// alone, so Partial is idempotent.
func (s ObjectSchema) Partial(keys ...string) ObjectSchema {
	only := make(map[string]bool, len(keys))
	for _, k := range keys {
		only[k] = true
	}
	nn := s.on.clone()
	for i, f := range nn.fields {
		if len(keys) > 0 && !only[f.name] {
			continue
		}
		nn.fields[i].n = optionalWrap(f.n)
	}
	return objectFrom(nn)
}

// PartialDeep applies Partial recursively through nested objects, arrays,
// and optional/nullable wrappers.
func (s ObjectSchema) PartialDeep() ObjectSchema {
	nn := deepPartialNode(s.on).(*objectNode)
	return objectFrom(nn)
}

// RequiredKeys strips optional layers from fields, preserving nullable
// layers. With no arguments every field is affected; with names only those.
func (s ObjectSchema) RequiredKeys(keys ...string) ObjectSchema {
	only := make(map[string]bool, len(keys))
	for _, k := range keys {
		only[k] = true
	}
	nn := s.on.clone()
	for i, f := range nn.fields {
		if len(keys) > 0 && !only[f.name] {
			continue
		}
		nn.fields[i].n = requiredNode(f.n)
	}
	return objectFrom(nn)
}

// Keyof builds an enum of the declared field names, in declared order. An
// empty object is API misuse and panics with *strux.UsageError.
func (s ObjectSchema) Keyof() EnumSchema {
	if len(s.on.fields) == 0 {
		panic(strux.NewUsageError("Object.Keyof", "object has no fields"))
	}
	names := make([]string, len(s.on.fields))
	for i, f := range s.on.fields {
		names[i] = f.name
	}
	return Enum(names...)
}

// FieldEntry is one declared field of an object schema.
type FieldEntry struct {
	Name   string
	Schema Schema
}

// Entries lists the declared fields in order.
func (s ObjectSchema) Entries() []FieldEntry {
	out := make([]FieldEntry, len(s.on.fields))
	for i, f := range s.on.fields {
		out[i] = FieldEntry{Name: f.name, Schema: wrap(f.n)}
	}
	return out
}

// Shape maps field names to their schemas.
func (s ObjectSchema) Shape() map[string]Schema {
	out := make(map[string]Schema, len(s.on.fields))
	for _, f := range s.on.fields {
		out[f.name] = wrap(f.n)
	}
	return out
}

// Strict rejects unknown keys with a single unrecognized_keys issue listing
// all of them. Clears a standing catchall.
func (s ObjectSchema) Strict() ObjectSchema {
	nn := s.on.clone()
	nn.policy = unknownStrict
	nn.catchall = nil
	return objectFrom(nn)
}

// Passthrough retains unknown keys verbatim. Clears a standing catchall.
func (s ObjectSchema) Passthrough() ObjectSchema {
	nn := s.on.clone()
	nn.policy = unknownPassthrough
	nn.catchall = nil
	return objectFrom(nn)
}

// Strip drops unknown keys. This is the default. Clears a standing catchall.
func (s ObjectSchema) Strip() ObjectSchema {
	nn := s.on.clone()
	nn.policy = unknownStrip
	nn.catchall = nil
	return objectFrom(nn)
}

// Catchall validates unknown keys against c and retains their outputs. It
// overrides the unknown-key policy until a policy setter clears it.
func (s ObjectSchema) Catchall(c Schema) ObjectSchema {
	nn := s.on.clone()
	nn.catchall = nodeOf(c)
	return objectFrom(nn)
}
