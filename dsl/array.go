package dsl

import (
	"reflect"
	"sort"
	"strings"

	strux "github.com/strux-go/strux"
)

// arrayItems widens slice and array inputs to []any. Byte slices are treated
// as scalars, not sequences.
func arrayItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// compareValues orders two values when both are numbers or both are strings.
func compareValues(a, b any) (int, bool) {
	if fa, aok := strux.NumberValue(a); aok {
		fb, bok := strux.NumberValue(b)
		if !bok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, aok := a.(string)
	if !aok {
		return 0, false
	}
	sb, bok := b.(string)
	if !bok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func sortedBy(items []any, desc bool) bool {
	for i := 1; i < len(items); i++ {
		c, ok := compareValues(items[i-1], items[i])
		if !ok {
			return false
		}
		if !desc && c > 0 {
			return false
		}
		if desc && c < 0 {
			return false
		}
	}
	return true
}

// ---- array ----

type arrayCheck struct {
	kind string
	n    int
}

type arrayNode struct {
	elem   node
	checks []arrayCheck
}

func (n *arrayNode) TypeName() string { return "array" }

func (n *arrayNode) clone() *arrayNode {
	nn := &arrayNode{elem: n.elem, checks: make([]arrayCheck, len(n.checks))}
	copy(nn.checks, n.checks)
	return nn
}

// putArrayCheck replaces a same-kind check. Len displaces Min/Max and vice
// versa, and the ordering checks and Sort displace each other.
func putArrayCheck(checks []arrayCheck, c arrayCheck) []arrayCheck {
	drop := map[string]bool{c.kind: true}
	switch c.kind {
	case "length":
		drop["min"] = true
		drop["max"] = true
	case "min", "max":
		drop["length"] = true
	case "ascending", "descending", "sort":
		drop["ascending"] = true
		drop["descending"] = true
		drop["sort"] = true
	}
	out := make([]arrayCheck, 0, len(checks)+1)
	for _, ex := range checks {
		if drop[ex.kind] {
			continue
		}
		out = append(out, ex)
	}
	return append(out, c)
}

func (n *arrayNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	items, ok := arrayItems(v)
	if !ok {
		return failType(pc, "array", v)
	}
	for _, c := range n.checks {
		if pc.ShouldAbort() {
			break
		}
		switch c.kind {
		case "min":
			if len(items) < c.n {
				pc.AddIssue(strux.CodeInvalidArray, map[string]any{"check": "min", "min": c.n, "got": len(items)})
			}
		case "max":
			if len(items) > c.n {
				pc.AddIssue(strux.CodeInvalidArray, map[string]any{"check": "max", "max": c.n, "got": len(items)})
			}
		case "length":
			if len(items) != c.n {
				pc.AddIssue(strux.CodeInvalidArray, map[string]any{"check": "length", "expected": c.n, "got": len(items)})
			}
		}
	}
	out := make([]any, 0, len(items))
	for i, el := range items {
		if pc.ShouldAbort() {
			break
		}
		cpc := pc.Child(n.elem, el, strux.Index(i))
		ev, eok := n.elem.run(cpc, el)
		if eok && cpc.Valid() {
			out = append(out, ev)
		}
	}
	// Ordering applies to the transformed elements, and only once every
	// element has parsed.
	if len(out) == len(items) {
		for _, c := range n.checks {
			if pc.ShouldAbort() {
				break
			}
			switch c.kind {
			case "ascending":
				if !sortedBy(out, false) {
					pc.AddIssue(strux.CodeInvalidArray, map[string]any{"check": "ascending"})
				}
			case "descending":
				if !sortedBy(out, true) {
					pc.AddIssue(strux.CodeInvalidArray, map[string]any{"check": "descending"})
				}
			case "sort":
				sort.SliceStable(out, func(i, j int) bool {
					r, cmpOK := compareValues(out[i], out[j])
					return cmpOK && r < 0
				})
			}
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// ArraySchema validates homogeneous sequences.
type ArraySchema struct {
	AnySchema
	an *arrayNode
}

// Array builds an array schema whose elements validate against elem.
func Array(elem Schema) ArraySchema {
	n := &arrayNode{elem: nodeOf(elem)}
	return ArraySchema{AnySchema: wrap(n), an: n}
}

func (s ArraySchema) with(c arrayCheck) ArraySchema {
	nn := s.an.clone()
	nn.checks = putArrayCheck(nn.checks, c)
	return ArraySchema{AnySchema: wrap(nn), an: nn}
}

// Min requires at least m elements.
func (s ArraySchema) Min(m int) ArraySchema { return s.with(arrayCheck{kind: "min", n: m}) }

// Max allows at most m elements.
func (s ArraySchema) Max(m int) ArraySchema { return s.with(arrayCheck{kind: "max", n: m}) }

// Len requires exactly m elements.
func (s ArraySchema) Len(m int) ArraySchema { return s.with(arrayCheck{kind: "length", n: m}) }

// NonEmpty requires at least one element.
func (s ArraySchema) NonEmpty() ArraySchema { return s.Min(1) }

// Ascending requires the parsed elements to be sorted in ascending order.
// Elements must be mutually comparable (all numbers or all strings).
func (s ArraySchema) Ascending() ArraySchema { return s.with(arrayCheck{kind: "ascending"}) }

// Descending requires descending order.
func (s ArraySchema) Descending() ArraySchema { return s.with(arrayCheck{kind: "descending"}) }

// Sort rewrites the output in ascending order instead of checking it.
func (s ArraySchema) Sort() ArraySchema { return s.with(arrayCheck{kind: "sort"}) }

// ---- set ----

type setNode struct {
	elem node
	min  *int
	max  *int
	size *int
}

func (n *setNode) TypeName() string { return "set" }

func (n *setNode) clone() *setNode {
	nn := &setNode{elem: n.elem}
	if n.min != nil {
		m := *n.min
		nn.min = &m
	}
	if n.max != nil {
		m := *n.max
		nn.max = &m
	}
	if n.size != nil {
		m := *n.size
		nn.size = &m
	}
	return nn
}

func (n *setNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	var members []any
	if set, ok := v.(*strux.Set); ok && set != nil {
		members = set.Values()
	} else {
		items, ok := arrayItems(v)
		if !ok {
			return failType(pc, "set", v)
		}
		members = items
	}
	out := strux.NewSet()
	for i, el := range members {
		if pc.ShouldAbort() {
			break
		}
		cpc := pc.Child(n.elem, el, strux.Index(i))
		ev, eok := n.elem.run(cpc, el)
		if eok && cpc.Valid() {
			out.Add(ev)
		}
	}
	// Cardinality is judged on the deduplicated result, so it only makes
	// sense once every member has parsed.
	if !pc.Invalid() {
		if n.min != nil && out.Len() < *n.min {
			pc.AddIssue(strux.CodeInvalidSet, map[string]any{"check": "min", "min": *n.min, "got": out.Len()})
		}
		if n.max != nil && out.Len() > *n.max {
			pc.AddIssue(strux.CodeInvalidSet, map[string]any{"check": "max", "max": *n.max, "got": out.Len()})
		}
		if n.size != nil && out.Len() != *n.size {
			pc.AddIssue(strux.CodeInvalidSet, map[string]any{"check": "size", "expected": *n.size, "got": out.Len()})
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// SetSchema validates unique collections. Sequence inputs are deduplicated
// by deep equality; the output is always a *strux.Set.
type SetSchema struct {
	AnySchema
	sn *setNode
}

// SetOf builds a set schema whose members validate against elem.
func SetOf(elem Schema) SetSchema {
	n := &setNode{elem: nodeOf(elem)}
	return SetSchema{AnySchema: wrap(n), sn: n}
}

func (s SetSchema) with(mut func(*setNode)) SetSchema {
	nn := s.sn.clone()
	mut(nn)
	return SetSchema{AnySchema: wrap(nn), sn: nn}
}

// Min requires at least m distinct members. Size and the Min/Max pair are
// mutually exclusive; setting one clears the other.
func (s SetSchema) Min(m int) SetSchema {
	return s.with(func(n *setNode) {
		n.size = nil
		n.min = &m
	})
}

// Max allows at most m distinct members. Setting it clears a standing Size.
func (s SetSchema) Max(m int) SetSchema {
	return s.with(func(n *setNode) {
		n.size = nil
		n.max = &m
	})
}

// Size requires exactly m distinct members. Setting it clears standing
// Min/Max bounds.
func (s SetSchema) Size(m int) SetSchema {
	return s.with(func(n *setNode) {
		n.min = nil
		n.max = nil
		n.size = &m
	})
}

// ---- tuple ----

type tupleNode struct {
	items []node
	rest  node
}

func (n *tupleNode) TypeName() string { return "tuple" }

func (n *tupleNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	items, ok := arrayItems(v)
	if !ok {
		return failType(pc, "tuple", v)
	}
	if len(items) < len(n.items) {
		pc.AddIssue(strux.CodeInvalidTuple, map[string]any{"check": "min", "minimum": len(n.items), "got": len(items)})
	}
	if len(items) > len(n.items) && n.rest == nil {
		pc.AddIssue(strux.CodeInvalidTuple, map[string]any{"check": "max", "maximum": len(n.items), "got": len(items)})
	}
	out := make([]any, 0, len(items))
	for i, el := range items {
		if pc.ShouldAbort() {
			break
		}
		var en node
		switch {
		case i < len(n.items):
			en = n.items[i]
		case n.rest != nil:
			en = n.rest
		default:
			// Surplus without a rest schema; the length issue is already
			// recorded.
			continue
		}
		cpc := pc.Child(en, el, strux.Index(i))
		ev, eok := en.run(cpc, el)
		if eok && cpc.Valid() {
			out = append(out, ev)
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// TupleSchema validates fixed-position sequences, optionally with a rest
// schema for trailing elements.
type TupleSchema struct {
	AnySchema
	tn *tupleNode
}

// Tuple builds a positional schema: input[i] validates against items[i].
func Tuple(items ...Schema) TupleSchema {
	n := &tupleNode{items: nodesOf(items)}
	return TupleSchema{AnySchema: wrap(n), tn: n}
}

// Rest accepts trailing elements beyond the fixed positions, each validated
// against r.
func (s TupleSchema) Rest(r Schema) TupleSchema {
	n := &tupleNode{items: s.tn.items, rest: nodeOf(r)}
	return TupleSchema{AnySchema: wrap(n), tn: n}
}
