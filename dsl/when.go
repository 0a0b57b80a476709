package dsl

import (
	"fmt"

	strux "github.com/strux-go/strux"
)

// Op compares a field against a reference value in When conditions.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// RuleIssue is one violation reported by an object rule.
type RuleIssue struct {
	Path    string // JSON Pointer into the parsed object; "" means the object itself
	Code    string // defaults to custom
	Message string
	Params  map[string]any
}

// ObjectRule inspects a fully parsed object and reports violations. Rules
// run after field validation, so they see transformed output values.
type ObjectRule func(m map[string]any) []RuleIssue

// Cond is a predicate over a parsed object, built with When, WhenAll, and
// WhenAny.
type Cond struct {
	path string
	op   Op
	want any
	all  []Cond
	anyc []Cond
}

// When compares the value under a JSON Pointer path with want. A missing
// value never satisfies the condition, whatever the operator.
func When(path string, op Op, want any) Cond {
	return Cond{path: path, op: op, want: want}
}

// WhenAll holds when every condition holds.
func WhenAll(conds ...Cond) Cond { return Cond{all: conds} }

// WhenAny holds when at least one condition holds.
func WhenAny(conds ...Cond) Cond { return Cond{anyc: conds} }

// And combines with more conditions conjunctively.
func (c Cond) And(others ...Cond) Cond {
	return WhenAll(append([]Cond{c}, others...)...)
}

// Or combines with more conditions disjunctively.
func (c Cond) Or(others ...Cond) Cond {
	return WhenAny(append([]Cond{c}, others...)...)
}

func (c Cond) eval(m map[string]any) bool {
	if len(c.all) > 0 {
		for _, sub := range c.all {
			if !sub.eval(m) {
				return false
			}
		}
		return true
	}
	if len(c.anyc) > 0 {
		for _, sub := range c.anyc {
			if sub.eval(m) {
				return true
			}
		}
		return false
	}
	v, ok := valueAtPointer(m, c.path)
	if !ok {
		return false
	}
	switch c.op {
	case Eq:
		return valueEqual(v, c.want)
	case Ne:
		return !valueEqual(v, c.want)
	}
	cmp, comparable := compareValues(v, c.want)
	if !comparable {
		return false
	}
	switch c.op {
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	}
	return false
}

// Then gates rules behind the condition.
func (c Cond) Then(rules ...ObjectRule) ObjectRule {
	return func(m map[string]any) []RuleIssue {
		if !c.eval(m) {
			return nil
		}
		var out []RuleIssue
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = append(out, r(m)...)
		}
		return out
	}
}

// Require reports a violation for each named key that is absent.
func Require(keys ...string) ObjectRule {
	return func(m map[string]any) []RuleIssue {
		var out []RuleIssue
		for _, k := range keys {
			if _, ok := m[k]; !ok {
				out = append(out, RuleIssue{
					Path:   "/" + k,
					Code:   strux.CodeRequired,
					Params: map[string]any{"expected": "value"},
				})
			}
		}
		return out
	}
}

// AtLeastOne reports a violation when the sequence at path is empty. A
// missing or non-sequence value is left to the field schemas.
func AtLeastOne(path string) ObjectRule {
	return func(m map[string]any) []RuleIssue {
		v, ok := valueAtPointer(m, path)
		if !ok {
			return nil
		}
		items, isSeq := arrayItems(v)
		if !isSeq || len(items) > 0 {
			return nil
		}
		return []RuleIssue{{
			Path:   path,
			Code:   strux.CodeInvalidArray,
			Params: map[string]any{"check": "min", "min": 1, "got": 0},
		}}
	}
}

// UniqueBy reports duplicates in the sequence at collectionPath, keyed by
// each element's value under keyPath. Violations land on the duplicate
// elements. Keys compare by their string rendering, so mixed-type keys that
// print alike collide.
func UniqueBy(collectionPath, keyPath string) ObjectRule {
	return func(m map[string]any) []RuleIssue {
		v, ok := valueAtPointer(m, collectionPath)
		if !ok {
			return nil
		}
		items, isSeq := arrayItems(v)
		if !isSeq {
			return nil
		}
		seen := map[string]int{}
		var out []RuleIssue
		for i, el := range items {
			kv, found := valueAtPointer(el, keyPath)
			if !found {
				continue
			}
			key := fmt.Sprint(kv)
			if first, dup := seen[key]; dup {
				out = append(out, RuleIssue{
					Path: fmt.Sprintf("%s/%d", collectionPath, i),
					Code: strux.CodeCustom,
					Params: map[string]any{
						"check":      "unique",
						"key":        keyPath,
						"firstIndex": first,
						"value":      key,
					},
				})
				continue
			}
			seen[key] = i
		}
		return out
	}
}

// valueAtPointer walks a JSON Pointer through maps and sequences.
func valueAtPointer(v any, pointer string) (any, bool) {
	if pointer == "" || pointer == "/" {
		return v, true
	}
	cur := v
	for _, seg := range strux.ParsePointer(pointer) {
		if seg.IsIndex() {
			items, ok := arrayItems(cur)
			if !ok || seg.Index < 0 || seg.Index >= len(items) {
				return nil, false
			}
			cur = items[seg.Index]
			continue
		}
		m, ok := stringMap(cur)
		if !ok {
			return nil, false
		}
		nv, found := m[seg.Key]
		if !found {
			return nil, false
		}
		cur = nv
	}
	return cur, true
}

type checkNode struct {
	inner node
	rules []ObjectRule
}

func (n *checkNode) TypeName() string { return n.inner.TypeName() }

func (n *checkNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	cpc := pc.Child(n.inner, v)
	out, ok := n.inner.run(cpc, v)
	if !ok || pc.Invalid() {
		return pc.Abort()
	}
	m, _ := out.(map[string]any)
	for _, r := range n.rules {
		if pc.ShouldAbort() {
			break
		}
		for _, viol := range r(m) {
			code := viol.Code
			if code == "" {
				code = strux.CodeCustom
			}
			ipc := pc
			if segs := strux.ParsePointer(viol.Path); len(segs) > 0 {
				val, _ := valueAtPointer(m, viol.Path)
				ipc = pc.Child(n.inner, val, segs...)
			}
			if viol.Message != "" {
				ipc.AddIssueMsg(code, viol.Message, viol.Params)
			} else {
				ipc.AddIssue(code, viol.Params)
			}
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// Check attaches object rules that run after the object parses. Violations
// are recorded at their reported paths.
func (s ObjectSchema) Check(rules ...ObjectRule) AnySchema {
	return wrap(&checkNode{inner: s.on, rules: rules})
}
