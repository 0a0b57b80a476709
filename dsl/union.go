package dsl

import (
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	strux "github.com/strux-go/strux"
)

// ---- union ----

type unionNode struct {
	members []node
}

func (n *unionNode) TypeName() string { return "union" }

func (n *unionNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	if pc.Async() {
		return n.runAsync(pc, v)
	}
	memberIssues := strux.Issues{}
	for _, m := range n.members {
		mpc := pc.Clone(m, v)
		out, ok := m.run(mpc, v)
		if ok && mpc.Valid() {
			return pc.OK(out)
		}
		memberIssues = append(memberIssues, mpc.Issues()...)
	}
	pc.AddIssue(strux.CodeInvalidUnion, map[string]any{"unionErrors": memberIssues})
	return pc.Abort()
}

// runAsync tries every member concurrently, then reconciles in declared
// order so the winner is deterministic.
func (n *unionNode) runAsync(pc *strux.ParseCtx, v any) (any, bool) {
	outs := make([]any, len(n.members))
	oks := make([]bool, len(n.members))
	clones := make([]*strux.ParseCtx, len(n.members))
	var g errgroup.Group
	for i, m := range n.members {
		i, m := i, m
		mpc := pc.Clone(m, v)
		clones[i] = mpc
		g.Go(func() error {
			outs[i], oks[i] = m.run(mpc, v)
			return nil
		})
	}
	_ = g.Wait()
	memberIssues := strux.Issues{}
	for i := range n.members {
		if oks[i] && clones[i].Valid() {
			return pc.OK(outs[i])
		}
		memberIssues = append(memberIssues, clones[i].Issues()...)
	}
	pc.AddIssue(strux.CodeInvalidUnion, map[string]any{"unionErrors": memberIssues})
	return pc.Abort()
}

// UnionSchema accepts the first member, in declared order, that validates.
type UnionSchema struct {
	AnySchema
	un *unionNode
}

// Union builds an ordered union. Members are tried in declaration order and
// the first success wins; failures inside losing members never surface. A
// total miss yields one invalid_union issue carrying every member's issues
// under the unionErrors param. An empty member list is API misuse and
// panics with *strux.UsageError.
func Union(members ...Schema) UnionSchema {
	if len(members) == 0 {
		panic(strux.NewUsageError("Union", "at least one member is required"))
	}
	n := &unionNode{members: nodesOf(members)}
	return UnionSchema{AnySchema: wrap(n), un: n}
}

// ---- discriminated union ----

type discriminatedNode struct {
	key     string
	mapping map[string]node
	tags    []string
}

func (n *discriminatedNode) TypeName() string { return "union" }

func (n *discriminatedNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	m, ok := stringMap(v)
	if !ok {
		return failType(pc, "object", v)
	}
	tag, _ := m[n.key].(string)
	if tag == "" {
		kpc := pc.Child(n, m[n.key], strux.Key(n.key))
		kpc.AddIssue(strux.CodeInvalidUnion, map[string]any{
			"reason":        "discriminator_missing",
			"discriminator": n.key,
			"options":       n.tags,
		})
		return pc.Abort()
	}
	variant, found := n.mapping[tag]
	if !found {
		kpc := pc.Child(n, tag, strux.Key(n.key))
		kpc.AddIssue(strux.CodeInvalidUnion, map[string]any{
			"reason":        "discriminator_unknown",
			"discriminator": n.key,
			"tag":           tag,
			"options":       n.tags,
		})
		return pc.Abort()
	}
	// Dispatch is deterministic, so the variant runs linked and its issues
	// surface directly instead of being wrapped.
	return variant.run(pc.Child(variant, v), v)
}

// DiscriminatedUnionSchema dispatches objects to one variant by a tag field.
type DiscriminatedUnionSchema struct {
	AnySchema
	dn *discriminatedNode
}

// DiscriminatedUnion dispatches on the string found under key: the mapped
// variant alone validates the object, which keeps failure output focused
// compared to trying every union member. An empty mapping is API misuse and
// panics with *strux.UsageError.
func DiscriminatedUnion(key string, mapping map[string]Schema) DiscriminatedUnionSchema {
	if key == "" || len(mapping) == 0 {
		panic(strux.NewUsageError("DiscriminatedUnion", "a key and at least one variant are required"))
	}
	nodes := make(map[string]node, len(mapping))
	tags := make([]string, 0, len(mapping))
	for tag, s := range mapping {
		nodes[tag] = nodeOf(s)
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	n := &discriminatedNode{key: key, mapping: nodes, tags: tags}
	return DiscriminatedUnionSchema{AnySchema: wrap(n), dn: n}
}

// ---- intersection ----

type intersectionNode struct {
	members []node
}

func (n *intersectionNode) TypeName() string { return "intersection" }

func (n *intersectionNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	outs := make([]any, len(n.members))
	oks := make([]bool, len(n.members))
	clones := make([]*strux.ParseCtx, len(n.members))
	if pc.Async() {
		var g errgroup.Group
		for i, m := range n.members {
			i, m := i, m
			mpc := pc.Clone(m, v)
			clones[i] = mpc
			g.Go(func() error {
				outs[i], oks[i] = m.run(mpc, v)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, m := range n.members {
			mpc := pc.Clone(m, v)
			clones[i] = mpc
			outs[i], oks[i] = m.run(mpc, v)
		}
	}
	anyFailed := false
	for i := range n.members {
		if !oks[i] || clones[i].Invalid() {
			anyFailed = true
			pc.AddRaw(clones[i].Issues()...)
		}
	}
	if anyFailed {
		return pc.Abort()
	}
	merged := outs[0]
	for i := 1; i < len(outs); i++ {
		mv, ok := mergeValues(merged, outs[i])
		if !ok {
			pc.AddIssue(strux.CodeInvalidIntersection, map[string]any{
				"leftKind":  string(strux.KindOf(merged)),
				"rightKind": string(strux.KindOf(outs[i])),
			})
			return pc.Abort()
		}
		merged = mv
	}
	return pc.OK(merged)
}

// mergeValues combines two member outputs pairwise. Objects merge by key
// union, equal-length sequences merge elementwise, dates must be the same
// instant, and any other same-kind non-container pair keeps the left value.
func mergeValues(a, b any) (any, bool) {
	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		if bok && at.Equal(bt) {
			return at, true
		}
		return nil, false
	}
	if am, aok := a.(map[string]any); aok {
		bm, bok := b.(map[string]any)
		if !bok {
			return nil, false
		}
		out := make(map[string]any, len(am)+len(bm))
		for k, av := range am {
			out[k] = av
		}
		for k, bv := range bm {
			if av, shared := out[k]; shared {
				mv, ok := mergeValues(av, bv)
				if !ok {
					return nil, false
				}
				out[k] = mv
				continue
			}
			out[k] = bv
		}
		return out, true
	}
	if as, aok := a.([]any); aok {
		bs, bok := b.([]any)
		if !bok || len(as) != len(bs) {
			return nil, false
		}
		out := make([]any, len(as))
		for i := range as {
			mv, ok := mergeValues(as[i], bs[i])
			if !ok {
				return nil, false
			}
			out[i] = mv
		}
		return out, true
	}
	ka, kb := strux.KindOf(a), strux.KindOf(b)
	if ka != kb {
		return nil, false
	}
	switch ka {
	case strux.KindArray, strux.KindObject, strux.KindMap, strux.KindSet:
		return nil, false
	}
	return a, true
}

// IntersectionSchema requires every member to accept the input and merges
// their outputs left to right.
type IntersectionSchema struct {
	AnySchema
	in *intersectionNode
}

// Intersection builds an all-must-pass schema. Member failures surface
// verbatim; merge conflicts yield one invalid_intersection issue. An empty
// member list is API misuse and panics with *strux.UsageError.
func Intersection(members ...Schema) IntersectionSchema {
	if len(members) == 0 {
		panic(strux.NewUsageError("Intersection", "at least one member is required"))
	}
	n := &intersectionNode{members: nodesOf(members)}
	return IntersectionSchema{AnySchema: wrap(n), in: n}
}
