package dsl

import (
	"fmt"
	"reflect"
	"sort"

	strux "github.com/strux-go/strux"
)

// stringMap widens string-keyed map inputs to map[string]any.
func stringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

type recordNode struct {
	key node // nil leaves keys unconstrained
	val node
}

func (n *recordNode) TypeName() string { return "record" }

func (n *recordNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	m, ok := stringMap(v)
	if !ok {
		return failType(pc, "record", v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(m))
	for _, k := range keys {
		if pc.ShouldAbort() {
			break
		}
		outKey := k
		keyOK := true
		if n.key != nil {
			kpc := pc.Child(n.key, k, strux.Key(k))
			kv, kok := n.key.run(kpc, k)
			keyOK = kok && kpc.Valid()
			if keyOK {
				if ks, isStr := kv.(string); isStr {
					outKey = ks
				}
			}
		}
		vpc := pc.Child(n.val, m[k], strux.Key(k))
		vv, vok := n.val.run(vpc, m[k])
		if keyOK && vok && vpc.Valid() {
			out[outKey] = vv
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// RecordSchema validates string-keyed maps with a uniform value schema.
type RecordSchema struct {
	AnySchema
	rn *recordNode
}

// Record validates every value of a string-keyed map against value. Keys
// are unconstrained.
func Record(value Schema) RecordSchema {
	n := &recordNode{val: nodeOf(value)}
	return RecordSchema{AnySchema: wrap(n), rn: n}
}

// Record2 additionally validates each key against key. Key issues are
// recorded at that key's path.
func Record2(key, value Schema) RecordSchema {
	n := &recordNode{key: nodeOf(key), val: nodeOf(value)}
	return RecordSchema{AnySchema: wrap(n), rn: n}
}

type mapNode struct {
	key node
	val node
}

func (n *mapNode) TypeName() string { return "map" }

func (n *mapNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return failType(pc, "map", v)
	}
	type entry struct {
		label string
		key   any
		val   any
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		entries = append(entries, entry{label: fmt.Sprint(k), key: k, val: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].label < entries[j].label })
	out := make(map[any]any, len(entries))
	for _, e := range entries {
		if pc.ShouldAbort() {
			break
		}
		kpc := pc.Child(n.key, e.key, strux.Key(e.label))
		kv, kok := n.key.run(kpc, e.key)
		vpc := pc.Child(n.val, e.val, strux.Key(e.label))
		vv, vok := n.val.run(vpc, e.val)
		if kok && kpc.Valid() && vok && vpc.Valid() {
			// A transformed key must stay usable as a map key.
			if kv != nil && !reflect.TypeOf(kv).Comparable() {
				kv = e.key
			}
			out[kv] = vv
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(out)
}

// MapSchema validates arbitrary Go maps entry by entry.
type MapSchema struct {
	AnySchema
	mn *mapNode
}

// MapOf validates the keys and values of any Go map. Entries are visited in
// a stable order; issue paths use the key's string rendering.
func MapOf(key, value Schema) MapSchema {
	n := &mapNode{key: nodeOf(key), val: nodeOf(value)}
	return MapSchema{AnySchema: wrap(n), mn: n}
}
