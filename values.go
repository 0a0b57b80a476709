package strux

import (
	"context"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// UndefinedType is the type of the Undefined sentinel. It marks a value that
// is absent altogether, as opposed to nil which marks an explicit null.
type UndefinedType struct{}

// Undefined is what object traversal hands to a field schema when the key is
// missing from the input. A schema result of Undefined is omitted from the
// parent output.
var Undefined UndefinedType

func (UndefinedType) String() string { return "undefined" }

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)
	return ok
}

// Fn is the function value kind accepted by function schemas. Arguments and
// the return value travel as dynamic values.
type Fn func(args []any) any

// ValueKind classifies an input value for type checks and issue payloads.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindBigInt    ValueKind = "bigint"
	KindBoolean   ValueKind = "boolean"
	KindDate      ValueKind = "date"
	KindSymbol    ValueKind = "symbol"
	KindNull      ValueKind = "null"
	KindUndefined ValueKind = "undefined"
	KindArray     ValueKind = "array"
	KindSet       ValueKind = "set"
	KindObject    ValueKind = "object"
	KindMap       ValueKind = "map"
	KindPromise   ValueKind = "promise"
	KindFunction  ValueKind = "function"
	KindUnknown   ValueKind = "unknown"
)

// KindOf classifies any runtime value into the closed ValueKind set.
// map[string]any is "object"; every other map kind is "map". Numeric
// primitives and json.Number all classify as "number".
func KindOf(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case UndefinedType:
		return KindUndefined
	case string:
		return KindString
	case bool:
		return KindBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return KindNumber
	case *big.Int:
		return KindBigInt
	case time.Time, *time.Time:
		return KindDate
	case Symbol:
		return KindSymbol
	case *Set:
		return KindSet
	case *Deferred:
		return KindPromise
	case Fn:
		return KindFunction
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map:
		return KindMap
	case reflect.Func:
		return KindFunction
	}
	return KindUnknown
}

// NumberValue extracts a float64 out of any numeric kind. ok is false for
// non-numbers and for json.Number values that do not parse.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Set is an insertion-ordered collection of distinct values. Distinctness is
// decided by deep equality so unhashable members (maps, slices) are allowed.
type Set struct {
	vals []any
}

// NewSet builds a Set from the given values, dropping duplicates while
// keeping first-seen order.
func NewSet(vals ...any) *Set {
	s := &Set{}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v unless an equal member already exists. It returns the
// receiver for chaining.
func (s *Set) Add(v any) *Set {
	if !s.Has(v) {
		s.vals = append(s.vals, v)
	}
	return s
}

// Has reports membership by deep equality.
func (s *Set) Has(v any) bool {
	for _, m := range s.vals {
		if reflect.DeepEqual(m, v) {
			return true
		}
	}
	return false
}

// Len returns the member count.
func (s *Set) Len() int { return len(s.vals) }

// Values returns the members in insertion order. The slice is a copy.
func (s *Set) Values() []any {
	out := make([]any, len(s.vals))
	copy(out, s.vals)
	return out
}

// Deferred is a value that materializes later. Await blocks until the
// producer finishes and memoizes the outcome, so repeated awaits are cheap
// and deterministic.
type Deferred struct {
	once sync.Once
	fn   func(ctx context.Context) (any, error)
	val  any
	err  error
}

// NewDeferred wraps a producer. The producer runs at most once, on the first
// Await.
func NewDeferred(fn func(ctx context.Context) (any, error)) *Deferred {
	return &Deferred{fn: fn}
}

// Resolved wraps an already-known value in a Deferred.
func Resolved(v any) *Deferred {
	return &Deferred{fn: func(context.Context) (any, error) { return v, nil }}
}

// Await runs the producer if needed and returns the memoized outcome.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	d.once.Do(func() {
		d.val, d.err = d.fn(ctx)
	})
	return d.val, d.err
}

// Symbol is an opaque marker value. Two Symbols compare equal only when they
// originate from the same NewSymbol call; the description is cosmetic.
type Symbol struct {
	id *symbolID
}

type symbolID struct{ desc string }

// NewSymbol mints a fresh Symbol carrying an optional description.
func NewSymbol(desc string) Symbol {
	return Symbol{id: &symbolID{desc: desc}}
}

// Description returns the label the Symbol was minted with.
func (s Symbol) Description() string {
	if s.id == nil {
		return ""
	}
	return s.id.desc
}

func (s Symbol) String() string {
	if d := s.Description(); d != "" {
		return "Symbol(" + d + ")"
	}
	return "Symbol"
}
