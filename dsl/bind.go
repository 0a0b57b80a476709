package dsl

import (
	"context"
	"reflect"

	strux "github.com/strux-go/strux"
)

// BoundSchema decodes validated objects into struct values of type T.
type BoundSchema[T any] struct {
	inner      ObjectSchema
	t          reflect.Type
	fieldByKey map[string]int
}

// BindStruct binds an object schema to struct type T. Field keys resolve
// through the strux tag, then the json tag, then the field name; "-"
// disables a field. A non-struct T is API misuse and panics with
// *strux.UsageError.
func BindStruct[T any](s ObjectSchema) BoundSchema[T] {
	var probe T
	rt := reflect.TypeOf(&probe).Elem()
	if rt.Kind() != reflect.Struct {
		panic(strux.NewUsageError("BindStruct", "T must be a struct, got %s", rt.Kind()))
	}
	idxByName := make(map[string]int)
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strux.ResolveStructKey(sf)
		if name == "" || name == "-" {
			continue
		}
		idxByName[name] = i
	}
	fm := make(map[string]int)
	for _, f := range s.on.fields {
		if i, ok := idxByName[f.name]; ok {
			fm[f.name] = i
		}
	}
	return BoundSchema[T]{inner: s, t: rt, fieldByKey: fm}
}

func bindMismatch(key string, want reflect.Type, val any) strux.Issues {
	root := strux.NewParseCtx(context.Background(), nil, val, false, strux.ParseOpt{})
	cpc := root.Child(nil, val, strux.Key(key))
	cpc.AddIssue(strux.CodeInvalidType, map[string]any{
		"expected": want.String(),
		"received": string(strux.KindOf(val)),
	})
	return root.Issues()
}

// Parse validates data through the object schema, then assigns the output
// into a fresh T by resolved key. Values assign directly when possible,
// convert (e.g. float64 into int fields) otherwise, and recurse through
// nested slices, maps and structs; an inconvertible value yields an
// invalid_type issue at that key.
func (b BoundSchema[T]) Parse(ctx context.Context, data any, opts ...strux.ParseOpt) (T, error) {
	var zero T
	res := b.inner.SafeParse(ctx, data, opts...)
	if !res.OK {
		return zero, res.Err
	}
	m, _ := res.Value.(map[string]any)
	rv := reflect.New(b.t).Elem()
	for key, idx := range b.fieldByKey {
		val, ok := m[key]
		if !ok {
			continue
		}
		fv := rv.Field(idx)
		if !fv.CanSet() {
			continue
		}
		if !bindValue(fv, val) {
			return zero, bindMismatch(key, fv.Type(), val)
		}
	}
	return rv.Interface().(T), nil
}

// bindValue assigns val into dst, recursing through []any elements,
// map[string]any entries and nested struct fields.
func bindValue(dst reflect.Value, val any) bool {
	if val == nil {
		switch dst.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			dst.Set(reflect.Zero(dst.Type()))
		}
		return true
	}
	vv := reflect.ValueOf(val)
	switch {
	case vv.Type().AssignableTo(dst.Type()):
		dst.Set(vv)
		return true
	case dst.Kind() == reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if !bindValue(p.Elem(), val) {
			return false
		}
		dst.Set(p)
		return true
	}
	switch v := val.(type) {
	case []any:
		if dst.Kind() != reflect.Slice {
			return false
		}
		out := reflect.MakeSlice(dst.Type(), len(v), len(v))
		for i, item := range v {
			if !bindValue(out.Index(i), item) {
				return false
			}
		}
		dst.Set(out)
		return true
	case map[string]any:
		switch dst.Kind() {
		case reflect.Struct:
			for i := 0; i < dst.NumField(); i++ {
				sf := dst.Type().Field(i)
				if !sf.IsExported() {
					continue
				}
				name := strux.ResolveStructKey(sf)
				if name == "" || name == "-" {
					continue
				}
				fval, ok := v[name]
				if !ok {
					continue
				}
				if !bindValue(dst.Field(i), fval) {
					return false
				}
			}
			return true
		case reflect.Map:
			if dst.Type().Key().Kind() != reflect.String {
				return false
			}
			out := reflect.MakeMapWithSize(dst.Type(), len(v))
			for k, mval := range v {
				ev := reflect.New(dst.Type().Elem()).Elem()
				if !bindValue(ev, mval) {
					return false
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), ev)
			}
			dst.Set(out)
			return true
		}
		return false
	}
	if vv.Type().ConvertibleTo(dst.Type()) {
		// String-to-number conversions are legal in reflect but never what
		// a caller wants from decoded data.
		if vv.Kind() == reflect.String && dst.Kind() != reflect.String {
			return false
		}
		dst.Set(vv.Convert(dst.Type()))
		return true
	}
	return false
}

// MustParse is Parse panicking on failure.
func (b BoundSchema[T]) MustParse(ctx context.Context, data any, opts ...strux.ParseOpt) T {
	v, err := b.Parse(ctx, data, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Schema returns the underlying object schema.
func (b BoundSchema[T]) Schema() ObjectSchema { return b.inner }
