package strux

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/strux-go/strux/internal/decode"
)

// DupKeyMode controls how the JSON front door treats duplicate object keys.
type DupKeyMode int

const (
	DupKeyLast  DupKeyMode = iota // keep the last occurrence (plain JSON behavior)
	DupKeyFirst                   // keep the first occurrence
	DupKeyError                   // reject the document
)

// DecodeOpt bundles front-door enforcement options. Zero values disable the
// respective limit.
type DecodeOpt struct {
	OnDuplicateKey DupKeyMode
	MaxDepth       int
	MaxBytes       int64
	// UseNumber preserves JSON numbers as json.Number instead of float64.
	UseNumber bool
}

func mergeDecodeOpts(opts []DecodeOpt) decode.Options {
	var o DecodeOpt
	for _, it := range opts {
		if it.OnDuplicateKey != DupKeyLast {
			o.OnDuplicateKey = it.OnDuplicateKey
		}
		if it.MaxDepth > 0 {
			o.MaxDepth = it.MaxDepth
		}
		if it.MaxBytes > 0 {
			o.MaxBytes = it.MaxBytes
		}
		if it.UseNumber {
			o.UseNumber = true
		}
	}
	return decode.Options{
		OnDuplicate: decode.DupMode(o.OnDuplicateKey),
		MaxDepth:    o.MaxDepth,
		MaxBytes:    o.MaxBytes,
		UseNumber:   o.UseNumber,
	}
}

// FromJSON materializes a JSON document into the dynamic value shapes the
// schemas consume: map[string]any, []any, string, bool, float64 and nil.
// Enforcement (duplicate keys, depth, bytes) happens during decoding, before
// any schema runs.
func FromJSON(data []byte, opts ...DecodeOpt) (any, error) {
	return FromJSONReader(bytes.NewReader(data), opts...)
}

// FromJSONReader is FromJSON over a stream.
func FromJSONReader(r io.Reader, opts ...DecodeOpt) (any, error) {
	return decode.Decode(r, mergeDecodeOpts(opts))
}

// FromYAML materializes a YAML document. Mapping keys are stringified, so
// the result uses the same shapes as FromJSON. YAML timestamps arrive as
// time.Time, which feeds date schemas directly.
func FromYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("strux: yaml: %w", err)
	}
	return NormalizeValue(v), nil
}

// FromTOML materializes a TOML document. Datetimes arrive as time.Time.
func FromTOML(data []byte) (any, error) {
	m := map[string]any{}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("strux: toml: %w", err)
	}
	return NormalizeValue(m), nil
}

// FromMsgpack materializes a MessagePack document.
func FromMsgpack(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("strux: msgpack: %w", err)
	}
	return NormalizeValue(v), nil
}

// NormalizeValue rewrites decoder-specific container shapes into the
// canonical ones: every map becomes map[string]any with stringified keys and
// every slice becomes []any. Scalars pass through unchanged.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = NormalizeValue(e)
		}
		return t
	case []any:
		for i := range t {
			t[i] = NormalizeValue(t[i])
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = NormalizeValue(e)
		}
		return out
	case []byte, nil:
		return t
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = NormalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = NormalizeValue(iter.Value().Interface())
		}
		return out
	}
	return v
}
