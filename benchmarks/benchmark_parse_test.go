package strux_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	strux "github.com/strux-go/strux"
	g "github.com/strux-go/strux/dsl"
)

// ---- Helpers ----

func smallUserSchema() g.ObjectSchema {
	return g.Object().
		Field("id", g.String()).
		Field("name", g.Optional(g.String())).
		Strict()
}

func smallUserJSON() []byte {
	return []byte(`{"id":"u_1","name":"alice"}`)
}

// generateHugeJSONArray returns a JSON array of objects of the form:
// [{"sku":"sku_0","name":"n0","qty":0,"active":true,"meta":{"score":0},"k0":"v0_0",...}, ...]
func generateHugeJSONArray(numObjects, extraFields int) []byte {
	var sb strings.Builder
	sb.Grow(numObjects * (64 + extraFields*16))
	sb.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('{')
		fmt.Fprintf(&sb, "\"sku\":\"sku_%d\",", i)
		fmt.Fprintf(&sb, "\"name\":\"n%d\",", i)
		fmt.Fprintf(&sb, "\"qty\":%d,", i)
		if i%2 == 0 {
			sb.WriteString("\"active\":true,")
		} else {
			sb.WriteString("\"active\":false,")
		}
		fmt.Fprintf(&sb, "\"meta\":{\"score\":%d}", i)
		for k := 0; k < extraFields; k++ {
			sb.WriteString(",\"k")
			sb.WriteString(strconv.Itoa(k))
			sb.WriteString("\":\"v")
			sb.WriteString(strconv.Itoa(i))
			sb.WriteString("_")
			sb.WriteString(strconv.Itoa(k))
			sb.WriteString("\"")
		}
		sb.WriteByte('}')
	}
	sb.WriteByte(']')
	return []byte(sb.String())
}

// schema for the huge array: only requires sku; extras are stripped, which is
// the throughput-oriented configuration.
func hugeItemSchema() g.ObjectSchema {
	return g.Object().
		Field("sku", g.String()).
		Field("qty", g.Optional(g.Number()))
}

// ---- Micro benchmarks (small inputs) ----

func Benchmark_Parse_Object_Small(b *testing.B) {
	ctx := context.Background()
	s := smallUserSchema()
	v, err := strux.FromJSON(smallUserJSON())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Parse(ctx, v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Parse_Object_Small_FromJSON(b *testing.B) {
	ctx := context.Background()
	s := smallUserSchema()
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v, err := strux.FromJSON(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := s.Parse(ctx, v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Parse_Array_String_Small(b *testing.B) {
	ctx := context.Background()
	s := g.Array(g.String())
	v := []any{"a", "b", "c"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Parse(ctx, v); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Macro benchmarks (huge JSON) ----

// 10k objects with 8 extra fields each ~ O(10-20MB) depending on numbers
const (
	hugeObjects   = 10000
	hugeExtraKeys = 8
)

func Benchmark_FromJSON_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := strux.FromJSON(data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_FromJSON_HugeArray_UseNumber(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := strux.FromJSON(data, strux.DecodeOpt{UseNumber: true}); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Parse_HugeArray_Objects(b *testing.B) {
	ctx := context.Background()
	s := g.Array(hugeItemSchema())
	v, err := strux.FromJSON(generateHugeJSONArray(hugeObjects, hugeExtraKeys))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Parse(ctx, v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Parse_HugeArray_Objects_FromJSON(b *testing.B) {
	ctx := context.Background()
	s := g.Array(hugeItemSchema())
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v, err := strux.FromJSON(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := s.Parse(ctx, v); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Baseline: encoding/json ----

func Benchmark_encodingJSON_Unmarshal_SmallObject(b *testing.B) {
	data := smallUserJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_encodingJSON_Unmarshal_HugeArray(b *testing.B) {
	data := generateHugeJSONArray(hugeObjects, hugeExtraKeys)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v []map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}
