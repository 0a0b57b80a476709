package schemafile

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	strux "github.com/strux-go/strux"
	"github.com/strux-go/strux/dsl"
)

type compiler struct {
	opts  Options
	diag  *simpleDiag
	defs  map[string]any
	built map[string]dsl.Schema
	busy  map[string]bool
}

func (c *compiler) compile(m map[string]any) (dsl.Schema, error) {
	base, err := c.compileBase(m)
	if err != nil {
		return nil, err
	}
	return applyWrappers(m, base), nil
}

func (c *compiler) compileBase(m map[string]any) (dsl.Schema, error) {
	if ref, ok := m["ref"].(string); ok {
		return c.ref(ref)
	}
	typ, _ := m["type"].(string)
	switch typ {
	case "string":
		return c.compileString(m)
	case "number", "integer":
		return c.compileNumber(m, typ == "integer")
	case "boolean":
		return c.compileBoolean(m)
	case "date":
		return c.compileDate(m)
	case "null":
		return dsl.Null(), nil
	case "any":
		return dsl.Any(), nil
	case "never":
		return dsl.Never(), nil
	case "literal":
		v, ok := m["value"]
		if !ok {
			return nil, errors.New("schemafile: literal node needs a value")
		}
		return dsl.Literal(v), nil
	case "enum":
		return c.compileEnum(m)
	case "array":
		return c.compileArray(m)
	case "set":
		return c.compileSet(m)
	case "tuple":
		return c.compileTuple(m)
	case "record":
		return c.compileRecord(m)
	case "object":
		return c.compileObject(m)
	case "union":
		return c.compileUnion(m)
	case "intersection":
		return c.compileIntersection(m)
	case "":
		if _, ok := m["fields"]; ok {
			c.diag.warnf("node without type treated as object")
			return c.compileObject(m)
		}
		return nil, errors.New("schemafile: node missing type")
	default:
		return nil, fmt.Errorf("schemafile: unsupported type %q", typ)
	}
}

// ref resolves a named def, building it on first use. A ref hit while its
// own def is still compiling is a recursive reference and resolves lazily;
// by the time any parse runs, the def has finished building.
func (c *compiler) ref(name string) (dsl.Schema, error) {
	if s, ok := c.built[name]; ok {
		return s, nil
	}
	raw, ok := c.defs[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schemafile: ref to unknown def %q", name)
	}
	if c.busy[name] {
		return dsl.Lazy(func() dsl.Schema {
			if s, ok := c.built[name]; ok {
				return s
			}
			return dsl.Never()
		}), nil
	}
	c.busy[name] = true
	s, err := c.compile(raw)
	delete(c.busy, name)
	if err != nil {
		return nil, fmt.Errorf("schemafile: def %q: %w", name, err)
	}
	c.built[name] = s
	return s, nil
}

func applyWrappers(m map[string]any, s dsl.Schema) dsl.Schema {
	if b, _ := m["nullable"].(bool); b {
		s = dsl.Nullable(s)
	}
	if v, ok := m["default"]; ok {
		// a default subsumes optional: absent input takes the fallback
		return dsl.Default(s, v)
	}
	if b, _ := m["optional"].(bool); b {
		s = dsl.Optional(s)
	}
	return s
}

func (c *compiler) compileString(m map[string]any) (dsl.Schema, error) {
	s := dsl.String()
	checks, err := checkMap(m)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(checks) {
		v := checks[name]
		switch name {
		case "min":
			n, ok := asInt(v)
			if !ok {
				return nil, badCheck("string", name, v)
			}
			s = s.Min(n)
		case "max":
			n, ok := asInt(v)
			if !ok {
				return nil, badCheck("string", name, v)
			}
			s = s.Max(n)
		case "length":
			n, ok := asInt(v)
			if !ok {
				return nil, badCheck("string", name, v)
			}
			s = s.Len(n)
		case "nonempty":
			if b, _ := v.(bool); b {
				s = s.NonEmpty()
			}
		case "pattern":
			expr, ok := v.(string)
			if !ok {
				return nil, badCheck("string", name, v)
			}
			// document input is data; validate here instead of letting the
			// builder panic
			if _, err := regexp.Compile(expr); err != nil {
				return nil, fmt.Errorf("schemafile: invalid pattern: %w", err)
			}
			s = s.Pattern(expr)
		case "email":
			if b, _ := v.(bool); b {
				s = s.Email()
			}
		case "url":
			if b, _ := v.(bool); b {
				s = s.URL()
			}
		case "uuid":
			if b, _ := v.(bool); b {
				s = s.UUID()
			}
		default:
			c.diag.warnf("unknown string check %q ignored", name)
		}
	}
	return s, nil
}

func (c *compiler) compileNumber(m map[string]any, integral bool) (dsl.Schema, error) {
	s := dsl.Number()
	if integral {
		s = s.Int()
	}
	checks, err := checkMap(m)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(checks) {
		v := checks[name]
		switch name {
		case "min", "max", "gt", "lt", "multipleOf":
			f, ok := asFloat(v)
			if !ok {
				return nil, badCheck("number", name, v)
			}
			switch name {
			case "min":
				s = s.Min(f)
			case "max":
				s = s.Max(f)
			case "gt":
				s = s.Gt(f)
			case "lt":
				s = s.Lt(f)
			case "multipleOf":
				s = s.MultipleOf(f)
			}
		case "int":
			if b, _ := v.(bool); b {
				s = s.Int()
			}
		case "positive":
			if b, _ := v.(bool); b {
				s = s.Positive()
			}
		case "negative":
			if b, _ := v.(bool); b {
				s = s.Negative()
			}
		default:
			c.diag.warnf("unknown number check %q ignored", name)
		}
	}
	return s, nil
}

func (c *compiler) compileBoolean(m map[string]any) (dsl.Schema, error) {
	s := dsl.Boolean()
	if b, _ := m["coerce"].(bool); b {
		s = s.Coerce()
	}
	if vals, ok := m["truthy"].([]any); ok {
		s = s.Truthy(vals...)
	}
	if vals, ok := m["falsy"].([]any); ok {
		s = s.Falsy(vals...)
	}
	return s, nil
}

func (c *compiler) compileDate(m map[string]any) (dsl.Schema, error) {
	s := dsl.Date()
	switch coerce := m["coerce"].(type) {
	case bool:
		if coerce {
			s = s.Coerce()
		}
	case string:
		switch coerce {
		case "strings":
			s = s.CoerceStrings()
		case "numbers":
			s = s.CoerceNumbers()
		default:
			return nil, fmt.Errorf("schemafile: unknown date coerce mode %q", coerce)
		}
	}
	checks, err := checkMap(m)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(checks) {
		v := checks[name]
		switch name {
		case "min", "max":
			raw, ok := v.(string)
			if !ok {
				return nil, badCheck("date", name, v)
			}
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("schemafile: date %s bound: %w", name, err)
			}
			if name == "min" {
				s = s.Min(t, true)
			} else {
				s = s.Max(t, true)
			}
		default:
			c.diag.warnf("unknown date check %q ignored", name)
		}
	}
	return s, nil
}

func (c *compiler) compileEnum(m map[string]any) (dsl.Schema, error) {
	raw, ok := m["values"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("schemafile: enum node needs values")
	}
	vals := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("schemafile: enum values must be strings, got %T", v)
		}
		vals[i] = s
	}
	return dsl.Enum(vals...), nil
}

func (c *compiler) compileArray(m map[string]any) (dsl.Schema, error) {
	elem, err := c.childNode(m, "items")
	if err != nil {
		return nil, err
	}
	s := dsl.Array(elem)
	checks, err := checkMap(m)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(checks) {
		v := checks[name]
		switch name {
		case "min", "max", "length":
			n, ok := asInt(v)
			if !ok {
				return nil, badCheck("array", name, v)
			}
			switch name {
			case "min":
				s = s.Min(n)
			case "max":
				s = s.Max(n)
			case "length":
				s = s.Len(n)
			}
		case "nonempty":
			if b, _ := v.(bool); b {
				s = s.NonEmpty()
			}
		case "sorted":
			switch v {
			case "ascending":
				s = s.Ascending()
			case "descending":
				s = s.Descending()
			default:
				return nil, badCheck("array", name, v)
			}
		default:
			c.diag.warnf("unknown array check %q ignored", name)
		}
	}
	return s, nil
}

func (c *compiler) compileSet(m map[string]any) (dsl.Schema, error) {
	elem, err := c.childNode(m, "items")
	if err != nil {
		return nil, err
	}
	s := dsl.SetOf(elem)
	checks, err := checkMap(m)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(checks) {
		n, ok := asInt(checks[name])
		if !ok {
			return nil, badCheck("set", name, checks[name])
		}
		switch name {
		case "min":
			s = s.Min(n)
		case "max":
			s = s.Max(n)
		case "size":
			s = s.Size(n)
		default:
			c.diag.warnf("unknown set check %q ignored", name)
		}
	}
	return s, nil
}

func (c *compiler) compileTuple(m map[string]any) (dsl.Schema, error) {
	raw, ok := m["items"].([]any)
	if !ok {
		return nil, errors.New("schemafile: tuple node needs an items sequence")
	}
	items := make([]dsl.Schema, len(raw))
	for i, it := range raw {
		im, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schemafile: tuple item %d must be a mapping", i)
		}
		s, err := c.compile(im)
		if err != nil {
			return nil, err
		}
		items[i] = s
	}
	t := dsl.Tuple(items...)
	if rest, ok := m["rest"].(map[string]any); ok {
		rs, err := c.compile(rest)
		if err != nil {
			return nil, err
		}
		t = t.Rest(rs)
	}
	return t, nil
}

func (c *compiler) compileRecord(m map[string]any) (dsl.Schema, error) {
	val, err := c.childNode(m, "values")
	if err != nil {
		return nil, err
	}
	if keys, ok := m["keys"].(map[string]any); ok {
		ks, err := c.compile(keys)
		if err != nil {
			return nil, err
		}
		return dsl.Record2(ks, val), nil
	}
	return dsl.Record(val), nil
}

func (c *compiler) compileObject(m map[string]any) (dsl.Schema, error) {
	s := dsl.Object()
	if fm, ok := m["fields"].(map[string]any); ok {
		// sorted for deterministic construction; YAML mappings decode unordered
		for _, name := range sortedKeys(fm) {
			raw, ok := fm[name].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("schemafile: field %q must be a mapping", name)
			}
			fs, err := c.compile(raw)
			if err != nil {
				return nil, fmt.Errorf("schemafile: field %q: %w", name, err)
			}
			s = s.Field(name, fs)
		}
	}
	if ca, ok := m["catchall"].(map[string]any); ok {
		cs, err := c.compile(ca)
		if err != nil {
			return nil, err
		}
		return s.Catchall(cs), nil
	}
	policy, declared := m["unknown"].(string)
	if !declared {
		switch c.opts.DefaultUnknown {
		case UnknownStrict:
			policy = "strict"
		case UnknownPassthrough:
			policy = "passthrough"
		default:
			policy = "strip"
		}
	}
	switch policy {
	case "strip":
		return s.Strip(), nil
	case "strict":
		return s.Strict(), nil
	case "passthrough":
		return s.Passthrough(), nil
	default:
		return nil, fmt.Errorf("schemafile: unknown policy %q", policy)
	}
}

func (c *compiler) compileUnion(m map[string]any) (dsl.Schema, error) {
	if key, ok := m["discriminator"].(string); ok {
		vm, ok := m["variants"].(map[string]any)
		if !ok || len(vm) == 0 {
			return nil, errors.New("schemafile: discriminated union needs a variants mapping")
		}
		mapping := make(map[string]dsl.Schema, len(vm))
		for _, tag := range sortedKeys(vm) {
			raw, ok := vm[tag].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("schemafile: variant %q must be a mapping", tag)
			}
			vs, err := c.compile(raw)
			if err != nil {
				return nil, fmt.Errorf("schemafile: variant %q: %w", tag, err)
			}
			mapping[tag] = vs
		}
		return dsl.DiscriminatedUnion(key, mapping), nil
	}
	raw, ok := m["variants"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("schemafile: union node needs variants")
	}
	members := make([]dsl.Schema, len(raw))
	for i, it := range raw {
		im, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schemafile: union variant %d must be a mapping", i)
		}
		vs, err := c.compile(im)
		if err != nil {
			return nil, err
		}
		members[i] = vs
	}
	return dsl.Union(members...), nil
}

func (c *compiler) compileIntersection(m map[string]any) (dsl.Schema, error) {
	raw, ok := m["members"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("schemafile: intersection node needs members")
	}
	members := make([]dsl.Schema, len(raw))
	for i, it := range raw {
		im, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schemafile: intersection member %d must be a mapping", i)
		}
		ms, err := c.compile(im)
		if err != nil {
			return nil, err
		}
		members[i] = ms
	}
	return dsl.Intersection(members...), nil
}

func (c *compiler) childNode(m map[string]any, key string) (dsl.Schema, error) {
	raw, ok := m[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schemafile: %s node needs %s", m["type"], key)
	}
	s, err := c.compile(raw)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func checkMap(m map[string]any) (map[string]any, error) {
	raw, present := m["checks"]
	if !present {
		return nil, nil
	}
	cm, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("schemafile: checks must be a mapping")
	}
	return cm, nil
}

func badCheck(typ, name string, v any) error {
	return fmt.Errorf("schemafile: bad %s check %s: %v", typ, name, v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asInt(v any) (int, bool) {
	f, ok := strux.NumberValue(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func asFloat(v any) (float64, bool) {
	return strux.NumberValue(v)
}
