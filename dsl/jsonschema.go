package dsl

import (
	"fmt"
	"math/big"
	"sort"

	js "github.com/strux-go/strux/jsonschema"
)

// JSONSchema projects s into a JSON Schema document. Layers without schema
// vocabulary (refinements, transforms, preprocessing, object rules) project
// as the schema they wrap, so the document describes accepted input rather
// than transformed output. Schemas for non-data values (symbol, instanceof,
// function, promise, non-string-keyed map) have no projection and return an
// error.
func JSONSchema(s Schema) (*js.Schema, error) {
	p := &projector{}
	return p.project(nodeOf(s))
}

type projector struct {
	// lazy nodes currently being projected; a revisit is a recursive
	// reference and projects as the unconstrained schema
	busy map[*lazyNode]bool
}

func (p *projector) project(n node) (*js.Schema, error) {
	switch t := n.(type) {
	case *stringNode:
		return projectString(t), nil
	case *numberNode:
		return projectNumber(t), nil
	case *bigintNode:
		return projectBigInt(t), nil
	case *booleanNode:
		return &js.Schema{Type: "boolean"}, nil
	case *dateNode:
		return &js.Schema{Type: "string", Format: "date-time"}, nil
	case *literalNode:
		return &js.Schema{Const: t.want}, nil
	case *enumNode:
		vals := make([]any, len(t.vals))
		for i, v := range t.vals {
			vals[i] = v
		}
		return &js.Schema{Type: "string", Enum: vals}, nil
	case *anyNode:
		return &js.Schema{}, nil
	case *neverNode:
		return &js.Schema{Not: &js.Schema{}}, nil
	case *nullNode:
		return &js.Schema{Type: "null"}, nil
	case *undefinedNode:
		// no JSON instance is ever absent, so nothing matches
		return &js.Schema{Not: &js.Schema{}}, nil
	case *arrayNode:
		return p.projectArray(t)
	case *setNode:
		return p.projectSet(t)
	case *tupleNode:
		return p.projectTuple(t)
	case *recordNode:
		return p.projectRecord(t)
	case *objectNode:
		return p.projectObject(t)
	case *unionNode:
		return p.projectMembers(t.members, func(s *js.Schema, ms []*js.Schema) { s.OneOf = ms })
	case *discriminatedNode:
		members := make([]node, len(t.tags))
		for i, tag := range t.tags {
			members[i] = t.mapping[tag]
		}
		return p.projectMembers(members, func(s *js.Schema, ms []*js.Schema) { s.OneOf = ms })
	case *intersectionNode:
		return p.projectMembers(t.members, func(s *js.Schema, ms []*js.Schema) { s.AllOf = ms })
	case *optionalNode:
		// absence is an object-level concern; the value schema is the inner one
		return p.project(t.inner)
	case *nullableNode:
		inner, err := p.project(t.inner)
		if err != nil {
			return nil, err
		}
		return &js.Schema{OneOf: []*js.Schema{inner, {Type: "null"}}}, nil
	case *defaultNode:
		inner, err := p.project(t.inner)
		if err != nil {
			return nil, err
		}
		inner.Default = t.defaultValue()
		return inner, nil
	case *catchNode:
		return p.project(t.inner)
	case *brandNode:
		return p.project(t.inner)
	case *lazyNode:
		if p.busy[t] {
			return &js.Schema{}, nil
		}
		if p.busy == nil {
			p.busy = map[*lazyNode]bool{}
		}
		p.busy[t] = true
		defer delete(p.busy, t)
		return p.project(t.resolve())
	case *optionsNode:
		return p.project(t.inner)
	case *preprocessNode:
		return p.project(t.inner)
	case *refineNode:
		return p.project(t.inner)
	case *transformNode:
		return p.project(t.inner)
	case *checkNode:
		return p.project(t.inner)
	case *symbolNode, *instanceNode, *functionNode, *promiseNode, *mapNode:
		return nil, fmt.Errorf("jsonschema: no projection for %s schemas", n.TypeName())
	}
	return nil, fmt.Errorf("jsonschema: no projection for %s schemas", n.TypeName())
}

func projectString(n *stringNode) *js.Schema {
	s := &js.Schema{Type: "string"}
	var extra []*js.Schema
	for _, c := range n.checks {
		switch c.kind {
		case "min":
			v := c.n
			s.MinLength = &v
		case "max":
			v := c.n
			s.MaxLength = &v
		case "length":
			lo, hi := c.n, c.n
			s.MinLength, s.MaxLength = &lo, &hi
		case "nonempty":
			if s.MinLength == nil {
				one := 1
				s.MinLength = &one
			}
		case "pattern":
			if s.Pattern == "" {
				s.Pattern = c.re.String()
			} else {
				// patterns stack at runtime; extras ride along in allOf
				extra = append(extra, &js.Schema{Pattern: c.re.String()})
			}
		case "email":
			s.Format = "email"
		case "url":
			s.Format = "uri"
		case "uuid":
			s.Format = "uuid"
		}
	}
	s.AllOf = extra
	return s
}

func projectNumber(n *numberNode) *js.Schema {
	s := &js.Schema{Type: "number"}
	for _, c := range n.checks {
		v := c.val
		switch c.kind {
		case "min":
			s.Minimum = &v
		case "max":
			s.Maximum = &v
		case "gt":
			s.ExclusiveMinimum = &v
		case "lt":
			s.ExclusiveMaximum = &v
		case "int":
			s.Type = "integer"
		case "multiple_of":
			s.MultipleOf = &v
		case "positive":
			zero := 0.0
			s.ExclusiveMinimum = &zero
		case "negative":
			zero := 0.0
			s.ExclusiveMaximum = &zero
		}
	}
	return s
}

func projectBigInt(n *bigintNode) *js.Schema {
	s := &js.Schema{Type: "integer"}
	for _, c := range n.checks {
		switch c.kind {
		case "min":
			f, _ := new(big.Float).SetInt(c.val).Float64()
			s.Minimum = &f
		case "max":
			f, _ := new(big.Float).SetInt(c.val).Float64()
			s.Maximum = &f
		case "positive":
			zero := 0.0
			s.ExclusiveMinimum = &zero
		case "negative":
			zero := 0.0
			s.ExclusiveMaximum = &zero
		}
	}
	return s
}

func (p *projector) projectArray(n *arrayNode) (*js.Schema, error) {
	es, err := p.project(n.elem)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es}
	for _, c := range n.checks {
		switch c.kind {
		case "min":
			v := c.n
			s.MinItems = &v
		case "max":
			v := c.n
			s.MaxItems = &v
		case "length":
			lo, hi := c.n, c.n
			s.MinItems, s.MaxItems = &lo, &hi
		}
		// ordering checks have no JSON Schema vocabulary
	}
	return s, nil
}

func (p *projector) projectSet(n *setNode) (*js.Schema, error) {
	es, err := p.project(n.elem)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es, UniqueItems: true}
	if n.size != nil {
		lo, hi := *n.size, *n.size
		s.MinItems, s.MaxItems = &lo, &hi
		return s, nil
	}
	if n.min != nil {
		v := *n.min
		s.MinItems = &v
	}
	if n.max != nil {
		v := *n.max
		s.MaxItems = &v
	}
	return s, nil
}

func (p *projector) projectTuple(n *tupleNode) (*js.Schema, error) {
	s := &js.Schema{Type: "array"}
	s.PrefixItems = make([]*js.Schema, len(n.items))
	for i, it := range n.items {
		is, err := p.project(it)
		if err != nil {
			return nil, err
		}
		s.PrefixItems[i] = is
	}
	lo := len(n.items)
	s.MinItems = &lo
	if n.rest != nil {
		rs, err := p.project(n.rest)
		if err != nil {
			return nil, err
		}
		s.Items = rs
	} else {
		hi := len(n.items)
		s.MaxItems = &hi
	}
	return s, nil
}

func (p *projector) projectRecord(n *recordNode) (*js.Schema, error) {
	vs, err := p.project(n.val)
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "object", AdditionalProperties: vs}
	if n.key != nil {
		ks, err := p.project(n.key)
		if err != nil {
			return nil, err
		}
		s.PropertyNames = ks
	}
	return s, nil
}

func (p *projector) projectObject(n *objectNode) (*js.Schema, error) {
	props := make(map[string]*js.Schema, len(n.fields))
	var req []string
	for _, f := range n.fields {
		fs, err := p.project(f.n)
		if err != nil {
			return nil, err
		}
		props[f.name] = fs
		if !acceptsAbsent(f.n) {
			req = append(req, f.name)
		}
	}
	sort.Strings(req)
	s := &js.Schema{Type: "object", Properties: props, Required: req}
	if n.catchall != nil {
		cs, err := p.project(n.catchall)
		if err != nil {
			return nil, err
		}
		s.AdditionalProperties = cs
		return s, nil
	}
	switch n.policy {
	case unknownStrict:
		s.AdditionalProperties = false
	default:
		// strip accepts then discards, passthrough retains; both admit extras
		s.AdditionalProperties = true
	}
	return s, nil
}

func (p *projector) projectMembers(members []node, attach func(*js.Schema, []*js.Schema)) (*js.Schema, error) {
	out := make([]*js.Schema, len(members))
	for i, m := range members {
		ms, err := p.project(m)
		if err != nil {
			return nil, err
		}
		out[i] = ms
	}
	s := &js.Schema{}
	attach(s, out)
	return s, nil
}

// acceptsAbsent reports whether a field schema tolerates a missing value,
// which decides the object projection's required list.
func acceptsAbsent(n node) bool {
	for {
		switch t := n.(type) {
		case *optionalNode, *defaultNode, *catchNode:
			return true
		case *anyNode, *undefinedNode:
			return true
		case *nullableNode:
			n = t.inner
		case *brandNode:
			n = t.inner
		case *optionsNode:
			n = t.inner
		case *refineNode:
			n = t.inner
		case *transformNode:
			n = t.inner
		case *preprocessNode:
			n = t.inner
		default:
			return false
		}
	}
}
