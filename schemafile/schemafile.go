// Package schemafile compiles schema documents into dsl schemas, so
// validation rules can live in configuration instead of Go code. Documents
// are YAML (JSON is valid YAML and works unchanged):
//
//	defs:
//	  address:
//	    type: object
//	    fields:
//	      street: { type: string, checks: { min: 1 } }
//	      city:   { type: string }
//	type: object
//	unknown: strict
//	fields:
//	  name:  { type: string, checks: { min: 1, max: 80 } }
//	  email: { type: string, checks: { email: true }, optional: true }
//	  age:   { type: integer, checks: { min: 0 }, default: 0 }
//	  home:  { ref: address }
//	  tags:  { type: array, items: { type: string }, checks: { nonempty: true } }
//	  role:  { type: enum, values: [admin, user] }
//
// Node vocabulary: type (string, number, integer, bigint-less; boolean,
// date, null, any, never, literal, enum, array, set, tuple, record, object,
// union, intersection), ref into defs (recursive refs allowed), and the
// wrapper keys optional, nullable, and default. Checks mirror the dsl
// builder methods of each type. Unknown check names warn and are skipped;
// structural mistakes are errors.
package schemafile

import (
	"errors"
	"fmt"
	"os"

	strux "github.com/strux-go/strux"
	"github.com/strux-go/strux/dsl"
	"gopkg.in/yaml.v3"
)

// Load compiles a YAML or JSON schema document.
func Load(data []byte, opts Options) (dsl.Schema, Diag, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("schemafile: invalid document: %w", err)
	}
	doc, ok := strux.NormalizeValue(raw).(map[string]any)
	if !ok {
		return nil, &simpleDiag{}, errors.New("schemafile: document root must be a mapping")
	}
	return Compile(doc, opts)
}

// LoadFile is Load over a file path.
func LoadFile(path string, opts Options) (dsl.Schema, Diag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("schemafile: %w", err)
	}
	return Load(data, opts)
}

// Compile builds a dsl schema from a decoded document. The document map may
// carry a defs mapping next to the root schema node; refs resolve against
// it, including recursively.
func Compile(doc map[string]any, opts Options) (dsl.Schema, Diag, error) {
	d := &simpleDiag{}
	if doc == nil {
		return nil, d, errors.New("schemafile: nil document")
	}
	c := &compiler{
		opts:  opts,
		diag:  d,
		built: map[string]dsl.Schema{},
		busy:  map[string]bool{},
	}
	if defs, ok := doc["defs"].(map[string]any); ok {
		c.defs = defs
	}
	s, err := c.compile(doc)
	return s, d, err
}
