// Package decode materializes JSON input into dynamic values while
// enforcing document-level limits: duplicate key handling, maximum nesting
// depth, and maximum consumed bytes. It sits below the public front doors
// and knows nothing about schemas.
package decode

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DupMode controls what happens when an object carries the same key twice.
type DupMode int

const (
	DupLast  DupMode = iota // keep the last occurrence (plain JSON behavior)
	DupFirst                // keep the first occurrence
	DupError                // reject the document
)

// Options bundles enforcement settings. Zero values disable the respective
// limit.
type Options struct {
	OnDuplicate DupMode
	MaxDepth    int
	MaxBytes    int64
	// UseNumber keeps numbers as json.Number instead of float64.
	UseNumber bool
}

// Failure reasons carried by Error.
const (
	ReasonDuplicateKey = "duplicate key"
	ReasonMaxDepth     = "max depth exceeded"
	ReasonMaxBytes     = "max bytes exceeded"
	ReasonMalformed    = "malformed document"
	ReasonTrailing     = "trailing content after document"
	ReasonEmpty        = "empty document"
)

// Error describes why a document was rejected. Path is a JSON Pointer to the
// offending location ("" for the root).
type Error struct {
	Reason string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	at := e.Path
	if at == "" {
		at = "(root)"
	}
	if e.Err != nil {
		return fmt.Sprintf("decode: %s at %s: %v", e.Reason, at, e.Err)
	}
	return fmt.Sprintf("decode: %s at %s", e.Reason, at)
}

func (e *Error) Unwrap() error { return e.Err }

var errTooLarge = errors.New("input exceeds byte budget")

// Decode materializes one JSON document from r under the given options.
func Decode(r io.Reader, opt Options) (any, error) {
	if opt.MaxBytes > 0 {
		r = &limitReader{r: r, max: opt.MaxBytes}
	}
	dec := json.NewDecoder(r)
	if opt.UseNumber {
		dec.UseNumber()
	}
	m := &materializer{dec: dec, opt: opt}

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, &Error{Reason: ReasonEmpty}
		}
		return nil, m.wrap(err)
	}
	v, err := m.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, &Error{Reason: ReasonTrailing}
		}
		return nil, m.wrap(err)
	}
	return v, nil
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type materializer struct {
	dec   *json.Decoder
	opt   Options
	depth int
	path  []string
}

func (m *materializer) value(tok json.Token) (any, error) {
	if d, ok := tok.(json.Delim); ok {
		switch d {
		case '{':
			return m.container(kindObject)
		case '[':
			return m.container(kindArray)
		}
		return nil, m.fail(ReasonMalformed, nil)
	}
	return tok, nil
}

func (m *materializer) container(kind containerKind) (any, error) {
	m.depth++
	defer func() { m.depth-- }()
	if m.opt.MaxDepth > 0 && m.depth > m.opt.MaxDepth {
		return nil, m.fail(ReasonMaxDepth, nil)
	}
	if kind == kindArray {
		return m.array()
	}
	return m.object()
}

func (m *materializer) object() (any, error) {
	out := map[string]any{}
	for m.dec.More() {
		keyTok, err := m.dec.Token()
		if err != nil {
			return nil, m.wrap(err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, m.fail(ReasonMalformed, nil)
		}
		m.path = append(m.path, escapeSeg(key))
		valTok, err := m.dec.Token()
		if err != nil {
			return nil, m.wrap(err)
		}
		v, err := m.value(valTok)
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			switch m.opt.OnDuplicate {
			case DupError:
				return nil, m.fail(ReasonDuplicateKey, nil)
			case DupFirst:
				// keep the first value
			default:
				out[key] = v
			}
		} else {
			out[key] = v
		}
		m.path = m.path[:len(m.path)-1]
	}
	// closing '}'
	if _, err := m.dec.Token(); err != nil {
		return nil, m.wrap(err)
	}
	return out, nil
}

func (m *materializer) array() (any, error) {
	out := []any{}
	for i := 0; m.dec.More(); i++ {
		m.path = append(m.path, strconv.Itoa(i))
		tok, err := m.dec.Token()
		if err != nil {
			return nil, m.wrap(err)
		}
		v, err := m.value(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		m.path = m.path[:len(m.path)-1]
	}
	// closing ']'
	if _, err := m.dec.Token(); err != nil {
		return nil, m.wrap(err)
	}
	return out, nil
}

func (m *materializer) pointer() string {
	if len(m.path) == 0 {
		return ""
	}
	return "/" + strings.Join(m.path, "/")
}

func (m *materializer) fail(reason string, cause error) error {
	return &Error{Reason: reason, Path: m.pointer(), Err: cause}
}

func (m *materializer) wrap(err error) error {
	if errors.Is(err, errTooLarge) {
		return m.fail(ReasonMaxBytes, nil)
	}
	return m.fail(ReasonMalformed, err)
}

func escapeSeg(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// limitReader fails once more than max bytes have been read. The decoder may
// buffer ahead, so the budget bounds bytes read, not bytes consumed.
type limitReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, errTooLarge
	}
	return n, err
}
