package strux

import (
	"strconv"
	"strings"
)

// PathSeg is a single step into a composite value: an object key or an
// array index.
type PathSeg struct {
	Key   string
	Index int
	index bool
}

// Key builds an object-key segment.
func Key(name string) PathSeg { return PathSeg{Key: name} }

// Index builds an array-index segment.
func Index(i int) PathSeg { return PathSeg{Index: i, index: true} }

// IsIndex reports whether the segment addresses an array position.
func (s PathSeg) IsIndex() bool { return s.index }

// String renders the segment as a raw label (unescaped).
func (s PathSeg) String() string {
	if s.index {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path locates a value inside the input, from the root downward.
type Path []PathSeg

// Child returns a new Path extended by the given segments. The receiver is
// never mutated; sharing a Path across contexts is safe.
func (p Path) Child(segs ...PathSeg) Path {
	if len(segs) == 0 {
		return p
	}
	np := make(Path, 0, len(p)+len(segs))
	np = append(np, p...)
	np = append(np, segs...)
	return np
}

// Pointer renders the path as a JSON Pointer. The root path renders as "".
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, s := range p {
		b.WriteByte('/')
		if s.index {
			b.WriteString(strconv.Itoa(s.Index))
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC 6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s.Key, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// String is the human-oriented rendering, "a.b[2]" style.
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	b := &strings.Builder{}
	for i, s := range p {
		if s.index {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// ParsePointer splits a JSON Pointer into a Path. Numeric segments become
// index segments. Used when issue paths arrive from external documents.
func ParsePointer(ptr string) Path {
	if ptr == "" || ptr == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	p := make(Path, 0, len(parts))
	for _, raw := range parts {
		seg := strings.ReplaceAll(strings.ReplaceAll(raw, "~1", "/"), "~0", "~")
		if n, err := strconv.Atoi(seg); err == nil && (seg == "0" || seg[0] != '0') {
			p = append(p, Index(n))
			continue
		}
		p = append(p, Key(seg))
	}
	return p
}
