package strux

import (
	"errors"
	"strconv"

	"github.com/goccy/go-json"
)

// Issues is a collection of validation findings that implements error.
// The slice itself is the source of truth; Format and Flatten are pure
// projections over it.
type Issues []Issue

// Error summarizes the issues through the formatter of the default registry.
func (iss Issues) Error() string {
	return Default().Formatter().Format(iss)
}

// First returns the first issue, or a zero Issue when empty.
func (iss Issues) First() Issue {
	if len(iss) == 0 {
		return Issue{}
	}
	return iss[0]
}

// Messages lists the resolved message of every issue, in order.
func (iss Issues) Messages() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Message
	}
	return out
}

// JSON renders the issues as a JSON array.
func (iss Issues) JSON() ([]byte, error) {
	return json.Marshal([]Issue(iss))
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IssueAt returns the first issue recorded at the given JSON Pointer.
func IssueAt(iss Issues, pointer string) (Issue, bool) {
	for _, it := range iss {
		if it.Pointer == pointer {
			return it, true
		}
	}
	return Issue{}, false
}

// ErrorTree mirrors the input structure: one branch per traversed key or
// index, messages collected at the node they were raised on.
type ErrorTree struct {
	Errors   []string
	Children map[string]*ErrorTree
}

func newErrorTree() *ErrorTree { return &ErrorTree{Errors: []string{}} }

func (t *ErrorTree) childAt(label string) *ErrorTree {
	if t.Children == nil {
		t.Children = map[string]*ErrorTree{}
	}
	c, ok := t.Children[label]
	if !ok {
		c = newErrorTree()
		t.Children[label] = c
	}
	return c
}

// At descends to the subtree for the given labels, or nil when absent.
func (t *ErrorTree) At(labels ...string) *ErrorTree {
	cur := t
	for _, l := range labels {
		if cur == nil || cur.Children == nil {
			return nil
		}
		cur = cur.Children[l]
	}
	return cur
}

// AtIndex is At for a numeric step.
func (t *ErrorTree) AtIndex(i int) *ErrorTree { return t.At(strconv.Itoa(i)) }

// MarshalJSON renders the tree in the conventional shape: an "_errors" list
// plus one property per child branch.
func (t *ErrorTree) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Children)+1)
	errs := t.Errors
	if errs == nil {
		errs = []string{}
	}
	m["_errors"] = errs
	for k, c := range t.Children {
		m[k] = c
	}
	return json.Marshal(m)
}

func (t *ErrorTree) add(path Path, msg string) {
	cur := t
	for _, seg := range path {
		cur = cur.childAt(seg.String())
	}
	cur.Errors = append(cur.Errors, msg)
}

// Format projects the issues into an ErrorTree keyed by path segment.
// Union and function issues contribute their nested member issues instead of
// a single opaque message, so the tree reaches into failed branches.
func (iss Issues) Format() *ErrorTree {
	root := newErrorTree()
	var walk func(list Issues)
	walk = func(list Issues) {
		for _, it := range list {
			if sub := it.SubIssues(); len(sub) > 0 {
				walk(sub)
				continue
			}
			root.add(it.Path, it.Message)
		}
	}
	walk(iss)
	return root
}

// Flat buckets messages by origin: FormErrors carry root-level (path-less)
// issues, FieldErrors group everything else by the first path segment.
type Flat struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Flatten projects the issues into the two-bucket Flat form. Nested issues of
// union and function failures are flattened the same way Format does.
func (iss Issues) Flatten() Flat {
	f := Flat{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	var walk func(list Issues)
	walk = func(list Issues) {
		for _, it := range list {
			if sub := it.SubIssues(); len(sub) > 0 {
				walk(sub)
				continue
			}
			if len(it.Path) == 0 {
				f.FormErrors = append(f.FormErrors, it.Message)
				continue
			}
			k := it.Path[0].String()
			f.FieldErrors[k] = append(f.FieldErrors[k], it.Message)
		}
	}
	walk(iss)
	return f
}
