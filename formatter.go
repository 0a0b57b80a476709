package strux

import (
	"fmt"
	"strings"
)

// IssueFormatter turns an issue list into the string returned by
// Issues.Error. Implementations must be safe for concurrent use.
type IssueFormatter interface {
	Format(iss Issues) string
}

// IssueFormatterFunc adapts a plain function into an IssueFormatter.
type IssueFormatterFunc func(iss Issues) string

// Format implements IssueFormatter.
func (f IssueFormatterFunc) Format(iss Issues) string { return f(iss) }

// summaryFormatter is the built-in formatter: the first few issues as
// "code at /path", then a total count.
type summaryFormatter struct{}

func (summaryFormatter) Format(iss Issues) string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		p := it.Pointer
		if p == "" {
			p = "(root)"
		}
		fmt.Fprintf(b, "%s at %s: %s", it.Code, p, it.Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}
