package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"

	strux "github.com/strux-go/strux"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	pathText = color.New(color.FgCyan)
	codeText = color.New(color.Faint)
)

func renderPretty(w io.Writer, path string, res strux.Result) {
	if res.OK {
		okMark.Fprint(w, "✓ ")
		fmt.Fprintln(w, path)
		return
	}
	failMark.Fprint(w, "✗ ")
	fmt.Fprintf(w, "%s: %d issue(s)\n", path, len(res.Err))
	renderIssues(w, res.Err, 1)
}

func renderIssues(w io.Writer, iss strux.Issues, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, it := range iss {
		ptr := it.Pointer
		if ptr == "" {
			ptr = "(root)"
		}
		fmt.Fprintf(w, "%s%s %s %s\n",
			indent, pathText.Sprint(ptr), it.Message, codeText.Sprintf("[%s]", it.Code))
		if sub := it.SubIssues(); len(sub) > 0 {
			renderIssues(w, sub, depth+1)
		}
	}
}

func renderLoadError(w io.Writer, path string, err error) {
	failMark.Fprint(w, "✗ ")
	fmt.Fprintf(w, "%s: %v\n", path, err)
}

type fileReport struct {
	File   string       `json:"file"`
	OK     bool         `json:"ok"`
	Issues strux.Issues `json:"issues,omitempty"`
}

func renderJSON(w io.Writer, path string, res strux.Result) {
	out, err := json.Marshal(fileReport{File: path, OK: res.OK, Issues: res.Err})
	if err != nil {
		fmt.Fprintf(w, "{\"file\":%q,\"ok\":false,\"error\":%q}\n", path, err.Error())
		return
	}
	fmt.Fprintln(w, string(out))
}
