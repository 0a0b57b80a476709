package strux

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Issue codes (exported consts for IDE completion and type safety by convention).
// The set is closed; checks that have no dedicated code report through
// CodeCustom with a "check" param.
const (
	CodeRequired            = "required"
	CodeInvalidType         = "invalid_type"
	CodeInvalidArray        = "invalid_array"
	CodeInvalidDate         = "invalid_date"
	CodeInvalidSet          = "invalid_set"
	CodeInvalidTuple        = "invalid_tuple"
	CodeInvalidEnumValue    = "invalid_enum_value"
	CodeInvalidLiteral      = "invalid_literal"
	CodeInvalidArguments    = "invalid_arguments"
	CodeInvalidReturnType   = "invalid_return_type"
	CodeInvalidUnion        = "invalid_union"
	CodeInvalidIntersection = "invalid_intersection"
	CodeInvalidInstance     = "invalid_instance"
	CodeUnrecognizedKeys    = "unrecognized_keys"
	CodeForbidden           = "forbidden"
	CodeCustom              = "custom"
)

// issueCodes is the closed set, used by the schema-document loader and the
// CLI to reject unknown codes early.
var issueCodes = map[string]bool{
	CodeRequired:            true,
	CodeInvalidType:         true,
	CodeInvalidArray:        true,
	CodeInvalidDate:         true,
	CodeInvalidSet:          true,
	CodeInvalidTuple:        true,
	CodeInvalidEnumValue:    true,
	CodeInvalidLiteral:      true,
	CodeInvalidArguments:    true,
	CodeInvalidReturnType:   true,
	CodeInvalidUnion:        true,
	CodeInvalidIntersection: true,
	CodeInvalidInstance:     true,
	CodeUnrecognizedKeys:    true,
	CodeForbidden:           true,
	CodeCustom:              true,
}

// KnownCode reports whether code belongs to the closed issue-code set.
func KnownCode(code string) bool { return issueCodes[code] }

// Issue represents a single validation finding. Issues are immutable once
// recorded; mutating a recorded Issue is a programming error.
type Issue struct {
	// ID is a per-issue UUID, handy for log correlation.
	ID string `json:"id"`
	// Timestamp records when the issue was raised.
	Timestamp time.Time `json:"timestamp"`
	// Code is one of the Code* constants above.
	Code string `json:"code"`
	// Message is the resolved human-readable message.
	Message string `json:"message"`
	// Path locates the offending value; Pointer is its JSON Pointer form
	// (for example /items/2/price).
	Path    Path   `json:"-"`
	Pointer string `json:"path"`
	// Input snapshots the offending value; Kind is its classification.
	Input any       `json:"input,omitempty"`
	Kind  ValueKind `json:"kind,omitempty"`
	// TypeName names the schema node that raised the issue.
	TypeName string `json:"type,omitempty"`
	// Hint optionally carries remediation hints, format names, etc.
	Hint string `json:"hint,omitempty"`
	// Params carries structured, code-specific parameters (e.g.
	// {"expected":"string"}) for i18n and observability.
	Params map[string]any `json:"params,omitempty"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

func (it Issue) String() string {
	p := it.Pointer
	if p == "" {
		p = "(root)"
	}
	return fmt.Sprintf("%s at %s: %s", it.Code, p, it.Message)
}

// Param fetches a named parameter, or nil.
func (it Issue) Param(name string) any {
	if it.Params == nil {
		return nil
	}
	return it.Params[name]
}

// SubIssues returns nested issues carried in the params of union and
// function issues. Format and Flatten recurse through these.
func (it Issue) SubIssues() Issues {
	for _, key := range []string{"unionErrors", "argumentsError", "returnTypeError"} {
		if sub, ok := it.Param(key).(Issues); ok {
			return sub
		}
	}
	return nil
}

// newIssueID mints identity fields for a fresh issue.
func newIssueID() (string, time.Time) {
	return uuid.NewString(), time.Now().UTC()
}
