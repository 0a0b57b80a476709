package strux

// ErrorMapCtx hands an ErrorMap the surrounding facts: the message resolved
// by the lower-priority layers and the offending input.
type ErrorMapCtx struct {
	// Default is the message the next layer down resolved. Returning ""
	// keeps it.
	Default string
	// Data is the input value the issue was raised on.
	Data any
}

// ErrorMap customizes issue messages. Maps are consulted in priority order:
// issue payload first, then the call-site map, the schema map, the registry
// map, and finally the built-in catalog. A map returns "" to defer to the
// layer below.
type ErrorMap func(iss Issue, ctx ErrorMapCtx) string

// MapByCode builds an ErrorMap from a code-keyed table. Values are either a
// plain string or a func(Issue, ErrorMapCtx) string. The DefaultMapKey entry
// applies to codes with no entry of their own.
func MapByCode(table map[string]any) ErrorMap {
	return func(iss Issue, ctx ErrorMapCtx) string {
		v, ok := table[iss.Code]
		if !ok {
			v, ok = table[DefaultMapKey]
		}
		if !ok {
			return ""
		}
		switch m := v.(type) {
		case string:
			return m
		case func(Issue, ErrorMapCtx) string:
			return m(iss, ctx)
		case ErrorMap:
			return m(iss, ctx)
		}
		return ""
	}
}

// DefaultMapKey is the catch-all key recognized by MapByCode tables.
const DefaultMapKey = "__default"
