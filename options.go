package strux

// ParseOpt bundles per-call parsing options. Zero fields mean "inherit":
// schema-level settings apply first, then the registry.
type ParseOpt struct {
	// AbortEarly stops issue collection after the first recorded issue.
	// nil inherits; use Bool to set.
	AbortEarly *bool
	// ErrorMap is the call-site message layer, the highest-priority map.
	ErrorMap ErrorMap
	// Registry overrides the default registry for this call.
	Registry *Registry
}

// MergeParseOpts folds a variadic option list into one ParseOpt, later
// entries winning per field.
func MergeParseOpts(opts ...ParseOpt) ParseOpt {
	var out ParseOpt
	for _, o := range opts {
		if o.AbortEarly != nil {
			out.AbortEarly = o.AbortEarly
		}
		if o.ErrorMap != nil {
			out.ErrorMap = o.ErrorMap
		}
		if o.Registry != nil {
			out.Registry = o.Registry
		}
	}
	return out
}

// Bool returns a pointer to v, for optional boolean fields on ParseOpt.
func Bool(v bool) *bool { return &v }
