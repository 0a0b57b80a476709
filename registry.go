package strux

import "sync"

// Registry bundles process-wide parse defaults: the abort-early switch, the
// lowest-priority error map, and the formatter behind Issues.Error. Every
// parse consults a registry; call-site options always win over it.
//
// The zero value is not usable; build registries with NewRegistry. All
// methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	abortEarly bool
	errorMap   ErrorMap
	formatter  IssueFormatter
}

// NewRegistry returns a registry with the stock defaults: collect all issues
// (abort-early off), no error map, summary formatter.
func NewRegistry() *Registry {
	return &Registry{formatter: summaryFormatter{}}
}

// AbortEarly reports the registry default for issue collection.
func (r *Registry) AbortEarly() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.abortEarly
}

// SetAbortEarly flips the registry default for issue collection.
func (r *Registry) SetAbortEarly(v bool) {
	r.mu.Lock()
	r.abortEarly = v
	r.mu.Unlock()
}

// ErrorMap returns the registry-level error map, possibly nil.
func (r *Registry) ErrorMap() ErrorMap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errorMap
}

// SetErrorMap installs the registry-level error map. nil removes it.
func (r *Registry) SetErrorMap(m ErrorMap) {
	r.mu.Lock()
	r.errorMap = m
	r.mu.Unlock()
}

// Formatter returns the formatter behind Issues.Error.
func (r *Registry) Formatter() IssueFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formatter
}

// SetFormatter replaces the formatter; nil restores the built-in one.
func (r *Registry) SetFormatter(f IssueFormatter) {
	if f == nil {
		f = summaryFormatter{}
	}
	r.mu.Lock()
	r.formatter = f
	r.mu.Unlock()
}

var defaultRegistry = NewRegistry()

// Default returns the package-wide registry used when no WithRegistry option
// is given.
func Default() *Registry { return defaultRegistry }

// SetDefaultErrorMap installs an error map on the default registry.
func SetDefaultErrorMap(m ErrorMap) { defaultRegistry.SetErrorMap(m) }

// SetDefaultAbortEarly flips abort-early on the default registry.
func SetDefaultAbortEarly(v bool) { defaultRegistry.SetAbortEarly(v) }
