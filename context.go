package strux

import (
	"context"
	"sync"

	"github.com/strux-go/strux/i18n"
)

// Status is the validity state of a parse context. Transitions are one-way:
// once invalid, a context never becomes valid again.
type Status int

const (
	StatusValid Status = iota
	StatusInvalid
)

// SchemaInfo is the minimal view of a schema node the parse context needs.
type SchemaInfo interface {
	TypeName() string
}

// SchemaErrorMapper is an optional hook: nodes carrying their own error map
// implement it and the map joins the resolution chain. If it is not
// implemented, the layer is skipped.
type SchemaErrorMapper interface {
	SchemaErrorMap() ErrorMap
}

// SchemaAbortEarlier is an optional hook: nodes carrying an abort-early
// override implement it. If it is not implemented, the layer is skipped.
type SchemaAbortEarlier interface {
	SchemaAbortEarly() *bool
}

// commonState is shared by every context of one parse invocation. The
// configuration fields are read-only while the parse runs; mu serializes
// issue recording when composite members run concurrently.
type commonState struct {
	mu       sync.Mutex
	goctx    context.Context
	async    bool
	opt      ParseOpt
	registry *Registry
}

// ParseCtx tracks one schema node's traversal of one value: the data
// snapshot, the path from the root, validity, and the issues recorded in its
// subtree. Child spawns a linked context one step deeper; Clone spawns a
// detached context at the same path whose failures stay contained, which is
// how union members, intersection members, and catch fallbacks are tried.
type ParseCtx struct {
	common   *commonState
	parent   *ParseCtx
	schema   SchemaInfo
	data     any
	path     Path
	status   Status
	children []*ParseCtx
	issues   Issues
}

// NewParseCtx builds the root context for one parse invocation. async picks
// the execution mode for the whole invocation; it cannot change mid-parse.
func NewParseCtx(ctx context.Context, schema SchemaInfo, data any, async bool, opt ParseOpt) *ParseCtx {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := opt.Registry
	if reg == nil {
		reg = Default()
	}
	return &ParseCtx{
		common: &commonState{goctx: ctx, async: async, opt: opt, registry: reg},
		schema: schema,
		data:   data,
	}
}

// Context returns the context.Context the parse was started with.
func (pc *ParseCtx) Context() context.Context { return pc.common.goctx }

// Async reports whether this invocation may suspend on effects and awaits.
func (pc *ParseCtx) Async() bool { return pc.common.async }

// Registry returns the registry in effect for this invocation.
func (pc *ParseCtx) Registry() *Registry { return pc.common.registry }

// CallOpt returns the per-call options this invocation started with.
func (pc *ParseCtx) CallOpt() ParseOpt { return pc.common.opt }

// Data returns the value snapshot this context validates.
func (pc *ParseCtx) Data() any { return pc.data }

// Path returns the location of this context's value.
func (pc *ParseCtx) Path() Path { return pc.path }

// Schema returns the node this context was spawned for.
func (pc *ParseCtx) Schema() SchemaInfo { return pc.schema }

// Valid reports whether no issue has been recorded in this subtree.
func (pc *ParseCtx) Valid() bool { return pc.status == StatusValid }

// Invalid is the negation of Valid.
func (pc *ParseCtx) Invalid() bool { return pc.status == StatusInvalid }

// MarkInvalid flips this context and every ancestor to invalid. It is
// idempotent.
func (pc *ParseCtx) MarkInvalid() {
	for cur := pc; cur != nil && cur.status != StatusInvalid; cur = cur.parent {
		cur.status = StatusInvalid
	}
}

func (pc *ParseCtx) root() *ParseCtx {
	cur := pc
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// AbortEarly resolves the effective abort-early switch: call option first,
// then the node override, then the registry.
func (pc *ParseCtx) AbortEarly() bool {
	if v := pc.common.opt.AbortEarly; v != nil {
		return *v
	}
	if ae, ok := pc.schema.(SchemaAbortEarlier); ok {
		if v := ae.SchemaAbortEarly(); v != nil {
			return *v
		}
	}
	return pc.common.registry.AbortEarly()
}

// ShouldAbort reports whether the parse has already failed under abort-early
// and further work in this tree is pointless. Detached clones have their own
// root, so aborting inside a union member never stops its siblings.
func (pc *ParseCtx) ShouldAbort() bool {
	return pc.AbortEarly() && pc.root().status == StatusInvalid
}

// Child spawns a linked context for a nested value, extending the path by
// the given segments.
func (pc *ParseCtx) Child(schema SchemaInfo, data any, segs ...PathSeg) *ParseCtx {
	c := &ParseCtx{
		common: pc.common,
		parent: pc,
		schema: schema,
		data:   data,
		path:   pc.path.Child(segs...),
	}
	pc.children = append(pc.children, c)
	return c
}

// Clone spawns a detached context at the same path. Issues recorded under a
// clone do not propagate here; callers inspect the clone and decide what to
// surface.
func (pc *ParseCtx) Clone(schema SchemaInfo, data any) *ParseCtx {
	return &ParseCtx{
		common: pc.common,
		schema: schema,
		data:   data,
		path:   pc.path,
	}
}

// Issues returns everything recorded in this subtree, in recording order.
func (pc *ParseCtx) Issues() Issues { return pc.issues }

// AddIssue records an issue with the message resolved through the layered
// chain. Under abort-early it is a no-op once the tree already failed.
func (pc *ParseCtx) AddIssue(code string, params map[string]any) {
	pc.record(code, "", nil, params)
}

// AddIssueMsg records an issue with an explicit payload message, which
// outranks every error-map layer.
func (pc *ParseCtx) AddIssueMsg(code, msg string, params map[string]any) {
	pc.record(code, msg, nil, params)
}

// AddIssueErr records an issue caused by an underlying error.
func (pc *ParseCtx) AddIssueErr(code string, cause error, params map[string]any) {
	pc.record(code, "", cause, params)
}

// AddRaw appends pre-built issues, propagating them up the tree. Used when a
// composite surfaces issues collected on a detached clone.
func (pc *ParseCtx) AddRaw(iss ...Issue) {
	pc.common.mu.Lock()
	defer pc.common.mu.Unlock()
	for _, it := range iss {
		if pc.ShouldAbort() {
			return
		}
		pc.MarkInvalid()
		for cur := pc; cur != nil; cur = cur.parent {
			cur.issues = append(cur.issues, it)
		}
	}
}

func (pc *ParseCtx) record(code, msg string, cause error, params map[string]any) {
	pc.common.mu.Lock()
	defer pc.common.mu.Unlock()
	if pc.ShouldAbort() {
		return
	}
	pc.MarkInvalid()

	id, ts := newIssueID()
	it := Issue{
		ID:        id,
		Timestamp: ts,
		Code:      code,
		Path:      pc.path,
		Pointer:   pc.path.Pointer(),
		Input:     pc.data,
		Kind:      KindOf(pc.data),
		Params:    params,
		Cause:     cause,
	}
	if pc.schema != nil {
		it.TypeName = pc.schema.TypeName()
	}
	it.Message = pc.resolveMessage(it, msg)

	for cur := pc; cur != nil; cur = cur.parent {
		cur.issues = append(cur.issues, it)
	}
}

// resolveMessage walks the layers bottom-up so each map sees the message the
// layer below produced: built-in catalog, registry map, schema map, call
// map. A non-empty payload message wins outright.
func (pc *ParseCtx) resolveMessage(it Issue, payload string) string {
	if payload != "" {
		return payload
	}
	msg := i18n.T(it.Code, it.Params)
	mctx := ErrorMapCtx{Data: pc.data}
	apply := func(m ErrorMap) {
		if m == nil {
			return
		}
		mctx.Default = msg
		if s := m(it, mctx); s != "" {
			msg = s
		}
	}
	apply(pc.common.registry.ErrorMap())
	if em, ok := pc.schema.(SchemaErrorMapper); ok {
		apply(em.SchemaErrorMap())
	}
	apply(pc.common.opt.ErrorMap)
	return msg
}

// OK is the success terminal for a node's traversal step.
func (pc *ParseCtx) OK(v any) (any, bool) { return v, true }

// Abort is the failure terminal for a node's traversal step.
func (pc *ParseCtx) Abort() (any, bool) { return nil, false }
