package schemafile

import "fmt"

// UnknownPolicy configures how compiled objects treat keys their document
// does not declare.
type UnknownPolicy int

const (
	UnknownStrip UnknownPolicy = iota
	UnknownStrict
	UnknownPassthrough
)

// Options controls document compilation.
type Options struct {
	// DefaultUnknown applies to object nodes that declare no unknown policy
	// of their own.
	DefaultUnknown UnknownPolicy
}

// Diag carries non-fatal warnings produced during compilation.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
