package dsl

import (
	"math"
	"time"

	strux "github.com/strux-go/strux"
)

type dateBound struct {
	t    time.Time
	incl bool
}

type dateRange struct {
	lo, hi         time.Time
	loIncl, hiIncl bool
}

type dateNode struct {
	coerceStrings bool
	coerceNumbers bool
	min           *dateBound
	max           *dateBound
	rng           *dateRange
}

func (n *dateNode) TypeName() string { return "date" }

func (n *dateNode) clone() *dateNode {
	nn := &dateNode{coerceStrings: n.coerceStrings, coerceNumbers: n.coerceNumbers}
	if n.min != nil {
		b := *n.min
		nn.min = &b
	}
	if n.max != nil {
		b := *n.max
		nn.max = &b
	}
	if n.rng != nil {
		r := *n.rng
		nn.rng = &r
	}
	return nn
}

// parseDateString accepts RFC 3339 timestamps and bare calendar dates.
// A bare date resolves to midnight UTC.
func parseDateString(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func (n *dateNode) run(pc *strux.ParseCtx, v any) (any, bool) {
	var t time.Time
	switch in := v.(type) {
	case time.Time:
		t = in
	case string:
		if !n.coerceStrings {
			return failType(pc, "date", v)
		}
		parsed, err := parseDateString(in)
		if err != nil {
			pc.AddIssue(strux.CodeInvalidDate, map[string]any{"check": "parse", "value": in})
			return pc.Abort()
		}
		t = parsed
	default:
		if !n.coerceNumbers {
			return failType(pc, "date", v)
		}
		f, isNum := strux.NumberValue(v)
		if !isNum {
			return failType(pc, "date", v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			pc.AddIssue(strux.CodeInvalidDate, map[string]any{"check": "parse", "value": f})
			return pc.Abort()
		}
		t = time.UnixMilli(int64(f)).UTC()
	}
	if n.min != nil && (t.Before(n.min.t) || (!n.min.incl && t.Equal(n.min.t))) {
		pc.AddIssue(strux.CodeInvalidDate, map[string]any{
			"check": "min", "min": n.min.t.Format(time.RFC3339), "inclusive": n.min.incl,
		})
	}
	if n.max != nil && (t.After(n.max.t) || (!n.max.incl && t.Equal(n.max.t))) {
		pc.AddIssue(strux.CodeInvalidDate, map[string]any{
			"check": "max", "max": n.max.t.Format(time.RFC3339), "inclusive": n.max.incl,
		})
	}
	if n.rng != nil {
		below := t.Before(n.rng.lo) || (!n.rng.loIncl && t.Equal(n.rng.lo))
		above := t.After(n.rng.hi) || (!n.rng.hiIncl && t.Equal(n.rng.hi))
		if below || above {
			pc.AddIssue(strux.CodeInvalidDate, map[string]any{
				"check": "range",
				"min":   n.rng.lo.Format(time.RFC3339),
				"max":   n.rng.hi.Format(time.RFC3339),
			})
		}
	}
	if pc.Invalid() {
		return pc.Abort()
	}
	return pc.OK(t)
}

// DateSchema validates time.Time values, with opt-in coercion from strings
// and epoch-millisecond numbers.
type DateSchema struct {
	AnySchema
	dn *dateNode
}

// Date builds a date schema. Only time.Time inputs are accepted until a
// coercion mode is enabled.
func Date() DateSchema {
	n := &dateNode{}
	return DateSchema{AnySchema: wrap(n), dn: n}
}

func (s DateSchema) with(mut func(*dateNode)) DateSchema {
	nn := s.dn.clone()
	mut(nn)
	return DateSchema{AnySchema: wrap(nn), dn: nn}
}

// CoerceStrings additionally accepts RFC 3339 timestamps and "2006-01-02"
// calendar dates.
func (s DateSchema) CoerceStrings() DateSchema {
	return s.with(func(n *dateNode) { n.coerceStrings = true })
}

// CoerceNumbers additionally accepts epoch milliseconds.
func (s DateSchema) CoerceNumbers() DateSchema {
	return s.with(func(n *dateNode) { n.coerceNumbers = true })
}

// Coerce enables both string and number coercion.
func (s DateSchema) Coerce() DateSchema {
	return s.with(func(n *dateNode) {
		n.coerceStrings = true
		n.coerceNumbers = true
	})
}

// Min bounds the date from below. Range and the Min/Max pair are mutually
// exclusive; setting one clears the other.
func (s DateSchema) Min(t time.Time, inclusive bool) DateSchema {
	return s.with(func(n *dateNode) {
		n.rng = nil
		n.min = &dateBound{t: t, incl: inclusive}
	})
}

// Max bounds the date from above. Setting it clears a standing Range.
func (s DateSchema) Max(t time.Time, inclusive bool) DateSchema {
	return s.with(func(n *dateNode) {
		n.rng = nil
		n.max = &dateBound{t: t, incl: inclusive}
	})
}

// Range bounds the date on both sides with a single check. Setting it clears
// standing Min/Max bounds. A reversed range is API misuse and panics with
// *strux.UsageError.
func (s DateSchema) Range(lo, hi time.Time, loInclusive, hiInclusive bool) DateSchema {
	if hi.Before(lo) {
		panic(strux.NewUsageError("Date.Range", "upper bound %s precedes lower bound %s",
			hi.Format(time.RFC3339), lo.Format(time.RFC3339)))
	}
	return s.with(func(n *dateNode) {
		n.min = nil
		n.max = nil
		n.rng = &dateRange{lo: lo, hi: hi, loIncl: loInclusive, hiIncl: hiInclusive}
	})
}
