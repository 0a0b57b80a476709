package strux

import (
	"reflect"
	"strings"
)

// ResolveStructKey resolves a struct field's external key as struct binding
// and the rule helpers see it.
// Priority: strux tag name > json tag name > field name; "-" disables the
// field.
func ResolveStructKey(sf reflect.StructField) string {
	if st := sf.Tag.Get("strux"); st != "" {
		if i := strings.IndexByte(st, ','); i >= 0 {
			st = st[:i]
		}
		if st != "" {
			return st
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}
