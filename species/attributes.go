package species

import (
	"fmt"
	"math"
)

// Attributes is the flat key/value bag a species is declared with. Values
// come straight from YAML decoding, so numbers may be int or float64 and
// lists arrive as []any.
type Attributes map[string]any

// attrReader reads typed values out of an Attributes bag and records a
// diagnostic for every value that is present but has the wrong shape.
type attrReader struct {
	attrs Attributes
	diags []Diagnostic
}

func (r *attrReader) bad(key string, v any, want string) {
	r.diags = append(r.diags, Diagnostic{
		Kind:    DiagBadValue,
		Message: fmt.Sprintf("attribute %q: expected %s, got %T (%v); using default", key, want, v, v),
	})
}

func (r *attrReader) Float(key string, def float64) float64 {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		r.bad(key, v, "number")
		return def
	}
	return f
}

func (r *attrReader) Int(key string, def int) int {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		r.bad(key, v, "integer")
		return def
	}
	return int(f)
}

func (r *attrReader) Bool(key string, def bool) bool {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.bad(key, v, "bool")
		return def
	}
	return b
}

func (r *attrReader) String(key string, def string) string {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		r.bad(key, v, "string")
		return def
	}
	return s
}

func (r *attrReader) Strings(key string) []string {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				r.bad(key, v, "list of strings")
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.bad(key, v, "list of strings")
	return nil
}

func (r *attrReader) Ints(key string) []int {
	v, ok := r.attrs[key]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []int:
		return append([]int(nil), list...)
	case []any:
		out := make([]int, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok || f != math.Trunc(f) {
				r.bad(key, v, "list of integers")
				return nil
			}
			out = append(out, int(f))
		}
		return out
	}
	r.bad(key, v, "list of integers")
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
