// Package storage persists per-entity attribute trees in SQLite.
package storage

import (
	"encoding/json"
	"math"
)

// Tree is a flat attribute subtree. It implements host.Tree and is stored as
// a JSON object, so numbers read back from disk arrive as float64.
type Tree map[string]any

// Has reports whether key is set.
func (t Tree) Has(key string) bool {
	_, ok := t[key]
	return ok
}

func (t Tree) GetFloat(key string, def float64) float64 {
	switch v := t[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

func (t Tree) SetFloat(key string, v float64) {
	t[key] = v
}

func (t Tree) GetBool(key string, def bool) bool {
	if v, ok := t[key].(bool); ok {
		return v
	}
	return def
}

func (t Tree) SetBool(key string, v bool) {
	t[key] = v
}

// GetInt returns the integer at key. Stored floats with a fractional part
// are rejected in favour of def.
func (t Tree) GetInt(key string, def int) int {
	switch v := t[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

func (t Tree) SetInt(key string, v int) {
	t[key] = v
}

func (t Tree) GetString(key string, def string) string {
	if v, ok := t[key].(string); ok {
		return v
	}
	return def
}

func (t Tree) SetString(key string, v string) {
	t[key] = v
}

// Clone returns a shallow copy of t.
func (t Tree) Clone() Tree {
	c := make(Tree, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
