// Package config provides the hierarchical key/value tree the seed engine is
// configured from. Trees are decoded from YAML; the service-level tree can be
// checked against an embedded CUE schema before any policy is built.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/seedbank/internal/seed"
)

// Tree is one level of a hierarchical configuration. Values are scalars or
// nested Trees. Lookups never mutate the tree.
type Tree struct {
	m map[string]any
}

// New wraps an already-decoded map in a Tree. The map is not copied.
func New(m map[string]any) *Tree {
	if m == nil {
		m = map[string]any{}
	}
	return &Tree{m: m}
}

// FromYAML decodes a YAML document into a Tree.
func FromYAML(data []byte) (*Tree, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, seed.ConfigError("cannot decode configuration: %v", err)
	}
	return New(m), nil
}

// FromYAMLFile reads and decodes a YAML configuration file.
func FromYAMLFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return FromYAML(data)
}

// Raw exposes the backing map, for encoding into validators.
func (t *Tree) Raw() map[string]any { return t.m }

// Len returns the number of keys at this level.
func (t *Tree) Len() int { return len(t.m) }

// Has reports whether key is present at this level.
func (t *Tree) Has(key string) bool {
	_, ok := t.m[key]
	return ok
}

// IsTree reports whether key is present and holds a nested tree.
func (t *Tree) IsTree(key string) bool {
	v, ok := t.m[key]
	if !ok {
		return false
	}
	_, ok = v.(map[string]any)
	return ok
}

// Keys returns the keys at this level, sorted.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sub returns the nested tree at key. The second result is false when the
// key is absent or holds a scalar.
func (t *Tree) Sub(key string) (*Tree, bool) {
	v, ok := t.m[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return New(m), true
}

// GetString returns the string at key. The bool reports presence; the error
// is set when the key is present but not a string.
func (t *Tree) GetString(key string) (string, bool, error) {
	v, ok := t.m[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, seed.ConfigError("key %q: expected string, got %T", key, v)
	}
	return s, true, nil
}

// GetInt returns the integer at key.
func (t *Tree) GetInt(key string) (int64, bool, error) {
	v, ok := t.m[key]
	if !ok {
		return 0, false, nil
	}
	n, err := toInt64(key, v)
	return n, true, err
}

// GetUint returns the non-negative integer at key. A negative value is a
// configuration error.
func (t *Tree) GetUint(key string) (uint64, bool, error) {
	n, ok, err := t.GetInt(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	if n < 0 {
		return 0, true, seed.ConfigError("key %q: expected a non-negative integer, got %d", key, n)
	}
	return uint64(n), true, nil
}

// GetBool returns the boolean at key.
func (t *Tree) GetBool(key string) (bool, bool, error) {
	v, ok := t.m[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, seed.ConfigError("key %q: expected boolean, got %T", key, v)
	}
	return b, true, nil
}

func toInt64(key string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > 1<<63-1 {
			return 0, seed.ConfigError("key %q: integer %d out of range", key, n)
		}
		return int64(n), nil
	default:
		return 0, seed.ConfigError("key %q: expected integer, got %T", key, v)
	}
}
