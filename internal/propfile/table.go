// Package propfile implements the ordered key/value table persisted as a
// Java-style properties file.
package propfile

import "strings"

// Table is an insertion-ordered string map. It is not safe for concurrent use.
type Table struct {
	keys   []string
	values map[string]string
}

func New() *Table {
	return &Table{values: map[string]string{}}
}

func (t *Table) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

func (t *Table) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Set stores value under key. New keys are appended, existing keys keep their position.
func (t *Table) Set(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

func (t *Table) Delete(key string) bool {
	if _, ok := t.values[key]; !ok {
		return false
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns a copy of the keys in insertion order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// KeysWithPrefix returns the keys starting with prefix, in insertion order.
func (t *Table) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range t.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (t *Table) Len() int {
	return len(t.keys)
}

func (t *Table) Clone() *Table {
	c := &Table{
		keys:   make([]string, len(t.keys)),
		values: make(map[string]string, len(t.values)),
	}
	copy(c.keys, t.keys)
	for k, v := range t.values {
		c.values[k] = v
	}
	return c
}

func (t *Table) Clear() {
	t.keys = nil
	t.values = map[string]string{}
}
