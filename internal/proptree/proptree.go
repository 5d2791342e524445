package proptree

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TextKey holds plain narrative text attached to a scope.
const TextKey = "#text"

// Tree is a parsed property tree. Keys map to a nested tree, a string, or,
// once a key has recurred, a list of those.
type Tree struct {
	props map[string]Value
}

// Value is one entry of a Tree. Exactly one of tree, text or items is set.
type Value struct {
	tree  *Tree
	text  string
	items []Value
	kind  kind
}

type kind uint8

const (
	kindNone kind = iota
	kindTree
	kindText
	kindList
)

// New returns an empty tree.
func New() *Tree {
	return &Tree{props: make(map[string]Value)}
}

// TreeValue wraps a child tree.
func TreeValue(t *Tree) Value {
	return Value{tree: t, kind: kindTree}
}

// TextValue wraps a string.
func TextValue(s string) Value {
	return Value{text: s, kind: kindText}
}

// Merge attaches v under key. The first occurrence is stored as-is, the
// second promotes the key to a list and later ones append to it.
func (t *Tree) Merge(key string, v Value) {
	if v.kind == kindList {
		for _, item := range v.items {
			t.Merge(key, item)
		}
		return
	}
	old, ok := t.props[key]
	switch {
	case !ok:
		t.props[key] = v
	case old.kind == kindList:
		old.items = append(old.items, v)
		t.props[key] = old
	default:
		t.props[key] = Value{items: []Value{old, v}, kind: kindList}
	}
}

// MergeText attaches a string under key.
func (t *Tree) MergeText(key, s string) {
	t.Merge(key, TextValue(s))
}

// Child creates an empty tree, merges it under key and returns it.
func (t *Tree) Child(key string) *Tree {
	c := New()
	t.Merge(key, TreeValue(c))
	return c
}

// Get returns the value stored under key.
func (t *Tree) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.props[key]
	return v, ok
}

// Has reports whether key is present.
func (t *Tree) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Len returns the number of keys.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.props)
}

// Keys returns the keys in sorted order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, 0, len(t.props))
	for k := range t.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Texts returns every string stored under key.
func (t *Tree) Texts(key string) []string {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range v.Items() {
		if s, ok := item.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Trees returns every child tree stored under key.
func (t *Tree) Trees(key string) []*Tree {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	var out []*Tree
	for _, item := range v.Items() {
		if c, ok := item.Tree(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Tree returns the nested tree, if this value is one.
func (v Value) Tree() (*Tree, bool) {
	return v.tree, v.kind == kindTree
}

// Text returns the string, if this value is one.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == kindText
}

// IsList reports whether the key this value came from has recurred.
func (v Value) IsList() bool {
	return v.kind == kindList
}

// Items returns the list entries, or the value itself as a single entry.
func (v Value) Items() []Value {
	switch v.kind {
	case kindList:
		return v.items
	case kindNone:
		return nil
	default:
		return []Value{v}
	}
}

// ToMap converts the tree into plain maps, slices and strings.
func (t *Tree) ToMap() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t.props))
	for k, v := range t.props {
		out[k] = v.toAny()
	}
	return out
}

func (v Value) toAny() any {
	switch v.kind {
	case kindTree:
		return v.tree.ToMap()
	case kindText:
		return v.text
	case kindList:
		items := make([]any, len(v.items))
		for i, item := range v.items {
			items[i] = item.toAny()
		}
		return items
	}
	return nil
}

// FromMap builds a tree from decoded JSON.
func FromMap(m map[string]any) (*Tree, error) {
	t := New()
	for k, raw := range m {
		v, err := valueFromAny(raw, true)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		t.props[k] = v
	}
	return t, nil
}

func valueFromAny(raw any, allowList bool) (Value, error) {
	switch x := raw.(type) {
	case string:
		return TextValue(x), nil
	case map[string]any:
		c, err := FromMap(x)
		if err != nil {
			return Value{}, err
		}
		return TreeValue(c), nil
	case []any:
		if !allowList {
			return Value{}, fmt.Errorf("nested list")
		}
		if len(x) == 0 {
			return Value{}, fmt.Errorf("empty list")
		}
		if len(x) == 1 {
			return valueFromAny(x[0], false)
		}
		items := make([]Value, 0, len(x))
		for _, item := range x {
			v, err := valueFromAny(item, false)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{items: items, kind: kindList}, nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	return json.Marshal(t.ToMap())
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	t.props = parsed.props
	return nil
}

// Equal reports whether two trees hold the same keys and values.
func Equal(a, b *Tree) bool {
	if a.Len() != b.Len() {
		return false
	}
	for k, av := range a.props {
		bv, ok := b.props[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

func valueEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindTree:
		return Equal(a.tree, b.tree)
	case kindText:
		return a.text == b.text
	case kindList:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !valueEqual(a.items[i], b.items[i]) {
				return false
			}
		}
	}
	return true
}
