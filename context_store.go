package ponder

import (
	"encoding/json"
	"strings"
	"sync"
)

// Value is a working-memory value: either a single text or an ordered list
// of texts (retrieval results).
type Value struct {
	text   string
	items  []string
	isList bool
}

// Text creates a single-text value.
func Text(s string) Value {
	return Value{text: s}
}

// List creates a list value. The slice is copied.
func List(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{items: cp, isList: true}
}

// IsList reports whether the value holds a list.
func (v Value) IsList() bool {
	return v.isList
}

// Text returns the single text of the value, or its rendering for lists.
func (v Value) Text() string {
	if v.isList {
		return v.String()
	}
	return v.text
}

// Items returns the list items. A text value is returned as a one-item list.
func (v Value) Items() []string {
	if !v.isList {
		return []string{v.text}
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// String renders the value for prompts. Lists render as a JSON array so the
// output is stable and unambiguous.
func (v Value) String() string {
	if !v.isList {
		return v.text
	}
	items := v.items
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return strings.Join(items, "\n")
	}
	return string(b)
}

// MarshalJSON encodes a text value as a JSON string and a list as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*v = List(items)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*v = Text(text)
	return nil
}

// Equal reports whether two values hold the same content and shape.
func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.text == o.text
	}
	if len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Entry is one key/value pair of a ContextStore.
type Entry struct {
	Key   string
	Value Value
}

// ContextStore is the agent's working memory: an insertion-ordered map from
// keys to values. Overwriting a key keeps its original position, so two
// stores built from the same sequence of mutations render identically.
//
// ContextStore is safe for concurrent use.
type ContextStore struct {
	keys   []string
	values map[string]Value
	mu     sync.RWMutex
}

// NewContextStore creates an empty store.
func NewContextStore() *ContextStore {
	return &ContextStore{values: make(map[string]Value)}
}

// Set inserts or overwrites key.
func (c *ContextStore) Set(key string, value Value) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// SetText is shorthand for Set(key, Text(value)).
func (c *ContextStore) SetText(key, value string) {
	c.Set(key, Text(value))
}

// Delete removes key. Deleting an absent key is a no-op.
func (c *ContextStore) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value stored under key.
func (c *ContextStore) Get(key string) (Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *ContextStore) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (c *ContextStore) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Len returns the number of entries.
func (c *ContextStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Entries returns all entries in insertion order.
func (c *ContextStore) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, len(c.keys))
	for i, k := range c.keys {
		entries[i] = Entry{Key: k, Value: c.values[k]}
	}
	return entries
}

// Clear removes every entry.
func (c *ContextStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
	c.values = make(map[string]Value)
}

// Clone returns an independent copy of the store.
func (c *ContextStore) Clone() *ContextStore {
	clone := NewContextStore()
	for _, e := range c.Entries() {
		clone.Set(e.Key, e.Value)
	}
	return clone
}

// Snapshot renders the store as "key: value" lines in insertion order for
// inclusion in a prompt. An empty store renders as "".
func (c *ContextStore) Snapshot() string {
	entries := c.Entries()
	if len(entries) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, e := range entries {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(e.Key)
		builder.WriteString(": ")
		builder.WriteString(e.Value.String())
	}
	return builder.String()
}
