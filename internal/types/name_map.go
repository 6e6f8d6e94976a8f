package types

import "sort"

type nameEntry[V any] struct {
	name  string
	value V
}

// ResourceNameMap maps resource names to values treating names that differ
// only in '.', '-', ':' versus '_' as the same key. Keys reports the
// spelling used by the last Put for each key.
type ResourceNameMap[V any] struct {
	entries map[string]*nameEntry[V]
}

func NewResourceNameMap[V any]() *ResourceNameMap[V] {
	return &ResourceNameMap[V]{entries: map[string]*nameEntry[V]{}}
}

func (m *ResourceNameMap[V]) Put(name string, value V) {
	m.entries[FlattenName(name)] = &nameEntry[V]{name: name, value: value}
}

func (m *ResourceNameMap[V]) Get(name string) (V, bool) {
	entry, ok := m.entries[FlattenName(name)]
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (m *ResourceNameMap[V]) Contains(name string) bool {
	_, ok := m.entries[FlattenName(name)]
	return ok
}

func (m *ResourceNameMap[V]) Delete(name string) bool {
	key := FlattenName(name)
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

func (m *ResourceNameMap[V]) Len() int {
	return len(m.entries)
}

// Keys returns the original spellings, sorted.
func (m *ResourceNameMap[V]) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		keys = append(keys, entry.name)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every entry in key order until fn returns false.
func (m *ResourceNameMap[V]) Range(fn func(name string, value V) bool) {
	for _, name := range m.Keys() {
		entry := m.entries[FlattenName(name)]
		if !fn(entry.name, entry.value) {
			return
		}
	}
}

// ResourceValueMap is the per-type input of the resolver.
type ResourceValueMap = ResourceNameMap[*ResourceValue]

func NewResourceValueMap() *ResourceValueMap {
	return NewResourceNameMap[*ResourceValue]()
}
