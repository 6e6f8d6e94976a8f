package types

import (
	"sort"
	"strings"
)

// ResourceTable is namespace → type → name → configuration variants.
type ResourceTable struct {
	namespaces map[ResourceNamespace]map[ResourceType]*ResourceNameMap[[]*ResourceItem]
}

func NewResourceTable() *ResourceTable {
	return &ResourceTable{namespaces: map[ResourceNamespace]map[ResourceType]*ResourceNameMap[[]*ResourceItem]{}}
}

// Add appends item as a variant of its reference. Variants are kept sorted
// by qualifier string, default configuration first.
func (t *ResourceTable) Add(item *ResourceItem) {
	ref := item.Reference
	byType, ok := t.namespaces[ref.Namespace]
	if !ok {
		byType = map[ResourceType]*ResourceNameMap[[]*ResourceItem]{}
		t.namespaces[ref.Namespace] = byType
	}
	names, ok := byType[ref.Type]
	if !ok {
		names = NewResourceNameMap[[]*ResourceItem]()
		byType[ref.Type] = names
	}
	variants, _ := names.Get(ref.Name)
	variants = append(variants, item)
	sort.SliceStable(variants, func(i, j int) bool {
		return strings.Compare(variants[i].Config.QualifierString(), variants[j].Config.QualifierString()) < 0
	})
	names.Put(ref.Name, variants)
}

// Items returns the variants stored for a name. The slice is the table's
// own; callers outside the owning lock must copy it.
func (t *ResourceTable) Items(namespace ResourceNamespace, resType ResourceType, name string) []*ResourceItem {
	names := t.Names(namespace, resType)
	if names == nil {
		return nil
	}
	items, _ := names.Get(name)
	return items
}

// Names returns the name map of one namespace and type, or nil.
func (t *ResourceTable) Names(namespace ResourceNamespace, resType ResourceType) *ResourceNameMap[[]*ResourceItem] {
	byType, ok := t.namespaces[namespace]
	if !ok {
		return nil
	}
	return byType[resType]
}

// Namespaces returns the namespaces with at least one item, sorted.
func (t *ResourceTable) Namespaces() []ResourceNamespace {
	out := make([]ResourceNamespace, 0, len(t.namespaces))
	for ns, byType := range t.namespaces {
		if len(byType) > 0 {
			out = append(out, ns)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Types returns the types present in a namespace in declaration order.
func (t *ResourceTable) Types(namespace ResourceNamespace) []ResourceType {
	byType := t.namespaces[namespace]
	out := make([]ResourceType, 0, len(byType))
	for _, resType := range resourceTypes {
		if names, ok := byType[resType]; ok && names.Len() > 0 {
			out = append(out, resType)
		}
	}
	return out
}

// Len counts items across all namespaces.
func (t *ResourceTable) Len() int {
	total := 0
	for _, byType := range t.namespaces {
		for _, names := range byType {
			names.Range(func(_ string, items []*ResourceItem) bool {
				total += len(items)
				return true
			})
		}
	}
	return total
}

// ConfiguredResources is the configuration-filtered snapshot handed to a
// resolver: one value per namespace, type and name.
type ConfiguredResources map[ResourceNamespace]map[ResourceType]*ResourceValueMap

// Put stores value under its own reference.
func (c ConfiguredResources) Put(value *ResourceValue) {
	ref := value.Reference
	byType, ok := c[ref.Namespace]
	if !ok {
		byType = map[ResourceType]*ResourceValueMap{}
		c[ref.Namespace] = byType
	}
	names, ok := byType[ref.Type]
	if !ok {
		names = NewResourceValueMap()
		byType[ref.Type] = names
	}
	names.Put(ref.Name, value)
}

func (c ConfiguredResources) Get(namespace ResourceNamespace, resType ResourceType, name string) *ResourceValue {
	names := c[namespace][resType]
	if names == nil {
		return nil
	}
	value, _ := names.Get(name)
	return value
}

// Merge copies every value of other into c, replacing existing keys.
func (c ConfiguredResources) Merge(other ConfiguredResources) {
	for _, byType := range other {
		for _, names := range byType {
			names.Range(func(_ string, value *ResourceValue) bool {
				c.Put(value)
				return true
			})
		}
	}
}
