package types

import "slices"

// ResourceValue is the content of one resource item. An empty Value is the
// null value.
type ResourceValue struct {
	Reference   ResourceReference `yaml:"reference" cbor:"1,keyasint"`
	LibraryName string            `yaml:"library,omitempty" cbor:"2,keyasint,omitempty"`
	Value       string            `yaml:"value,omitempty" cbor:"3,keyasint,omitempty"`
	ArrayItems  []string          `yaml:"items,omitempty" cbor:"4,keyasint,omitempty"`
	Style       *StyleValue       `yaml:"style,omitempty" cbor:"5,keyasint,omitempty"`
	// Context is the namespace references in Value resolve against when it
	// differs from Reference.Namespace, as for a style item: the item is
	// keyed by its attribute but resolves in the style's namespace.
	Context ResourceNamespace `yaml:"context,omitempty" cbor:"6,keyasint,omitempty"`
}

func (v *ResourceValue) IsFramework() bool {
	return v.Reference.IsFramework()
}

// ReferenceContext returns the namespace unqualified references in Value
// belong to.
func (v *ResourceValue) ReferenceContext() ResourceNamespace {
	if v.Context != "" {
		return v.Context
	}
	return v.Reference.Namespace
}

// IsArray reports whether the value is an array. Arrays are terminal for
// reference resolution even when their text looks like a reference.
func (v *ResourceValue) IsArray() bool {
	return v.Reference.Type == ResourceTypeArray
}

func (v *ResourceValue) IsStyle() bool {
	return v.Style != nil
}

// WithValue returns a copy of v carrying a different textual value.
func (v *ResourceValue) WithValue(value string) *ResourceValue {
	out := *v
	out.Value = value
	return &out
}

// Equal compares content, not identity.
func (v *ResourceValue) Equal(other *ResourceValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Reference != other.Reference || v.Context != other.Context || v.LibraryName != other.LibraryName || v.Value != other.Value {
		return false
	}
	if !slices.Equal(v.ArrayItems, other.ArrayItems) {
		return false
	}
	return v.Style.Equal(other.Style)
}

type attrKey struct {
	namespace ResourceNamespace
	name      string
}

// StyleValue is the style part of a ResourceValue: ordered attribute items
// plus the declared parent.
type StyleValue struct {
	// Parent is the declared parent reference. HasParent distinguishes an
	// explicit parent="" (no parent at all) from an omitted attribute
	// (implicit parent from the dotted name).
	Parent    string           `yaml:"parent,omitempty" cbor:"1,keyasint,omitempty"`
	HasParent bool             `yaml:"has_parent,omitempty" cbor:"2,keyasint,omitempty"`
	Items     []*ResourceValue `yaml:"items,omitempty" cbor:"3,keyasint,omitempty"`

	index map[attrKey]int
}

// NewStyleValue builds a style from ordered items. A later item for the same
// attribute replaces the earlier one in place.
func NewStyleValue(parent string, hasParent bool, items []*ResourceValue) *StyleValue {
	style := &StyleValue{Parent: parent, HasParent: hasParent}
	for _, item := range items {
		style.Put(item)
	}
	return style
}

// Put adds or replaces the item for the item's attribute.
func (s *StyleValue) Put(item *ResourceValue) {
	s.ensureIndex()
	key := attrKey{namespace: item.Reference.Namespace, name: item.Reference.Name}
	if idx, ok := s.index[key]; ok {
		s.Items[idx] = item
		return
	}
	s.index[key] = len(s.Items)
	s.Items = append(s.Items, item)
}

// Item returns the item defined directly on this style, without parents.
func (s *StyleValue) Item(namespace ResourceNamespace, name string) *ResourceValue {
	if s == nil {
		return nil
	}
	// Item is called by concurrent readers, so it never rebuilds the index.
	if s.index != nil && len(s.index) == len(s.Items) {
		if idx, ok := s.index[attrKey{namespace: namespace, name: name}]; ok {
			return s.Items[idx]
		}
		return nil
	}
	for i := len(s.Items) - 1; i >= 0; i-- {
		ref := s.Items[i].Reference
		if ref.Namespace == namespace && ref.Name == name {
			return s.Items[i]
		}
	}
	return nil
}

func (s *StyleValue) ensureIndex() {
	if s.index != nil && len(s.index) == len(s.Items) {
		return
	}
	s.index = make(map[attrKey]int, len(s.Items))
	for i, item := range s.Items {
		s.index[attrKey{namespace: item.Reference.Namespace, name: item.Reference.Name}] = i
	}
}

func (s *StyleValue) Equal(other *StyleValue) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Parent != other.Parent || s.HasParent != other.HasParent || len(s.Items) != len(other.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equal(other.Items[i]) {
			return false
		}
	}
	return true
}
