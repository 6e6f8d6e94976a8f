package types

import (
	"bytes"
	"fmt"
)

// ItemKey is the merge identity of an item: two live items with the same
// key in one data set are duplicates, and across data sets the higher set
// overrides the lower.
type ItemKey struct {
	Namespace  ResourceNamespace
	Type       ResourceType
	Name       string
	Qualifiers string
}

func (k ItemKey) String() string {
	folder := string(k.Type)
	if k.Qualifiers != "" {
		folder += "-" + k.Qualifiers
	}
	if k.Namespace != "" && k.Namespace != NamespaceResAuto {
		return fmt.Sprintf("%s:%s/%s", k.Namespace, folder, k.Name)
	}
	return folder + "/" + k.Name
}

// ValueDecoder computes the ResourceValue of a values-file item on first
// use.
type ValueDecoder func(item *ResourceItem) (*ResourceValue, error)

// SourcePosition locates an item or an error in a source file. Line and
// Column are 1-based; zero means unknown.
type SourcePosition struct {
	File   string `yaml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
}

func (p SourcePosition) String() string {
	switch {
	case p.Line > 0 && p.Column > 0:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	case p.Line > 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return p.File
	}
}

// ResourceItem is one concrete definition of a resource. Items are not safe
// for concurrent use; the merge engine and the repository lock serialize
// access.
type ResourceItem struct {
	Reference   ResourceReference
	Config      FolderConfiguration
	LibraryName string
	FileBased   bool
	File        *DataFile
	State       ItemState
	// Raw holds the element text of a values-file item as it appears in
	// its source. Empty for file-based items.
	Raw      []byte
	Position SourcePosition

	value  *ResourceValue
	decode ValueDecoder
}

// NewValueItem creates an item defined inside a values file.
func NewValueItem(ref ResourceReference, config FolderConfiguration, raw []byte, decode ValueDecoder) *ResourceItem {
	return &ResourceItem{Reference: ref, Config: config, Raw: raw, decode: decode}
}

// NewFileItem creates an item backed by a whole file.
func NewFileItem(ref ResourceReference, config FolderConfiguration) *ResourceItem {
	return &ResourceItem{Reference: ref, Config: config, FileBased: true}
}

func (i *ResourceItem) Key() ItemKey {
	return ItemKey{
		Namespace:  i.Reference.Namespace,
		Type:       i.Reference.Type,
		Name:       FlattenName(i.Reference.Name),
		Qualifiers: i.Config.QualifierString(),
	}
}

func (i *ResourceItem) SourcePath() string {
	if i.File == nil {
		return ""
	}
	return i.File.Path
}

// ResourceValue returns the item's value, computing it on first call. A
// value that cannot be decoded is reported as null.
func (i *ResourceItem) ResourceValue() *ResourceValue {
	if i.value != nil {
		return i.value
	}
	if i.FileBased {
		i.value = &ResourceValue{Reference: i.Reference, LibraryName: i.LibraryName, Value: i.SourcePath()}
		return i.value
	}
	if i.decode != nil {
		if value, err := i.decode(i); err == nil && value != nil {
			value.LibraryName = i.LibraryName
			i.value = value
			return i.value
		}
	}
	i.value = &ResourceValue{Reference: i.Reference, LibraryName: i.LibraryName}
	return i.value
}

// ContentEquals reports whether other carries the same definition.
func (i *ResourceItem) ContentEquals(other *ResourceItem) bool {
	if i.FileBased != other.FileBased || i.Reference != other.Reference {
		return false
	}
	if i.FileBased {
		return true
	}
	return bytes.Equal(i.Raw, other.Raw)
}

// SetValue adopts the definition of a re-parsed item and marks the item as
// touched.
func (i *ResourceItem) SetValue(other *ResourceItem) {
	i.Raw = other.Raw
	i.decode = other.decode
	i.Position = other.Position
	i.value = nil
	i.Touch()
}

// Snapshot returns a detached copy carrying the item's computed value. The
// copy points at a copy of the file header without its item list, so
// updates of i or of its file never show through the copy.
func (i *ResourceItem) Snapshot() *ResourceItem {
	value := i.ResourceValue()
	out := *i
	out.value = value
	out.decode = nil
	out.Raw = bytes.Clone(i.Raw)
	if i.File != nil {
		file := *i.File
		file.Items = nil
		out.File = &file
	}
	return &out
}

func (i *ResourceItem) Touch() {
	i.State = i.State.Touch()
}

func (i *ResourceItem) Remove() {
	i.State = i.State.Remove()
}

func (i *ResourceItem) MarkWritten() {
	i.State = i.State.MarkWritten()
}

func (i *ResourceItem) IsRemoved() bool {
	return i.State.IsRemoved()
}

func (i *ResourceItem) String() string {
	return fmt.Sprintf("%s (%s)", i.Key(), i.SourcePath())
}

// DataFile is one source file and the items it defines.
type DataFile struct {
	Path       string
	SourceRoot string
	Kind       FileKind
	FolderType string
	Config     FolderConfiguration
	Digest     string
	Items      []*ResourceItem
}

// AddItem links item to the file.
func (f *DataFile) AddItem(item *ResourceItem) {
	item.File = f
	f.Items = append(f.Items, item)
}

// LiveItems returns the items that are not tombstoned.
func (f *DataFile) LiveItems() []*ResourceItem {
	out := make([]*ResourceItem, 0, len(f.Items))
	for _, item := range f.Items {
		if !item.IsRemoved() {
			out = append(out, item)
		}
	}
	return out
}

// Item returns the live item with the given key.
func (f *DataFile) Item(key ItemKey) *ResourceItem {
	for _, item := range f.Items {
		if !item.IsRemoved() && item.Key() == key {
			return item
		}
	}
	return nil
}
