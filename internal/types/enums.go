package types

import "strings"

// ResourceNamespace partitions the resource keyspace. Items in different
// namespaces never collide.
type ResourceNamespace string

const (
	NamespaceAndroid ResourceNamespace = "android"
	NamespaceResAuto ResourceNamespace = "res-auto"
	NamespaceTools   ResourceNamespace = "tools"
	NamespaceAapt    ResourceNamespace = "aapt"
)

// IsFramework reports whether the namespace is the platform namespace.
func (n ResourceNamespace) IsFramework() bool {
	return n == NamespaceAndroid
}

// NamespaceForPackage maps a reference package prefix to a namespace. An
// empty prefix yields the empty namespace, meaning "use the context".
func NamespaceForPackage(pkg string) ResourceNamespace {
	switch pkg {
	case "":
		return ""
	case "android":
		return NamespaceAndroid
	case "tools":
		return NamespaceTools
	case "aapt":
		return NamespaceAapt
	case "res-auto", "app":
		return NamespaceResAuto
	default:
		return ResourceNamespace(pkg)
	}
}

type ResourceType string

const (
	ResourceTypeAnim         ResourceType = "anim"
	ResourceTypeAnimator     ResourceType = "animator"
	ResourceTypeArray        ResourceType = "array"
	ResourceTypeAttr         ResourceType = "attr"
	ResourceTypeBool         ResourceType = "bool"
	ResourceTypeColor        ResourceType = "color"
	ResourceTypeDimen        ResourceType = "dimen"
	ResourceTypeDrawable     ResourceType = "drawable"
	ResourceTypeFont         ResourceType = "font"
	ResourceTypeFraction     ResourceType = "fraction"
	ResourceTypeID           ResourceType = "id"
	ResourceTypeInteger      ResourceType = "integer"
	ResourceTypeInterpolator ResourceType = "interpolator"
	ResourceTypeLayout       ResourceType = "layout"
	ResourceTypeMenu         ResourceType = "menu"
	ResourceTypeMipmap       ResourceType = "mipmap"
	ResourceTypeNavigation   ResourceType = "navigation"
	ResourceTypePlurals      ResourceType = "plurals"
	ResourceTypeRaw          ResourceType = "raw"
	ResourceTypeString       ResourceType = "string"
	ResourceTypeStyle        ResourceType = "style"
	ResourceTypeStyleable    ResourceType = "styleable"
	ResourceTypeTransition   ResourceType = "transition"
	ResourceTypeXML          ResourceType = "xml"
	ResourceTypeSampleData   ResourceType = "sample"
	ResourceTypeAapt         ResourceType = "_aapt"
	ResourceTypePublic       ResourceType = "public"
)

var resourceTypes = []ResourceType{
	ResourceTypeAnim, ResourceTypeAnimator, ResourceTypeArray, ResourceTypeAttr,
	ResourceTypeBool, ResourceTypeColor, ResourceTypeDimen, ResourceTypeDrawable,
	ResourceTypeFont, ResourceTypeFraction, ResourceTypeID, ResourceTypeInteger,
	ResourceTypeInterpolator, ResourceTypeLayout, ResourceTypeMenu, ResourceTypeMipmap,
	ResourceTypeNavigation, ResourceTypePlurals, ResourceTypeRaw, ResourceTypeString,
	ResourceTypeStyle, ResourceTypeStyleable, ResourceTypeTransition, ResourceTypeXML,
	ResourceTypeSampleData, ResourceTypeAapt, ResourceTypePublic,
}

// ResourceTypes returns every known type in declaration order.
func ResourceTypes() []ResourceType {
	out := make([]ResourceType, len(resourceTypes))
	copy(out, resourceTypes)
	return out
}

// ParseResourceType maps a reference or folder type name to a ResourceType.
// The values-file aliases ("string-array", "declare-styleable", ...) are
// accepted as well.
func ParseResourceType(name string) (ResourceType, bool) {
	switch name {
	case "string-array", "integer-array":
		return ResourceTypeArray, true
	case "declare-styleable":
		return ResourceTypeStyleable, true
	}
	for _, t := range resourceTypes {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// FileStatus is the change notification driving incremental updates.
type FileStatus string

const (
	FileStatusNew     FileStatus = "new"
	FileStatusChanged FileStatus = "changed"
	FileStatusRemoved FileStatus = "removed"
)

func ParseFileStatus(value string) (FileStatus, bool) {
	switch FileStatus(strings.ToLower(strings.TrimSpace(value))) {
	case FileStatusNew:
		return FileStatusNew, true
	case FileStatusChanged:
		return FileStatusChanged, true
	case FileStatusRemoved:
		return FileStatusRemoved, true
	default:
		return "", false
	}
}

// FileKind distinguishes single-file resources from values files holding
// many items.
type FileKind string

const (
	FileKindSingle FileKind = "single"
	FileKindValues FileKind = "values"
)

// VisitResult steers a repository traversal.
type VisitResult int

const (
	VisitContinue VisitResult = iota
	VisitAbort
)

type CompilerKind string

const (
	CompilerKindFlat CompilerKind = "flat"
	CompilerKindCopy CompilerKind = "copy"
)

type ExportFormat string

const (
	ExportFormatCBOR ExportFormat = "cbor"
	ExportFormatYAML ExportFormat = "yaml"
)
