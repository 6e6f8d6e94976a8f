package policies

import (
	"strings"

	"resmerge/internal/types"
)

const ValuesFolder = "values"

var singleFileFolders = map[string]types.ResourceType{
	"anim":         types.ResourceTypeAnim,
	"animator":     types.ResourceTypeAnimator,
	"color":        types.ResourceTypeColor,
	"drawable":     types.ResourceTypeDrawable,
	"font":         types.ResourceTypeFont,
	"interpolator": types.ResourceTypeInterpolator,
	"layout":       types.ResourceTypeLayout,
	"menu":         types.ResourceTypeMenu,
	"mipmap":       types.ResourceTypeMipmap,
	"navigation":   types.ResourceTypeNavigation,
	"raw":          types.ResourceTypeRaw,
	"transition":   types.ResourceTypeTransition,
	"xml":          types.ResourceTypeXML,
}

// FolderTypeFor classifies a resource folder type (the folder name without
// qualifiers). Values folders hold many items of mixed types, so no single
// type is returned for them.
func FolderTypeFor(folderType string) (types.ResourceType, types.FileKind, bool) {
	if folderType == ValuesFolder {
		return "", types.FileKindValues, true
	}
	if resType, ok := singleFileFolders[folderType]; ok {
		return resType, types.FileKindSingle, true
	}
	return "", "", false
}

// ItemNameForFile derives a single-file resource name: the file name up to
// its first dot.
func ItemNameForFile(fileName string) string {
	if idx := strings.IndexByte(fileName, '.'); idx >= 0 {
		return fileName[:idx]
	}
	return fileName
}
