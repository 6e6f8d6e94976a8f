package app

import (
	"time"

	"resmerge/internal/core"
	"resmerge/internal/types"
)

type MergeRequest struct {
	LayoutPath string
	// Incremental reuses the persisted merge state when it matches the
	// layout. A full merge clears previous outputs first.
	Incremental bool
}

type MergeResult struct {
	LayoutName  string
	Incremental bool
	Changes     int
	Resources   int
	OutputDir   string
}

type ValidateRequest struct {
	LayoutPath string
}

type ValidateResult struct {
	LayoutName string
	DataSets   int
	Files      int
	Resources  int
}

type ResolveRequest struct {
	LayoutPath string
	// Config is a qualifier string such as "fr-land-v21". Empty selects
	// the default configuration.
	Config string
	// Theme names the default theme, "@style/AppTheme" or
	// "@android:style/Theme.Material".
	Theme          string
	DeviceDefaults string
	References     []string
	// Attrs are looked up in the theme stack, "colorPrimary" or
	// "android:textColor".
	Attrs []string
}

type ResolvedValue struct {
	Query string
	Value *types.ResourceValue
	// Chain is the lookup path in "query => v1 => v2" form.
	Chain string
}

type ResolveResult struct {
	Config      string
	Theme       string
	Values      []ResolvedValue
	Diagnostics map[string]int
}

type InspectRequest struct {
	LayoutPath string
}

type InspectDataSet struct {
	Name           string
	Namespace      types.ResourceNamespace
	Library        string
	FromDependency bool
	Generated      bool
	Sources        []string
	Files          int
	Items          int
	Removed        int
}

type InspectResult struct {
	LayoutName string
	Generation string
	DataSets   []InspectDataSet
	Outputs    int
}

type ExportRequest struct {
	LayoutPath       string
	Config           string
	Format           types.ExportFormat
	IncludeFramework bool
}

type ExportResult struct {
	Resources int
	Variants  int
}

type WatchRequest struct {
	LayoutPath string
	Debounce   time.Duration
	// Repository is refreshed after every successful pass. Readers keep
	// seeing the last good table while a pass fails. Watch uses a private
	// repository when nil.
	Repository *core.Repository
	// OnPass is called after every merge pass, the initial one included.
	OnPass func(MergeResult)
	// OnError is called for a failed pass. Watching continues.
	OnError func(error)
}
