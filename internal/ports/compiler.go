package ports

import (
	"context"

	"resmerge/internal/types"
)

// CompileRequest asks for one merged resource file to be compiled into
// OutputDir. FolderName is the resource folder the input belongs to
// ("values-en", "drawable-hdpi").
type CompileRequest struct {
	Input      string
	OutputDir  string
	FolderName string
}

// ResourceCompilerPort compiles resource files. Submit may return before
// the work is done; Close waits for every submitted request and reports the
// first failure.
type ResourceCompilerPort interface {
	Submit(ctx context.Context, request CompileRequest) error
	OutputFor(request CompileRequest) string
	Close() error
}

// MergeConsumerPort observes exactly the delta a merge computed.
type MergeConsumerPort interface {
	Start(ctx context.Context) error
	AddItem(ctx context.Context, item *types.ResourceItem) error
	// RemoveItem reports an item whose previous output must go away.
	// replacedBy is the item now written for the same key, or nil.
	RemoveItem(ctx context.Context, removed *types.ResourceItem, replacedBy *types.ResourceItem) error
	IgnoreItemInMerge(item *types.ResourceItem) bool
	End(ctx context.Context) error
}

// CompiledFileMapPort persists which output each merged source produced.
type CompiledFileMapPort interface {
	Load(path string) (map[string]string, error)
	Save(path string, entries map[string]string) error
}
