package ports

import (
	"context"
	"io"

	"resmerge/internal/types"
)

type LayoutPort interface {
	LoadLayout(path string) (types.MergeLayout, error)
}

// TableExportPort writes a configured resource snapshot in one format.
type TableExportPort interface {
	Export(w io.Writer, format types.ExportFormat, resources []*types.ResourceValue) error
}

// SourceChange is one observed change below a watched root.
type SourceChange struct {
	Path   string
	Status types.FileStatus
}

// SourceWatcherPort reports batches of file changes until ctx is done.
// Batches are delivered in order; the channel is closed on return.
type SourceWatcherPort interface {
	Watch(ctx context.Context, roots []string) (<-chan []SourceChange, error)
}
