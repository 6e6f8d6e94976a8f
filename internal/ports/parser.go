package ports

import (
	"context"

	"resmerge/internal/types"
)

// ParseSource describes the layer a file is parsed for. Items produced for
// it carry its namespace and library name.
type ParseSource struct {
	Namespace   types.ResourceNamespace
	LibraryName string
	SourceRoot  string
}

// ResourceParserPort turns source files into DataFiles.
type ResourceParserPort interface {
	// ParseFile parses one file below source.SourceRoot. It returns
	// (nil, nil) for files that are not resources, for example a file
	// outside a recognised resource folder. Structural errors are returned
	// as *types.MergeError carrying the file position.
	ParseFile(ctx context.Context, source ParseSource, path string) (*types.DataFile, error)

	// DecodeValueItem rebuilds a values-file item from its persisted
	// element text.
	DecodeValueItem(source ParseSource, config types.FolderConfiguration, raw []byte) (*types.ResourceItem, error)

	// ParseQualifiers rebuilds a configuration from its qualifier string.
	ParseQualifiers(qualifiers string) (types.FolderConfiguration, error)
}

// SourceScannerPort enumerates candidate resource files below a root,
// skipping ignored paths.
type SourceScannerPort interface {
	ScanSources(ctx context.Context, roots []string) ([]SourceFile, error)
}

// SourceFile is one scanned file with its content digest.
type SourceFile struct {
	Root   string
	Path   string
	Digest string
}

// DigestPort hashes file content for change detection.
type DigestPort interface {
	DigestFile(path string) (string, error)
}
