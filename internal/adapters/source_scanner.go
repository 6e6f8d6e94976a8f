package adapters

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
)

// SourceScannerAdapter lists the files of resource roots with their
// digests, root by root in lexical order. Ignored names prune whole
// directories.
type SourceScannerAdapter struct {
	ignore policies.IgnorePolicy
	digest ports.DigestPort
}

func NewSourceScannerAdapter(ignore policies.IgnorePolicy, digest ports.DigestPort) SourceScannerAdapter {
	if digest == nil {
		digest = NewDigestAdapter()
	}
	return SourceScannerAdapter{ignore: ignore, digest: digest}
}

func (a SourceScannerAdapter) ScanSources(ctx context.Context, roots []string) ([]ports.SourceFile, error) {
	var files []ports.SourceFile
	for _, root := range roots {
		if root == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("source root is empty")
		}
		root = filepath.Clean(root)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			log.Ctx(ctx).Debug().Str("root", root).Msg("source root missing, skipping")
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if path != root && a.ignore.IsIgnoredName(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			digest, err := a.digest.DigestFile(path)
			if err != nil {
				return err
			}
			files = append(files, ports.SourceFile{Root: root, Path: path, Digest: digest})
			return nil
		})
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to scan source root " + root).
				WithCause(err)
		}
	}
	log.Ctx(ctx).Debug().Int("roots", len(roots)).Int("files", len(files)).Msg("scanned sources")
	return files, nil
}

var _ ports.SourceScannerPort = SourceScannerAdapter{}
