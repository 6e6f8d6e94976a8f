package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/adapters"
	"resmerge/internal/core"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

func (s Service) Merge(ctx context.Context, req MergeRequest) (MergeResult, error) {
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return MergeResult{}, err
	}
	merger, result, err := s.prepareMerger(ctx, layout, req.Incremental)
	if err != nil {
		return MergeResult{}, err
	}
	if err := s.writePass(ctx, layout, merger); err != nil {
		return MergeResult{}, err
	}
	result.Resources = merger.Table().Len()
	return result, nil
}

// prepareMerger returns a merger ready for MergeData. The persisted state is
// reused when incremental is set and the state still describes the same
// layers; otherwise every source is loaded and old outputs are cleared.
func (s Service) prepareMerger(ctx context.Context, layout types.MergeLayout, incremental bool) (*core.Merger, MergeResult, error) {
	logger := log.Ctx(ctx)
	result := MergeResult{LayoutName: layout.Name, OutputDir: layout.Output}
	compiler := core.NewLayoutCompiler()
	sets, err := compiler.BuildDataSets(ctx, layout, s.Parser)
	if err != nil {
		return nil, result, err
	}
	ignore, err := ignorePolicy(layout)
	if err != nil {
		return nil, result, err
	}
	newMerger := func() *core.Merger {
		return core.NewMerger(s.Parser, core.WithExecutionRoot(layout.ExecutionRoot), core.WithIgnorePolicy(ignore))
	}

	if incremental {
		merger := newMerger()
		err := merger.LoadFromBlob(layout.BlobDir, true)
		switch {
		case err == nil && merger.CheckValidUpdate(sets):
			changes, err := s.detectChanges(ctx, merger, s.NewScanner(ignore))
			if err != nil {
				return nil, result, err
			}
			for _, change := range changes {
				if _, err := merger.UpdateFile(ctx, change.Path, change.Status); err != nil {
					return nil, result, err
				}
			}
			logger.Info().Int("changes", len(changes)).Msg("incremental merge")
			result.Incremental = true
			result.Changes = len(changes)
			return merger, result, nil
		case err == nil:
			logger.Info().Msg("data sets changed since the last merge, running a full merge")
		case errbuilder.CodeOf(err) == errbuilder.CodeNotFound:
			logger.Debug().Msg("no merge state, running a full merge")
		default:
			var merr *types.MergeError
			if !errors.As(err, &merr) || merr.Kind != types.MergeErrorIncrementalState {
				return nil, result, err
			}
			logger.Warn().Err(err).Msg("merge state is unusable, running a full merge")
		}
	}

	if err := clearOutputs(layout); err != nil {
		return nil, result, err
	}
	merger := newMerger()
	for _, set := range sets {
		merger.AddDataSet(set)
	}
	if err := merger.LoadFromFiles(ctx); err != nil {
		return nil, result, err
	}
	return merger, result, nil
}

// detectChanges compares the sources on disk with the digests recorded in
// the restored state. The result is sorted by path.
func (s Service) detectChanges(ctx context.Context, merger *core.Merger, scanner ports.SourceScannerPort) ([]ports.SourceChange, error) {
	var changes []ports.SourceChange
	for _, set := range merger.DataSets() {
		scanned, err := scanner.ScanSources(ctx, set.Sources())
		if err != nil {
			return nil, err
		}
		known := map[string]*types.DataFile{}
		for _, file := range set.Files() {
			known[file.Path] = file
		}
		seen := map[string]bool{}
		for _, source := range scanned {
			if seen[source.Path] {
				continue
			}
			seen[source.Path] = true
			file, ok := known[source.Path]
			delete(known, source.Path)
			switch {
			case !ok:
				changes = append(changes, ports.SourceChange{Path: source.Path, Status: types.FileStatusNew})
			case file.Digest != source.Digest:
				changes = append(changes, ports.SourceChange{Path: source.Path, Status: types.FileStatusChanged})
			}
		}
		for path, file := range known {
			if len(file.LiveItems()) > 0 {
				changes = append(changes, ports.SourceChange{Path: path, Status: types.FileStatusRemoved})
			}
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// writePass validates the sets, writes the delta and persists the state.
func (s Service) writePass(ctx context.Context, layout types.MergeLayout, merger *core.Merger) error {
	if err := merger.ValidateDataSets(); err != nil {
		return err
	}
	compiler, err := s.NewCompiler(layout.Compiler, layout.Workers)
	if err != nil {
		return err
	}
	writer := adapters.NewMergedResourceWriter(adapters.MergedWriterOptions{
		OutputDir:       layout.Output,
		IntermediateDir: layout.BlobDir,
		Compiler:        compiler,
	})
	if err := merger.MergeData(ctx, writer, true); err != nil {
		return err
	}
	return merger.WriteBlobTo(layout.BlobDir, writer, true)
}

// clearOutputs removes everything a previous merge produced so a full merge
// never leaves outputs of resources that no longer exist.
func clearOutputs(layout types.MergeLayout) error {
	paths := []string{
		layout.Output,
		filepath.Join(layout.BlobDir, adapters.MergedValuesDir),
		filepath.Join(layout.BlobDir, adapters.CompiledFileMapName),
		filepath.Join(layout.BlobDir, core.BlobFileName),
	}
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to clear " + path).
				WithCause(err)
		}
	}
	return nil
}
