package adapters

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// MergedValuesDir holds the merged values XML below the intermediate dir.
const MergedValuesDir = "merged.dir"

const valuesHeader = `<?xml version="1.0" encoding="utf-8"?>
<resources xmlns:android="http://schemas.android.com/apk/res/android" xmlns:tools="http://schemas.android.com/tools" xmlns:xliff="urn:oasis:names:tc:xliff:document:1.2">
`

type MergedWriterOptions struct {
	// OutputDir receives compiled outputs.
	OutputDir string
	// IntermediateDir receives merged values files and the compiled file map.
	IntermediateDir string
	Compiler        ports.ResourceCompilerPort
	FileMap         ports.CompiledFileMapPort
	// Ignore keeps items out of the merge entirely.
	Ignore func(item *types.ResourceItem) bool
}

// MergedResourceWriter turns merge deltas into output files. Values items
// are grouped per configuration into values[-q]/values[-q].xml; a group
// is rewritten when one of its items is touched or removed. File-based
// items are compiled when touched.
type MergedResourceWriter struct {
	opts MergedWriterOptions

	compiled map[string]string
	groups   map[string][]*types.ResourceItem
	dirty    map[string]bool
	pending  []ports.CompileRequest
}

func NewMergedResourceWriter(opts MergedWriterOptions) *MergedResourceWriter {
	if opts.FileMap == nil {
		opts.FileMap = NewCompiledFileMapAdapter()
	}
	return &MergedResourceWriter{opts: opts}
}

func (w *MergedResourceWriter) fileMapPath() string {
	return filepath.Join(w.opts.IntermediateDir, CompiledFileMapName)
}

func (w *MergedResourceWriter) Start(ctx context.Context) error {
	if w.opts.Compiler == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("merged writer requires a compiler")
	}
	compiled, err := w.opts.FileMap.Load(w.fileMapPath())
	if err != nil {
		return err
	}
	w.compiled = compiled
	w.groups = map[string][]*types.ResourceItem{}
	w.dirty = map[string]bool{}
	w.pending = nil
	log.Ctx(ctx).Debug().Int("compiled", len(compiled)).Msg("merged writer started")
	return nil
}

func (w *MergedResourceWriter) AddItem(_ context.Context, item *types.ResourceItem) error {
	if item.FileBased {
		if item.State.IsTouched() {
			w.pending = append(w.pending, w.fileRequest(item))
		}
		return nil
	}
	qualifiers := item.Config.QualifierString()
	w.groups[qualifiers] = append(w.groups[qualifiers], item)
	if item.State.IsTouched() {
		w.dirty[qualifiers] = true
	}
	return nil
}

func (w *MergedResourceWriter) RemoveItem(ctx context.Context, removed *types.ResourceItem, replacedBy *types.ResourceItem) error {
	if !removed.FileBased {
		w.dirty[removed.Config.QualifierString()] = true
		return nil
	}
	source := removed.SourcePath()
	output, ok := w.compiled[source]
	if !ok {
		return nil
	}
	delete(w.compiled, source)
	if replacedBy != nil && replacedBy.FileBased && w.opts.Compiler.OutputFor(w.fileRequest(replacedBy)) == output {
		return nil
	}
	log.Ctx(ctx).Debug().Str("output", output).Msg("removing stale output")
	return removeIfExists(output)
}

func (w *MergedResourceWriter) IgnoreItemInMerge(item *types.ResourceItem) bool {
	return w.opts.Ignore != nil && w.opts.Ignore(item)
}

func (w *MergedResourceWriter) End(ctx context.Context) error {
	dirty := make([]string, 0, len(w.dirty))
	for qualifiers := range w.dirty {
		dirty = append(dirty, qualifiers)
	}
	sort.Strings(dirty)
	requests := make([]ports.CompileRequest, 0, len(dirty)+len(w.pending))
	for _, qualifiers := range dirty {
		folder := policies.ValuesFolder
		if qualifiers != "" {
			folder += "-" + qualifiers
		}
		path := filepath.Join(w.opts.IntermediateDir, MergedValuesDir, folder, folder+".xml")
		items := w.groups[qualifiers]
		if len(items) == 0 {
			if output, ok := w.compiled[path]; ok {
				if err := removeIfExists(output); err != nil {
					return err
				}
				delete(w.compiled, path)
			}
			if err := removeIfExists(path); err != nil {
				return err
			}
			continue
		}
		if err := writeOutput(path, renderValues(items)); err != nil {
			return err
		}
		requests = append(requests, ports.CompileRequest{Input: path, OutputDir: w.opts.OutputDir, FolderName: folder})
	}
	requests = append(requests, w.pending...)

	for _, request := range requests {
		if err := w.opts.Compiler.Submit(ctx, request); err != nil {
			_ = w.opts.Compiler.Close()
			return err
		}
		w.compiled[request.Input] = w.opts.Compiler.OutputFor(request)
	}
	if err := w.opts.Compiler.Close(); err != nil {
		return err
	}
	if err := w.opts.FileMap.Save(w.fileMapPath(), w.compiled); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().
		Int("values_files", len(dirty)).
		Int("compiled", len(requests)).
		Msg("merged writer finished")
	return nil
}

func (w *MergedResourceWriter) fileRequest(item *types.ResourceItem) ports.CompileRequest {
	folderType := string(item.Reference.Type)
	if item.File != nil && item.File.FolderType != "" {
		folderType = item.File.FolderType
	}
	return ports.CompileRequest{
		Input:      item.SourcePath(),
		OutputDir:  w.opts.OutputDir,
		FolderName: item.Config.FolderName(folderType),
	}
}

func renderValues(items []*types.ResourceItem) []byte {
	var buf bytes.Buffer
	buf.WriteString(valuesHeader)
	for _, item := range items {
		buf.WriteString("    ")
		buf.Write(item.Raw)
		buf.WriteByte('\n')
	}
	buf.WriteString("</resources>\n")
	return buf.Bytes()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove " + path).
			WithCause(err)
	}
	return nil
}

var _ ports.MergeConsumerPort = (*MergedResourceWriter)(nil)
