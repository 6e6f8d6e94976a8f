package core

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const (
	DefaultOutputDir = "build/merged"
	DefaultBlobDir   = "build/merger"
)

type LayoutCompiler struct{}

var validCompilers = map[types.CompilerKind]struct{}{
	types.CompilerKindFlat: {},
	types.CompilerKindCopy: {},
}

func NewLayoutCompiler() LayoutCompiler {
	return LayoutCompiler{}
}

func (c LayoutCompiler) ValidateLayout(ctx context.Context, layout types.MergeLayout) error {
	if layout.APIVersion != types.LayoutAPIVersion {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported api_version %q, want %s", layout.APIVersion, types.LayoutAPIVersion))
	}
	if len(layout.DataSets) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("data_sets must not be empty")
	}
	seen := map[string]struct{}{}
	for _, set := range layout.DataSets {
		if err := validateDataSetLayout(set); err != nil {
			return err
		}
		if _, ok := seen[set.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("data set %s is declared twice", set.Name))
		}
		seen[set.Name] = struct{}{}
	}
	if layout.Compiler != "" {
		if _, ok := validCompilers[layout.Compiler]; !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid compiler %s", layout.Compiler))
		}
	}
	if layout.Workers < 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workers must not be negative")
	}
	if _, err := policies.NewIgnorePolicy(layout.Ignore); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid ignore pattern").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("layout", layout.Name).Int("data_sets", len(layout.DataSets)).Msg("layout validated")
	return nil
}

func validateDataSetLayout(set types.DataSetLayout) error {
	if strings.TrimSpace(set.Name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("data_sets.name must not be empty")
	}
	if len(set.Sources) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("data set %s missing sources", set.Name))
	}
	for _, source := range set.Sources {
		if strings.TrimSpace(source) == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("data set %s has an empty source", set.Name))
		}
	}
	switch set.Namespace {
	case "", types.NamespaceResAuto:
	case types.NamespaceAndroid, types.NamespaceTools, types.NamespaceAapt:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("data set %s uses reserved namespace %s", set.Name, set.Namespace))
	}
	return nil
}

// NormalizeLayout fills defaults and makes every path absolute against
// baseDir, the folder holding the layout file.
func (c LayoutCompiler) NormalizeLayout(layout types.MergeLayout, baseDir string) types.MergeLayout {
	out := layout
	out.DataSets = make([]types.DataSetLayout, len(layout.DataSets))
	for i, set := range layout.DataSets {
		set.Sources = absolutePaths(baseDir, set.Sources)
		if set.Namespace == "" {
			set.Namespace = types.NamespaceResAuto
		}
		out.DataSets[i] = set
	}
	out.Framework = absolutePaths(baseDir, layout.Framework)
	if out.Output == "" {
		out.Output = DefaultOutputDir
	}
	if out.BlobDir == "" {
		out.BlobDir = DefaultBlobDir
	}
	out.Output = absolutePath(baseDir, out.Output)
	out.BlobDir = absolutePath(baseDir, out.BlobDir)
	if out.ExecutionRoot != "" {
		out.ExecutionRoot = absolutePath(baseDir, out.ExecutionRoot)
	}
	if out.Compiler == "" {
		out.Compiler = types.CompilerKindFlat
	}
	if out.Workers == 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.IDs.Framework != "" {
		out.IDs.Framework = absolutePath(baseDir, out.IDs.Framework)
	}
	out.IDs.Libraries = absolutePaths(baseDir, layout.IDs.Libraries)
	return out
}

func absolutePaths(baseDir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		out = append(out, absolutePath(baseDir, path))
	}
	return out
}

func absolutePath(baseDir string, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// BuildDataSets creates the layers of a normalized layout in precedence
// order. Nothing is read from disk.
func (c LayoutCompiler) BuildDataSets(ctx context.Context, layout types.MergeLayout, parser ports.ResourceParserPort) ([]*DataSet, error) {
	ignore, err := policies.NewIgnorePolicy(layout.Ignore)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid ignore pattern").
			WithCause(err)
	}
	sets := make([]*DataSet, 0, len(layout.DataSets))
	for _, entry := range layout.DataSets {
		assert.NotEmpty(ctx, entry.Name, "data set name must be validated before build")
		set := NewDataSet(entry.Name, parser, DataSetOptions{
			Namespace:      entry.Namespace,
			LibraryName:    entry.Library,
			FromDependency: entry.FromDependency,
			Generated:      entry.Generated,
			Ignore:         ignore,
		})
		set.AddSources(entry.Sources...)
		sets = append(sets, set)
	}
	return sets, nil
}

// BuildMerger creates an empty merger for a normalized layout with its data
// sets attached.
func (c LayoutCompiler) BuildMerger(ctx context.Context, layout types.MergeLayout, parser ports.ResourceParserPort) (*Merger, error) {
	sets, err := c.BuildDataSets(ctx, layout, parser)
	if err != nil {
		return nil, err
	}
	ignore, _ := policies.NewIgnorePolicy(layout.Ignore)
	merger := NewMerger(parser, WithExecutionRoot(layout.ExecutionRoot), WithIgnorePolicy(ignore))
	for _, set := range sets {
		merger.AddDataSet(set)
	}
	return merger, nil
}
