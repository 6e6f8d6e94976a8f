package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"resmerge/internal/core"
	"resmerge/internal/policies"
	"resmerge/internal/types"
)

// loadLayout reads, validates and normalizes the layout at path. Relative
// paths resolve against the layout's folder.
func (s Service) loadLayout(ctx context.Context, path string) (types.MergeLayout, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return types.MergeLayout{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("layout file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.MergeLayout{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid layout path").
			WithCause(err)
	}
	layout, err := s.Layouts.LoadLayout(abs)
	if err != nil {
		return types.MergeLayout{}, err
	}
	compiler := core.NewLayoutCompiler()
	if err := compiler.ValidateLayout(ctx, layout); err != nil {
		return types.MergeLayout{}, err
	}
	return compiler.NormalizeLayout(layout, filepath.Dir(abs)), nil
}

func ignorePolicy(layout types.MergeLayout) (policies.IgnorePolicy, error) {
	ignore, err := policies.NewIgnorePolicy(layout.Ignore)
	if err != nil {
		return policies.IgnorePolicy{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid ignore pattern").
			WithCause(err)
	}
	return ignore, nil
}

// loadAll builds the layout's sets with the framework roots as the lowest
// layer in the android namespace and loads everything from disk.
func (s Service) loadAll(ctx context.Context, layout types.MergeLayout) (*core.Merger, error) {
	compiler := core.NewLayoutCompiler()
	sets, err := compiler.BuildDataSets(ctx, layout, s.Parser)
	if err != nil {
		return nil, err
	}
	ignore, err := ignorePolicy(layout)
	if err != nil {
		return nil, err
	}
	merger := core.NewMerger(s.Parser, core.WithExecutionRoot(layout.ExecutionRoot), core.WithIgnorePolicy(ignore))
	if len(layout.Framework) > 0 {
		framework := core.NewDataSet("framework", s.Parser, core.DataSetOptions{
			Namespace:      types.NamespaceAndroid,
			LibraryName:    "android",
			FromDependency: true,
			Ignore:         ignore,
		})
		framework.AddSources(layout.Framework...)
		merger.AddDataSet(framework)
	}
	for _, set := range sets {
		merger.AddDataSet(set)
	}
	if err := merger.LoadFromFiles(ctx); err != nil {
		return nil, err
	}
	return merger, nil
}

// parseConfig turns a qualifier string into a configuration; an empty
// string is the default configuration.
func (s Service) parseConfig(qualifiers string) (types.FolderConfiguration, error) {
	qualifiers = strings.TrimSpace(qualifiers)
	if qualifiers == "" {
		return types.FolderConfiguration{}, nil
	}
	config, err := s.Parser.ParseQualifiers(qualifiers)
	if err != nil {
		return types.FolderConfiguration{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid configuration " + qualifiers).
			WithCause(err)
	}
	return config, nil
}
