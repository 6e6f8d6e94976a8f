package app

import (
	"context"
	"path/filepath"

	"resmerge/internal/adapters"
	"resmerge/internal/core"
)

// Inspect summarizes the persisted merge state of a layout.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return InspectResult{}, err
	}
	merger := core.NewMerger(s.Parser, core.WithExecutionRoot(layout.ExecutionRoot))
	if err := merger.LoadFromBlob(layout.BlobDir, true); err != nil {
		return InspectResult{}, err
	}
	result := InspectResult{LayoutName: layout.Name, Generation: merger.Generation()}
	for _, set := range merger.DataSets() {
		summary := InspectDataSet{
			Name:           set.Name(),
			Namespace:      set.Namespace(),
			Library:        set.LibraryName(),
			FromDependency: set.FromDependency(),
			Generated:      set.Generated(),
			Sources:        set.Sources(),
		}
		for _, file := range set.Files() {
			summary.Files++
			for _, item := range file.Items {
				summary.Items++
				if item.IsRemoved() {
					summary.Removed++
				}
			}
		}
		result.DataSets = append(result.DataSets, summary)
	}
	compiled, err := adapters.NewCompiledFileMapAdapter().Load(filepath.Join(layout.BlobDir, adapters.CompiledFileMapName))
	if err != nil {
		return InspectResult{}, err
	}
	result.Outputs = len(compiled)
	return result, nil
}
