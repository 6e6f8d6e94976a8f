package app

import (
	"context"

	"resmerge/internal/core"
)

// Validate loads every layer from disk and fails on parse errors and on
// duplicate resources within a layer. Nothing is written.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return ValidateResult{}, err
	}
	sets, err := core.NewLayoutCompiler().BuildDataSets(ctx, layout, s.Parser)
	if err != nil {
		return ValidateResult{}, err
	}
	merger := core.NewMerger(s.Parser)
	for _, set := range sets {
		merger.AddDataSet(set)
	}
	if err := merger.LoadFromFiles(ctx); err != nil {
		return ValidateResult{}, err
	}
	if err := merger.ValidateDataSets(); err != nil {
		return ValidateResult{}, err
	}
	files := 0
	for _, set := range sets {
		files += len(set.Files())
	}
	return ValidateResult{
		LayoutName: layout.Name,
		DataSets:   len(sets),
		Files:      files,
		Resources:  merger.Table().Len(),
	}, nil
}
